package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/core/view"
	"github.com/trezcool/coursework/storage/records"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *records.DB
	usrSvc *user.Service
	asgSvc *assignment.Service
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  seed - write the default records under the missing keys")
	fmt.Fprintln(cli.out, "  stats - print the admin statistics")
	fmt.Fprintln(cli.out, "  recount - recompute the submission counters of every assignment")
	fmt.Fprintln(cli.out, "  adduser -login LOGIN -email EMAIL -name NAME [-role ROLE] [-group GROUP] [-teacher LOGIN] - create a user")
	fmt.Fprintln(cli.out, "  resetpassword -username LOGIN|EMAIL - reset user's password")
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.out)
	addUserLogin := addUserCmd.String("login", "", "The user's login.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserRole := addUserCmd.String("role", string(user.RoleAdmin), "One of student, teacher, admin.")
	addUserGroup := addUserCmd.String("group", "", "The student's group.")
	addUserTeacher := addUserCmd.String("teacher", "", "The login of the student's teacher.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's login or email. The password will be prompted next.")

	switch args[1] {
	case "seed":
		return cli.seed()
	case "stats":
		return cli.stats()
	case "recount":
		return cli.recount()
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserLogin == "" || *addUserEmail == "" || *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(user.NewUser{
			Login:        *addUserLogin,
			Email:        *addUserEmail,
			Name:         *addUserName,
			Role:         user.Role(*addUserRole),
			Group:        *addUserGroup,
			TeacherLogin: *addUserTeacher,
			Password:     pwd,
		})
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) seed() error {
	if err := cli.db.Seed(); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "store seeded")
	return nil
}

// recount repairs the stored counters, e.g. after records were imported from an older version.
func (cli *commandLine) recount() error {
	if err := cli.asgSvc.RefreshCounters(); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "counters refreshed")
	return nil
}

func (cli *commandLine) stats() error {
	users, err := cli.usrSvc.GetAll()
	if err != nil {
		return err
	}
	assignments, err := records.NewAssignmentRepository(cli.db).QueryAllAssignments()
	if err != nil {
		return err
	}
	subs, err := records.NewSubmissionRepository(cli.db).QueryAllSubmissions()
	if err != nil {
		return err
	}
	courses, err := records.NewCourseRepository(cli.db).QueryAllCourses()
	if err != nil {
		return err
	}

	s := view.CalculateStats(users, assignments, subs, courses)
	fmt.Fprintf(cli.out, "users:       %d (%d active, %d groups)\n", s.TotalUsers, s.ActiveUsers, s.TotalGroups)
	for _, r := range user.AllRoles {
		fmt.Fprintf(cli.out, "  %-14s %d\n", r.Label()+":", s.UsersByRole[r])
	}
	fmt.Fprintf(cli.out, "assignments: %d (%d active)\n", s.TotalAssignments, s.ActiveAssignments)
	fmt.Fprintf(cli.out, "submissions: %d (%d pending)\n", s.TotalSubmissions, s.PendingSubmissions)
	fmt.Fprintf(cli.out, "completion:  %.0f%%\n", s.CompletionRate*100)
	fmt.Fprintf(cli.out, "load:        %d%%\n", s.SystemLoad)
	fmt.Fprintf(cli.out, "courses:     %d (%d active)\n", s.TotalCourses, s.ActiveCourses)
	return nil
}
