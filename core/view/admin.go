package view

import (
	"math"
	"strings"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
)

type AdminStats struct {
	TotalUsers  int               `json:"totalUsers"`
	ActiveUsers int               `json:"activeUsers"`
	UsersByRole map[user.Role]int `json:"usersByRole"`
	TotalGroups int               `json:"totalGroups"`

	TotalAssignments  int `json:"totalAssignments"`
	ActiveAssignments int `json:"activeAssignments"`

	TotalSubmissions    int                       `json:"totalSubmissions"`
	SubmissionsByStatus map[submission.Status]int `json:"submissionsByStatus"`
	PendingSubmissions  int                       `json:"pendingSubmissions"`
	// CompletionRate is (graded + returned) / total, 0 without submissions.
	CompletionRate float64 `json:"completionRate"`
	// SystemLoad is the share of submissions awaiting review, in percent.
	SystemLoad int `json:"systemLoad"`

	TotalCourses  int `json:"totalCourses"`
	ActiveCourses int `json:"activeCourses"`
}

type AdminAssignment struct {
	Assignment assignment.Assignment `json:"assignment"`
	Teacher    string                `json:"teacher"`
}

type AdminSubmission struct {
	Submission      submission.Submission `json:"submission"`
	AssignmentTitle string                `json:"assignmentTitle"`
	StudentName     string                `json:"studentName"`
}

type AdminView struct {
	Users       []user.User       `json:"users"`
	Assignments []AdminAssignment `json:"assignments"`
	Submissions []AdminSubmission `json:"submissions"`
	Courses     []course.Course   `json:"courses"`
	Stats       AdminStats        `json:"stats"`
}

// ProjectAdmin is the unrestricted view of every collection plus aggregate statistics.
// Users are sanitized; course assignment counts are recomputed from the assignments.
func ProjectAdmin(users []user.User, assignments []assignment.Assignment, subs []submission.Submission, courses []course.Course) AdminView {
	dir := newDirectory(users)
	av := AdminView{
		Users:       make([]user.User, 0, len(users)),
		Assignments: make([]AdminAssignment, 0, len(assignments)),
		Submissions: make([]AdminSubmission, 0, len(subs)),
		Courses:     make([]course.Course, 0, len(courses)),
		Stats:       CalculateStats(users, assignments, subs, courses),
	}

	for _, u := range users {
		av.Users = append(av.Users, u.Sanitize())
	}

	titles := make(map[core.ID]string, len(assignments))
	for _, a := range assignments {
		titles[a.ID] = a.Title
		a.SubmissionsCount, a.PendingCount = submission.Counters(subs, a.ID)
		av.Assignments = append(av.Assignments, AdminAssignment{Assignment: a, Teacher: dir.teacherName(a)})
	}

	for _, s := range subs {
		title, ok := titles[s.AssignmentID]
		if !ok || title == "" {
			title = Unknown
		}
		av.Submissions = append(av.Submissions, AdminSubmission{
			Submission:      s,
			AssignmentTitle: title,
			StudentName:     dir.studentName(s.StudentID, s.StudentName),
		})
	}

	for _, c := range courses {
		c.AssignmentsCount = 0
		for _, a := range assignments {
			if name := core.CleanString(a.Course); name != "" && strings.EqualFold(name, core.CleanString(c.Name)) {
				c.AssignmentsCount++
			}
		}
		av.Courses = append(av.Courses, c)
	}
	return av
}

func CalculateStats(users []user.User, assignments []assignment.Assignment, subs []submission.Submission, courses []course.Course) AdminStats {
	stats := AdminStats{
		TotalUsers:          len(users),
		UsersByRole:         make(map[user.Role]int, len(user.AllRoles)),
		TotalAssignments:    len(assignments),
		TotalSubmissions:    len(subs),
		SubmissionsByStatus: make(map[submission.Status]int, 3),
		TotalCourses:        len(courses),
	}

	groups := make(map[string]bool)
	for _, u := range users {
		stats.UsersByRole[u.Role]++
		if u.IsActive {
			stats.ActiveUsers++
		}
		if g := core.NormalizeGroup(u.Group); g != "" {
			groups[g] = true
		}
	}
	stats.TotalGroups = len(groups)

	for _, a := range assignments {
		if a.Status == assignment.StatusActive {
			stats.ActiveAssignments++
		}
	}

	for _, s := range subs {
		stats.SubmissionsByStatus[s.Status]++
	}
	stats.PendingSubmissions = stats.SubmissionsByStatus[submission.StatusSubmitted]
	if stats.TotalSubmissions > 0 {
		done := stats.SubmissionsByStatus[submission.StatusGraded] + stats.SubmissionsByStatus[submission.StatusReturned]
		stats.CompletionRate = float64(done) / float64(stats.TotalSubmissions)
	}
	denom := stats.TotalSubmissions
	if denom < 1 {
		denom = 1
	}
	stats.SystemLoad = int(math.Min(100, math.Round(float64(stats.PendingSubmissions)/float64(denom)*100)))

	for _, c := range courses {
		if c.Status == course.StatusActive {
			stats.ActiveCourses++
		}
	}
	return stats
}
