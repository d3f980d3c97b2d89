package main

import (
	"github.com/trezcool/coursework/core/user"
)

// resetPassword sets a new password without asking for the current one.
func (cli *commandLine) resetPassword(uname, pwd string) error {
	usr, err := cli.usrSvc.FindByLoginOrEmail(uname)
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.Update(usr.ID, user.UpdateUser{Password: &pwd})
	return err
}
