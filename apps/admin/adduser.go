package main

import (
	"fmt"

	"github.com/trezcool/coursework/core/user"
)

func (cli *commandLine) addUser(nu user.NewUser) error {
	usr, err := cli.usrSvc.Create(nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %s %s (id %s)\n", usr.Role, usr.Login, usr.ID)
	return nil
}
