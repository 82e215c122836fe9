package main

import (
	"context"
	"fmt"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/user"
)

// addUser creates a user.User and prints a token to call the API as them.
func (cli *commandLine) addUser(name, email string) error {
	usr, err := cli.usrSvc.Create(context.Background(), user.NewUser{Name: name, Email: email})
	if err != nil {
		return err
	}
	token, err := cli.auth.UserToken(usr)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user: %s\ntoken: %s\n", usr.ID, token)
	return nil
}
