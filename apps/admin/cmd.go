package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	echoapi "github.com/Maks0bs/mmLearnJS-backend-sub000/apps/api/echo"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/course"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sql.DB // postgres engine only
	usrSvc     *user.Service
	courseRepo course.Repository
	courseSvc  *course.Service
	auth       *echoapi.Auth
	waitBlobs  func() // waits for the scheduled blob deletions
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run the database migrations (postgres engine)")
	fmt.Fprintln(cli.out, "  adduser -name NAME [-email EMAIL] - create a user and print an API token")
	fmt.Fprintln(cli.out, "  coursepassword -id COURSE_ID [-remove] - set or remove the password of a course")
	fmt.Fprintln(cli.out, "  deletecourse -id COURSE_ID - delete a course with all its content")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email (optional).")

	coursePasswordCmd := flag.NewFlagSet("coursepassword", flag.ExitOnError)
	coursePasswordID := coursePasswordCmd.String("id", "", "The course ID. The password will be prompted next.")
	coursePasswordRemove := coursePasswordCmd.Bool("remove", false, "Remove the password instead of setting it.")

	deleteCourseCmd := flag.NewFlagSet("deletecourse", flag.ExitOnError)
	deleteCourseID := deleteCourseCmd.String("id", "", "The course ID.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserEmail)
	case "coursepassword":
		if err := coursePasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *coursePasswordID == "" {
			coursePasswordCmd.Usage()
			return errHelp
		}
		if *coursePasswordRemove {
			return cli.setCoursePassword(*coursePasswordID, "")
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			coursePasswordCmd.Usage()
			return errHelp
		}
		return cli.setCoursePassword(*coursePasswordID, string(pwd))
	case "deletecourse":
		if err := deleteCourseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *deleteCourseID == "" {
			deleteCourseCmd.Usage()
			return errHelp
		}
		return cli.deleteCourse(*deleteCourseID)
	default:
		cli.printUsage()
		return errHelp
	}
}
