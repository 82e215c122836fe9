package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	dig_container "github.com/Maks0bs/mmLearnJS-backend-sub000/apps/api/di/dig"
	echoapi "github.com/Maks0bs/mmLearnJS-backend-sub000/apps/api/echo"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/course"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core/user"
	blobsvc "github.com/Maks0bs/mmLearnJS-backend-sub000/services/blob"
)

func main() {
	c := dig_container.New()

	var code int
	err := c.Invoke(func(
		conf *core.Config,
		logger core.Logger,
		db *sql.DB,
		closeDB dig_container.Closer,
		usrSvc *user.Service,
		courseRepo course.Repository,
		courseSvc *course.Service,
		cleaner *blobsvc.Cleaner,
		auth *echoapi.Auth,
	) {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()
			if err := closeDB(ctx); err != nil {
				logger.Error("Failed to close", err)
			}
		}()

		// start CLI
		cli := commandLine{
			db:         db,
			usrSvc:     usrSvc,
			courseRepo: courseRepo,
			courseSvc:  courseSvc,
			auth:       auth,
			waitBlobs:  cleaner.Wait,
			out:        os.Stdout,
		}
		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				logger.Error("admin command failed", err)
			}
			code = 1
		}
	})
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}
