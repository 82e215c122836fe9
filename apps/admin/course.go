package main

import (
	"context"
	"fmt"
	"time"
)

// setCoursePassword sets the enrollment password of a course; an empty password removes it.
func (cli *commandLine) setCoursePassword(courseID, pwd string) error {
	ctx := context.Background()
	c, err := cli.courseRepo.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if err = c.SetPassword(pwd); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()
	return cli.courseRepo.SaveCourse(ctx, c)
}

// deleteCourse deletes a course on behalf of its creator.
func (cli *commandLine) deleteCourse(courseID string) error {
	ctx := context.Background()
	c, err := cli.courseRepo.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	cascade, err := cli.courseSvc.Delete(ctx, c.ID, c.Creator)
	if err != nil {
		return err
	}
	if cli.waitBlobs != nil {
		cli.waitBlobs()
	}
	fmt.Fprintf(cli.out, "deleted course %q: %d entries, %d exercises, %d forums, %d files\n",
		c.Name, len(cascade.Entries), len(cascade.Exercises), len(cascade.Forums), len(cascade.Blobs))
	return nil
}
