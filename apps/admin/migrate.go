package main

import (
	"context"
	"fmt"

	"github.com/eduquest/academy/storage/database"
	inmemdb "github.com/eduquest/academy/storage/database/inmem"
)

var migrateFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	return migrateFunc(context.Background(), cli.db, args[0], args[1:]...)
}

// seed loads the sample accounts; it fails on the first username that already exists.
func (cli *commandLine) seed() error {
	if err := inmemdb.Seed(context.Background(), cli.repo); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "sample accounts loaded")
	return nil
}
