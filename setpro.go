package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/msomdec/mtaabiz/internal/config"
	"github.com/msomdec/mtaabiz/internal/service"
)

// runSetPro flips a user's PRO flag from the command line:
//
//	mtaabiz set-pro -username alice [-value=false]
func runSetPro(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("set-pro", flag.ContinueOnError)
	fs.SetOutput(out)
	username := fs.String("username", "", "user to update (required)")
	value := fs.Bool("value", true, "PRO flag to set")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		fs.Usage()
		return errors.New("-username is required")
	}

	db, err := openDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	profiles := service.NewProfileService(db, service.NewEntitlementGate(cfg.FreeInvoiceLimit, nil))
	if _, err := profiles.SetProByUsername(ctx, *username, *value); err != nil {
		return fmt.Errorf("set pro for %s: %w", *username, err)
	}
	fmt.Fprintf(out, "%s: is_pro=%t\n", *username, *value)
	return nil
}
