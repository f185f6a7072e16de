package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/zobayer1/bankzest/internal/form"
	"github.com/zobayer1/bankzest/internal/schema"
	"github.com/zobayer1/bankzest/internal/services"
	"github.com/zobayer1/bankzest/pkg/db"
)

var errInvalid = errors.New("form is invalid")

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.WarnLevel)

	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.WithError(err).Error("authctl failed")
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	dbFlag := &cli.StringFlag{Name: "db", Value: "bankzest.db", Usage: "SQLite database path", Sources: cli.EnvVars("SQLITE_DB")}

	return &cli.Command{
		Name:      "authctl",
		Usage:     "operate the BankZest authentication form from the command line",
		Writer:    out,
		ErrWriter: out,
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "check field=value pairs against the form rules",
				ArgsUsage: "field=value ...",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "mode", Value: "sign-up"}},
				Action: func(_ context.Context, cmd *cli.Command) error {
					mode, err := schema.ParseMode(cmd.String("mode"))
					if err != nil {
						return err
					}
					values, err := parseAssignments(cmd.Args().Slice())
					if err != nil {
						return err
					}
					return printErrors(out, schema.Build(mode).Validate(values))
				},
			},
			{
				Name:      "check-email",
				Usage:     "report whether an account exists for an email",
				ArgsUsage: "email",
				Flags:     []cli.Flag{dbFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one email, got %d", cmd.Args().Len())
					}
					return withService(cmd.String("db"), func(svc *services.IdentityService) error {
						exists, err := svc.CheckEmailExists(ctx, cmd.Args().First())
						if err != nil {
							return err
						}
						_, err = fmt.Fprintln(out, exists)
						return err
					})
				},
			},
			{
				Name:      "submit",
				Usage:     "run a sign-in or sign-up submission through the form pipeline",
				ArgsUsage: "field=value ...",
				Flags:     []cli.Flag{dbFlag, &cli.StringFlag{Name: "mode", Value: "sign-in"}},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					mode, err := schema.ParseMode(cmd.String("mode"))
					if err != nil {
						return err
					}
					values, err := parseAssignments(cmd.Args().Slice())
					if err != nil {
						return err
					}
					return withService(cmd.String("db"), func(svc *services.IdentityService) error {
						return submit(ctx, out, form.NewController(mode, svc), values)
					})
				},
			},
		},
	}
}

func withService(path string, fn func(*services.IdentityService) error) error {
	conn, err := db.Open(path)
	if err != nil {
		return err
	}
	defer func(DB *sql.DB) {
		if closeErr := DB.Close(); closeErr != nil {
			log.WithError(closeErr).Error("Failed to close database connection")
		}
	}(conn)
	return fn(services.NewIdentityService(conn))
}

func submit(ctx context.Context, out io.Writer, ctrl *form.Controller, values schema.Values) error {
	for name, value := range values {
		if err := ctrl.SetField(name, value); err != nil {
			return err
		}
	}

	res := ctrl.Submit(ctx)
	snap := ctrl.Snapshot()
	switch res.Outcome {
	case form.OutcomeInvalid:
		return printErrors(out, snap.Errors)
	case form.OutcomeFailed:
		return errors.New(snap.Message())
	case form.OutcomeLinking:
		_, err := fmt.Fprintf(out, "registered %s; account linking required\n", res.Identity.ID)
		return err
	case form.OutcomeNavigate:
		_, err := fmt.Fprintf(out, "signed in %s\n", res.Identity.ID)
		return err
	default:
		return fmt.Errorf("submission %s", res.Outcome)
	}
}

// parseAssignments turns "field=value" arguments into form values.
func parseAssignments(args []string) (schema.Values, error) {
	values := make(schema.Values, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("argument %q is not field=value", arg)
		}
		if !schema.IsField(name) {
			return nil, fmt.Errorf("%w: %q", form.ErrUnknownField, name)
		}
		values[name] = value
	}
	return values, nil
}

func printErrors(out io.Writer, errs schema.FieldErrors) error {
	if len(errs) == 0 {
		_, err := fmt.Fprintln(out, "ok")
		return err
	}
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(out, "%s: %s\n", name, errs[name]); err != nil {
			return err
		}
	}
	return errInvalid
}
