package main

import (
	"context"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword      // mockable
	migrateFunc      = database.RunMigrations // mockable

	errHelp             = errors.New("help provided")
	errPasswordMismatch = errors.New("passwords do not match")
)

type commandLine struct {
	db         *sqlx.DB
	conf       *core.Config
	accountSvc *account.Service
	out        io.Writer
}

// run executes the command line; args exclude the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	return root.Execute()
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         cli.conf.AppName + " administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	root.AddCommand(cli.migrateCmd(), cli.addUserCmd(), cli.resetPasswordCmd())
	return root
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a migration command: up, up-by-one, up-to, down, down-to, redo, reset, status, version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			return migrateFunc(cli.db.DB, cli.conf.Database.Engine, args[0], args[1:]...)
		},
	}
}

// ensureSchema brings the schema up to date before commands touching accounts.
func (cli *commandLine) ensureSchema(*cobra.Command, []string) error {
	return errors.Wrap(migrateFunc(cli.db.DB, cli.conf.Database.Engine, "up"), "migrating database")
}

func (cli *commandLine) addUserCmd() *cobra.Command {
	var name, uname, email string

	cmd := &cobra.Command{
		Use:     "adduser",
		Short:   "Create an admin account. The password is prompted next.",
		PreRunE: cli.ensureSchema,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if uname == "" || email == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd, "Enter password:")
			if err != nil {
				return err
			}
			confirm, err := cli.promptPassword(cmd, "Confirm password:")
			if err != nil {
				return err
			}
			if pwd != confirm {
				return errPasswordMismatch
			}
			if name == "" {
				name = uname
			}

			acc, err := cli.accountSvc.RegisterAdmin(context.Background(), account.NewAccount{
				Name:            name,
				Username:        uname,
				Email:           email,
				Password:        pwd,
				PasswordConfirm: confirm,
			})
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %q created (id=%d)\n", acc.Username, acc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "The admin's full name. Defaults to the username.")
	cmd.Flags().StringVar(&uname, "username", "", "The admin's username.")
	cmd.Flags().StringVar(&email, "email", "", "The admin's email.")
	return cmd
}

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var uname string

	cmd := &cobra.Command{
		Use:     "resetpassword",
		Short:   "Reset an account's password. The password is prompted next.",
		PreRunE: cli.ensureSchema,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if uname == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd, "Enter password:")
			if err != nil {
				return err
			}
			return cli.accountSvc.SetPassword(context.Background(), uname, pwd)
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "The account's username or email.")
	return cmd
}

func (cli *commandLine) promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		_ = cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

// describe flattens field errors so they read well on a terminal.
func describe(err error) error {
	var vErr *core.ValidationError
	if errors.As(err, &vErr) && len(vErr.Fields) > 0 {
		msg := ""
		for i, f := range vErr.Fields {
			if i > 0 {
				msg += "; "
			}
			msg += f.Field + ": " + f.Error
		}
		return errors.New(msg)
	}
	return err
}
