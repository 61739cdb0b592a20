package main

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/nyumba/core/admin"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp          = errors.New("help provided")
	errEmptyPassword = errors.New("password cannot be empty")
)

type commandLine struct {
	db        *sqlx.DB
	adminRepo admin.Repository
	out       io.Writer
}

// rootCmd builds the command tree. A new tree is built on every run so that flag values never leak between runs.
func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Back office administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	createAdmin := &cobra.Command{
		Use:   "createadmin",
		Short: "Create or update an approved admin (the password is prompted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			super, _ := cmd.Flags().GetBool("superadmin")
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			adm, err := cli.createAdmin(cmd.Context(), name, email, pwd, super)
			if err != nil {
				return err
			}
			cmd.Printf("admin %s saved\n", adm.Email)
			return nil
		},
	}
	createAdmin.Flags().String("email", "", "the admin's email")
	createAdmin.Flags().String("name", "", "the admin's name (defaults to the email)")
	createAdmin.Flags().Bool("superadmin", false, "grant superadmin rights")
	_ = createAdmin.MarkFlagRequired("email")

	resetPassword := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset an admin's password (the password is prompted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			return cli.resetPassword(cmd.Context(), email, pwd)
		},
	}
	resetPassword.Flags().String("email", "", "the admin's email")
	_ = resetPassword.MarkFlagRequired("email")

	approve := &cobra.Command{
		Use:   "approve",
		Short: "Approve a pending admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			return cli.approve(cmd.Context(), email)
		},
	}
	approve.Flags().String("email", "", "the admin's email")
	_ = approve.MarkFlagRequired("email")

	migrate := &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose migration command (up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return errHelp
			}
			return cli.migrate(cmd.Context(), args)
		},
	}

	root.AddCommand(createAdmin, resetPassword, approve, migrate)
	return root
}

func (cli *commandLine) promptPassword() (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errEmptyPassword
	}
	return string(pwd), nil
}

// run executes the command line args, without the program name.
func (cli *commandLine) run(args []string) error {
	if args == nil {
		args = []string{} // cobra falls back to os.Args on nil
	}
	root := cli.rootCmd()
	root.SetArgs(args)
	return root.Execute()
}
