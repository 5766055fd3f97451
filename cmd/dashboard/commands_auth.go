package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vigility/dashboard/internal/domain/entities"
)

func buildLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and restore your saved filters",
		Example: `  dashboard login --email ada@example.com
  DASHBOARD_PASSWORD=secret dashboard login --email ada@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("DASHBOARD_PASSWORD")
			}
			if password == "" {
				password = promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password")
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				user, err := a.auth.SignIn(ctx, email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", user.Username, user.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func buildRegisterCmd(opts *rootOptions) *cobra.Command {
	var reg entities.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Example: `  dashboard register --email ada@example.com --username ada --age 36 --gender female`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if reg.Password == "" {
				reg.Password = promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password")
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				user, err := a.auth.SignUp(ctx, reg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Account created, signed in as %s\n", user.Username)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&reg.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&reg.Password, "password", "p", "", "Password, at least 6 characters (prompted when omitted)")
	cmd.Flags().StringVarP(&reg.Username, "username", "u", "", "Display name, 3 to 50 characters")
	cmd.Flags().IntVar(&reg.Age, "age", 0, "Age in years")
	cmd.Flags().StringVar(&reg.Gender, "gender", "", "Male, Female or Other")
	for _, name := range []string{"email", "username", "age", "gender"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func buildLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out; saved filters are kept for the next sign-in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.auth.SignOut(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func buildWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				user := a.session.User()
				if user == nil {
					return errNotSignedIn
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s <%s>\n", user.Username, user.Email)
				if exp := a.session.ExpiresAt(); !exp.IsZero() {
					fmt.Fprintf(out, "Session valid until %s\n", exp.Local().Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}
}

func buildForgotPasswordCmd(opts *rootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Email a password reset link",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.auth.ForgotPassword(ctx, email); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "If the account exists, a reset link is on its way")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func buildResetPasswordCmd(opts *rootOptions) *cobra.Command {
	var token, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with the token from the reset link",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), "New password")
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.auth.ResetPassword(ctx, token, password); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Password updated, sign in with the new password")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token from the reset link")
	cmd.Flags().StringVarP(&password, "password", "p", "", "New password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

// promptPassword reads a password without echo when in is a terminal
func promptPassword(in io.Reader, out io.Writer, label string) string {
	fmt.Fprintf(out, "%s: ", label)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		text, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err == nil {
			return strings.TrimSpace(string(text))
		}
	}
	text, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && text == "" {
		return ""
	}
	return strings.TrimSpace(text)
}
