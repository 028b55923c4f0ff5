package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/capitalhub-dev/capitalhub/internal/cli/auth"
	"github.com/capitalhub-dev/capitalhub/internal/cli/guard"
	"github.com/capitalhub-dev/capitalhub/internal/cli/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd(a *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to CapitalHub",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Init(); err != nil {
				return err
			}

			// Check for environment variables (useful for CI/CD)
			if email == "" {
				email = a.cfg.Credentials.Email
			}
			if password == "" {
				password = a.cfg.Credentials.Password
			}

			var err error
			if email == "" {
				if email, err = a.prompter.Input("Email", ""); err != nil {
					return fmt.Errorf("email is required (use --email flag or CAPITALHUB_EMAIL env var): %w", err)
				}
			}
			if password == "" {
				if password, err = a.prompter.Password("Password"); err != nil {
					return fmt.Errorf("password is required (use --password flag or CAPITALHUB_PASSWORD env var): %w", err)
				}
			}

			resp, err := a.auth.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			role := session.Role(resp.Role)
			a.printf("Logged in as %s (%s)\n", resp.Email, role)
			if next := guard.CommandFor(guard.LandingPage(role)); next != "" {
				a.printf("\nNext: capitalhub %s\n", next)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set CAPITALHUB_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set CAPITALHUB_PASSWORD, will prompt if not provided)")

	return cmd
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(a *App) *cobra.Command {
	var roleFlag string
	var input auth.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a sales rep or company account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Init(); err != nil {
				return err
			}

			role, err := registrationRole(a, roleFlag)
			if err != nil {
				return err
			}

			if err := promptMissing(a, &input); err != nil {
				return err
			}

			register := a.auth.RegisterRep
			if role == session.RoleCompany {
				register = a.auth.RegisterCompany
			}

			resp, err := register(cmd.Context(), input)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}

			a.printf("Account created for %s (%s)\n", resp.Email, resp.Role)
			if next := guard.CommandFor(guard.LandingPage(session.Role(resp.Role))); next != "" {
				a.printf("\nNext: capitalhub %s\n", next)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&roleFlag, "role", "", "Account type: rep or company (will prompt if not provided)")
	cmd.Flags().StringVar(&input.FirstName, "first-name", "", "First name (contact person for companies)")
	cmd.Flags().StringVar(&input.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&input.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&input.Password, "password", "", "Password, at least 6 characters (will prompt if not provided)")

	return cmd
}

func registrationRole(a *App, flag string) (session.Role, error) {
	choices := []session.Role{session.RoleRep, session.RoleCompany}

	if flag == "" {
		return a.prompter.SelectRole("Account type", choices)
	}

	switch flag {
	case "rep", "REP":
		return session.RoleRep, nil
	case "company", "COMPANY":
		return session.RoleCompany, nil
	default:
		return "", fmt.Errorf("invalid role %q, must be rep or company", flag)
	}
}

func promptMissing(a *App, input *auth.RegisterInput) error {
	var err error
	if input.FirstName == "" {
		if input.FirstName, err = a.prompter.Input("First name", ""); err != nil {
			return err
		}
	}
	if input.LastName == "" {
		if input.LastName, err = a.prompter.Input("Last name", ""); err != nil {
			return err
		}
	}
	if input.Email == "" {
		if input.Email, err = a.prompter.Input("Email", ""); err != nil {
			return err
		}
	}
	if input.Password == "" {
		if input.Password, err = a.prompter.Password("Password"); err != nil {
			return err
		}
		if input.ConfirmPassword, err = a.prompter.Password("Confirm password"); err != nil {
			return err
		}
	} else if input.ConfirmPassword == "" {
		// Given on the command line, there is nothing to mistype.
		input.ConfirmPassword = input.Password
	}
	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Init(); err != nil {
				return err
			}
			if err := a.auth.Logout(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			a.printf("Logged out\n")
			return nil
		},
	}
}

// whoami is the structured form of the whoami output
type whoami struct {
	State     string     `json:"state"`
	Email     string     `json:"email,omitempty"`
	Role      string     `json:"role,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	API       string     `json:"api"`
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Init(); err != nil {
				return err
			}

			snap := a.auth.Snapshot()
			info := whoami{State: snap.State.String(), API: a.api.BaseURL()}
			if snap.Authenticated() {
				info.Email = snap.Identity.Email
				info.Role = snap.Identity.Role.String()
				if sess, ok := a.store.Load(); ok {
					if exp, ok := sess.ExpiresAt(); ok {
						info.ExpiresAt = &exp
					}
				}
			}

			return a.render(info, func(w io.Writer) {
				if !snap.Authenticated() {
					fmt.Fprintln(w, "Not logged in. Run: capitalhub login")
					return
				}
				fmt.Fprintf(w, "Email:\t%s\n", info.Email)
				fmt.Fprintf(w, "Role:\t%s\n", info.Role)
				if info.ExpiresAt != nil {
					fmt.Fprintf(w, "Expires:\t%s\n", info.ExpiresAt.Local().Format(time.RFC1123))
				}
				fmt.Fprintf(w, "API:\t%s\n", orDash(info.API))
			})
		},
	}
}

// NewForgotPasswordCmd creates the forgot-password command
func NewForgotPasswordCmd(a *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Email a password reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Init(); err != nil {
				return err
			}

			var err error
			if email == "" {
				email = a.cfg.Credentials.Email
			}
			if email == "" {
				if email, err = a.prompter.Input("Email", ""); err != nil {
					return err
				}
			}

			resp, err := a.auth.ForgotPassword(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("failed to request password reset: %w", err)
			}
			a.printf("%s\n", orDash(resp.Message))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address of the account")

	return cmd
}

// NewResetPasswordCmd creates the reset-password command
func NewResetPasswordCmd(a *App) *cobra.Command {
	var input auth.ResetPasswordInput

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Choose a new password with the token from a reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Init(); err != nil {
				return err
			}

			check, err := a.auth.ValidateResetToken(cmd.Context(), input.Token)
			if err != nil {
				return fmt.Errorf("failed to check reset token: %w", err)
			}
			if !check.Success {
				return errors.New("the reset link is invalid or has expired, request a new one with `capitalhub forgot-password`")
			}

			if input.NewPassword == "" {
				if input.NewPassword, err = a.prompter.Password("New password"); err != nil {
					return err
				}
				if input.ConfirmPassword, err = a.prompter.Password("Confirm password"); err != nil {
					return err
				}
			} else if input.ConfirmPassword == "" {
				input.ConfirmPassword = input.NewPassword
			}

			resp, err := a.auth.ResetPassword(cmd.Context(), input)
			if err != nil {
				return fmt.Errorf("failed to reset password: %w", err)
			}
			a.printf("%s\n", orDash(resp.Message))
			a.printf("\nLog in with: capitalhub login\n")
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Token, "token", "", "Token from the reset email")
	cmd.Flags().StringVar(&input.NewPassword, "password", "", "New password (will prompt if not provided)")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}
