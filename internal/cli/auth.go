package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fillipgms/admin-playfiver-sub001/internal/service"

	"github.com/spf13/cobra"
)

const maxCodeAttempts = 3

var errNotLoggedIn = errors.New("not logged in, run dashctl login")

func (a *App) loginCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the platform API",
		Long: `Sign in with email and password. Accounts without an authenticator are
shown the registration QR code URL and secret first; every account then
confirms with a six digit 2FA code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLogin(cmd, email)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address (prompted when empty)")
	return cmd
}

func (a *App) runLogin(cmd *cobra.Command, email string) error {
	ctx := cmd.Context()
	c := a.clients()
	printer := a.printer()

	var err error
	if strings.TrimSpace(email) == "" {
		if email, err = a.prompt("Email: "); err != nil {
			return err
		}
	}
	password, err := a.promptPassword("Password: ")
	if err != nil {
		return err
	}

	state, err := c.auth.SubmitCredentials(ctx, email, password, a.clientIP())
	attempts := 0
	for {
		if err != nil {
			if state.Step() != service.StepVerifyTwoFactor || attempts >= maxCodeAttempts {
				return loginFailure(err)
			}
			printer.Error("%s", loginMessage(err))
		}

		switch s := state.(type) {
		case service.DoneState:
			printer.Success("Logged in as %s", s.Session.Email)
			printer.Info("Session valid until %s", s.Session.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		case service.QRRegistrationState:
			fmt.Fprintln(a.Out, "Two-factor authentication is not set up for this account yet.")
			fmt.Fprintf(a.Out, "QR code: %s\n", s.Challenge.QRImageURL)
			if s.Challenge.Secret != "" {
				fmt.Fprintf(a.Out, "Secret:  %s\n", s.Challenge.Secret)
			}
			if _, err := a.prompt("Press Enter once the authenticator app shows a code..."); err != nil {
				return err
			}
			state, err = c.auth.ContinueToVerification(s), nil
		case service.VerifyTwoFactorState:
			code, promptErr := a.prompt("2FA code: ")
			if promptErr != nil {
				return promptErr
			}
			attempts++
			state, err = c.auth.VerifyTwoFactor(ctx, s, code, a.clientIP())
		default:
			return loginFailure(err)
		}
	}
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.clients()
			session, err := c.sessions.Current()
			if err != nil {
				return err
			}
			if session == nil {
				a.printer().Warning("Not logged in")
				return nil
			}
			if err := c.auth.Logout(cmd.Context(), session.ID, a.clientIP()); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			a.printer().Success("Logged out %s", session.Email)
			return nil
		},
	}
}

type statusView struct {
	Email     string    `json:"email" yaml:"email"`
	API       string    `json:"api" yaml:"api"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
	ExpiresIn string    `json:"expires_in" yaml:"expires_in"`
}

func (a *App) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.clients().sessions.Current()
			if err != nil {
				return err
			}
			if session == nil {
				fmt.Fprintln(a.Out, "Status: Not logged in")
				return nil
			}
			formatter, err := a.formatter()
			if err != nil {
				return err
			}
			return formatter.Format(statusView{
				Email:     session.Email,
				API:       a.config.GetString(keyAPIURL),
				ExpiresAt: session.ExpiresAt,
				ExpiresIn: session.TTL(time.Now()).Round(time.Second).String(),
			})
		},
	}
}

func loginMessage(err error) string {
	var validationErr *service.ValidationError
	var rejected *service.RejectedError
	switch {
	case errors.As(err, &validationErr):
		parts := make([]string, 0, len(validationErr.Fields))
		for field, message := range validationErr.Fields {
			parts = append(parts, field+" "+message)
		}
		sort.Strings(parts)
		return strings.Join(parts, "; ")
	case errors.As(err, &rejected) && len(rejected.Fields) > 0:
		parts := make([]string, 0, len(rejected.Fields))
		for _, message := range rejected.Fields {
			parts = append(parts, message)
		}
		sort.Strings(parts)
		return strings.Join(parts, "; ")
	case errors.As(err, &rejected) && rejected.Message != "":
		return rejected.Message
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return "the platform could not be reached, try again in a moment"
	}
	return err.Error()
}

func loginFailure(err error) error {
	if err == nil {
		return errors.New("login did not complete")
	}
	return fmt.Errorf("login failed: %s", loginMessage(err))
}
