package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/lborres/abaccess/client"
	"github.com/lborres/abaccess/core"
)

// userError replaces errors the user cannot act on with the fixed
// connection message.
func (e *env) userError(err error) error {
	switch {
	case core.IsInfrastructure(err):
		e.logger.Debug("request failed", slog.String("error", err.Error()))
		return errors.New(core.UnavailableMessage)
	case errors.Is(err, core.ErrInvalidPhoneFormat):
		return errors.New(core.OutcomeInvalidPhone.Message())
	default:
		return err
	}
}

type statusView struct {
	State             string        `json:"state"`
	Phone             string        `json:"phone,omitempty"`
	Carrier           string        `json:"carrier,omitempty"`
	AttemptsRemaining int           `json:"attemptsRemaining"`
	Account           *core.Account `json:"account,omitempty"`
	ExpiresAt         *time.Time    `json:"expiresAt,omitempty"`
}

func viewOf(snap client.Snapshot) statusView {
	v := statusView{
		State:             snap.State.String(),
		Phone:             snap.Phone,
		AttemptsRemaining: snap.AttemptsRemaining,
		Account:           snap.Account,
	}
	if carrier, err := core.CarrierOf(snap.Phone); err == nil {
		v.Carrier = string(carrier)
	}
	if snap.Session != nil && !snap.Session.ExpiresAt.IsZero() {
		t := snap.Session.ExpiresAt
		v.ExpiresAt = &t
	}
	return v
}

func newSignInCmd(e *env) *cobra.Command {
	var phone, pin string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with phone number and PIN",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := e.output(cmd)
			flow, _ := e.flow()

			number, err := e.prompt.valueOr(phone, "Phone number: ")
			if err != nil {
				return err
			}

			exists, err := flow.EnterPhone(ctx, number)
			if err != nil {
				return e.userError(err)
			}
			if !exists {
				return fmt.Errorf("%s. Run \"abaccess register\" to create one", core.OutcomeAccountNotFound.Message())
			}

			for {
				entered := pin
				if entered == "" {
					if entered, err = e.prompt.secret("PIN: "); err != nil {
						return err
					}
				}

				result, snap, err := flow.EnterPin(ctx, entered)
				if errors.Is(err, core.ErrInvalidPinFormat) && pin == "" {
					out.Say("%s.", core.OutcomeInvalidPin.Message())
					continue
				}
				if err != nil {
					return e.userError(err)
				}
				if result.OK() {
					out.Print(fmt.Sprintf("Signed in as %s (%s)", result.Account.FullName(), result.Account.MemberID), viewOf(snap))
					return nil
				}
				if snap.Locked() {
					return fmt.Errorf("%s. Run \"abaccess signin\" again to retry", client.ErrLocked)
				}

				if result.Outcome == core.OutcomeWrongPin {
					out.Say("%s. %d attempt(s) left.", result.Outcome.Message(), snap.AttemptsRemaining)
				} else {
					out.Say("%s.", result.Outcome.Message())
				}
				if pin != "" {
					return result.Outcome.Err()
				}
			}
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Phone number (prompted when omitted)")
	cmd.Flags().StringVar(&pin, "pin", "", "PIN, for scripts (prompted without echo when omitted)")

	return cmd
}

func newRegisterCmd(e *env) *cobra.Command {
	var (
		input    core.RegisterInput
		fullName string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := e.output(cmd)
			flow, _ := e.flow()

			var err error
			if input.Phone, err = e.prompt.valueOr(input.Phone, "Phone number: "); err != nil {
				return err
			}
			if input.FirstName == "" && input.LastName == "" {
				name, err := e.prompt.valueOr(fullName, "Full name: ")
				if err != nil {
					return err
				}
				input.FirstName, input.LastName = core.SplitFullName(name)
			}
			if input.NIN, err = e.prompt.valueOr(input.NIN, "National ID (NIN): "); err != nil {
				return err
			}
			if input.Pin == "" {
				if input.Pin, err = e.prompt.secret("Choose a 4-digit PIN: "); err != nil {
					return err
				}
				confirm, err := e.prompt.secret("Confirm PIN: ")
				if err != nil {
					return err
				}
				if confirm != input.Pin {
					return errors.New("PINs do not match")
				}
			}

			result, err := flow.Register(ctx, input)
			if err != nil {
				return e.userError(err)
			}
			if !result.OK() {
				return errors.New(result.Outcome.Message())
			}

			out.Print(fmt.Sprintf("Welcome, %s! Your member ID is %s", result.Account.FirstName, result.Account.MemberID),
				viewOf(flow.Store().Snapshot()))
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&fullName, "name", "", "Full name, split into first and last name")
	cmd.Flags().StringVar(&input.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&input.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&input.NIN, "nin", "", "National ID number")
	cmd.Flags().StringVar(&input.Pin, "pin", "", "PIN, for scripts (prompted without echo when omitted)")

	return cmd
}

func newSignOutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, _ := e.flow()
			flow.SignOut(cmd.Context())
			e.output(cmd).Print("Signed out", viewOf(flow.Store().Snapshot()))
			return nil
		},
	}
}

func newStatusCmd(e *env) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, auth := e.flow()
			store := flow.Store()
			out := e.output(cmd)

			live := e.guard().Authenticated(store)

			if live && remote {
				data, err := auth.Session(cmd.Context(), store.Token())
				if err != nil {
					if core.IsInfrastructure(err) {
						return e.userError(err)
					}
					e.logger.Debug("server rejected saved session", slog.String("error", err.Error()))
					store.ClearSession()
				} else if data.Account != nil {
					// pick up profile changes made elsewhere
					store.UpdateAccount(func(a *core.Account) { *a = *data.Account })
				}
			}

			snap := store.Snapshot()
			view := viewOf(snap)
			if !snap.IsAuthenticated() {
				out.Print("Signed out", view)
				return nil
			}
			out.Print(fmt.Sprintf("Signed in as %s (%s), phone %s (%s), session expires %s",
				snap.Account.FullName(), snap.Account.MemberID, snap.Account.Phone, view.Carrier,
				snap.Session.ExpiresAt.Local().Format(time.RFC1123)), view)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Check the session with the server")

	return cmd
}

func newRouteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "route <path>",
		Short: "Show how the route guard judges a path for the saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, _ := e.flow()
			g := e.guard()

			p := args[0]
			decision := g.Evaluate(p, flow.Store())

			view := struct {
				Path     string `json:"path"`
				Class    string `json:"class"`
				Allowed  bool   `json:"allowed"`
				Redirect string `json:"redirect,omitempty"`
			}{p, g.Rules().Classify(p).String(), decision.Allowed(), decision.Redirect}

			if decision.Allowed() {
				e.output(cmd).Print(fmt.Sprintf("%s (%s): allowed", p, view.Class), view)
			} else {
				e.output(cmd).Print(fmt.Sprintf("%s (%s): redirect to %s", p, view.Class, decision.Redirect), view)
			}
			return nil
		},
	}
}
