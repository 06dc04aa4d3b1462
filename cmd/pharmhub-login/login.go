package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/seroft/pharmhub-auth/pkg/authsdk"
	"github.com/seroft/pharmhub-auth/pkg/loginflow"
)

// maxStepUpPrompts bounds how often a wrong code is re-prompted before the
// command gives up. The server replaces exhausted challenges on its own.
const maxStepUpPrompts = 5

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	email := fs.String("email", c.getenv("PHARMHUB_EMAIL"), "account email address ($PHARMHUB_EMAIL)")
	previous := fs.String("previous-session", "", "session ID this machine held before, retired instead of counted")
	timeout := fs.Duration("timeout", loginflow.DefaultTimeout, "per-request timeout (8s to 15s)")
	yes := fs.Bool("yes", false, "log out other devices without asking")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	resolver, err := c.resolver()
	if err != nil {
		return err
	}

	if *email == "" {
		if *email, err = c.prompt("Email: "); err != nil {
			return err
		}
	}
	password := c.getenv("PHARMHUB_PASSWORD")
	if password == "" {
		if password, err = c.prompt("Password: "); err != nil {
			return err
		}
	}

	sdk := authsdk.NewSDKClient(c.server, authsdk.WithTimeout(loginflow.ClampTimeout(*timeout)))
	flow := loginflow.New(sdk, resolver, loginflow.NewTerminationService(sdk, c.log),
		loginflow.WithTimeout(*timeout),
		loginflow.WithLogger(c.log),
		loginflow.WithUserAgent(userAgent()),
		loginflow.WithPreviousSession(*previous),
	)

	snap, err := flow.Submit(ctx, loginflow.Credentials{EmailAddress: *email, Password: password})
	var verr *loginflow.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("%s (%s)", verr.Details().Message, strings.Join(slices.Sorted(maps.Keys(verr.Fields)), ", "))
	}
	if err != nil {
		return err
	}

	stepUp := loginflow.NewStepUpVerifier(flow, loginflow.CodePrompterFunc(c.promptCode))
	prompts := 0
	for {
		switch snap.State {
		case loginflow.Success:
			c.printSuccess(snap)
			return nil

		case loginflow.Failed:
			return c.failure(snap)

		case loginflow.NeedsStepUp:
			if prompts == maxStepUpPrompts {
				_ = flow.Cancel()
				return errors.New("too many verification attempts")
			}
			prompts++
			snap, err = stepUp.Verify(ctx)
			if errors.As(err, &verr) {
				fmt.Fprintln(c.out, verr.Details().Message)
				continue
			}

		case loginflow.NeedsConflictResolution:
			if snap.Termination != nil && !snap.Termination.Success {
				fmt.Fprintln(c.out, snap.Termination.ErrorMessage)
			}
			ok, perr := c.confirmTerminate(snap, *yes)
			if perr != nil {
				return perr
			}
			if !ok {
				_ = flow.Cancel()
				fmt.Fprintln(c.out, "Login cancelled. Your other device stays logged in.")
				return nil
			}
			snap, err = flow.ConfirmTerminateOthers(ctx)
			if errors.Is(err, loginflow.ErrTerminationFailed) {
				if *yes {
					return err
				}
				continue
			}
			if err == nil && snap.Termination != nil {
				fmt.Fprintln(c.out, snap.Termination.Message)
			}

		default:
			return fmt.Errorf("unexpected login state %s", snap.State)
		}
		if err != nil {
			return err
		}
	}
}

func (c *cli) promptCode(_ context.Context, ch loginflow.Challenge) (string, error) {
	fmt.Fprintln(c.out, ch.Message)
	if ch.Explanation != "" {
		fmt.Fprintln(c.out, ch.Explanation)
	}
	return c.prompt("Verification code: ")
}

func (c *cli) confirmTerminate(snap loginflow.Snapshot, yes bool) (bool, error) {
	fmt.Fprintln(c.out, snap.Message)
	if snap.Explanation != "" {
		fmt.Fprintln(c.out, snap.Explanation)
	}
	if yes {
		return true, nil
	}
	answer, err := c.prompt("Log out other devices? [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (c *cli) printSuccess(snap loginflow.Snapshot) {
	fmt.Fprintln(c.out, snap.Message)
	fmt.Fprintf(c.out, "user:    %s\n", snap.UserID)
	fmt.Fprintf(c.out, "session: %s\n", snap.SessionID)
	fmt.Fprintf(c.out, "token:   %s\n", snap.Token)
}

func (c *cli) failure(snap loginflow.Snapshot) error {
	f := snap.Failure
	if f == nil {
		return errors.New("login failed")
	}
	msg := f.Details.Message
	if f.Details.Code != "" {
		msg = fmt.Sprintf("%s [%s]", msg, f.Details.Code)
	}
	if f.Details.Explanation != "" {
		msg += " " + f.Details.Explanation
	}
	c.log.Debug("login failure", "kind", f.Kind.String(), "err", f.Err)
	return errors.New(msg)
}
