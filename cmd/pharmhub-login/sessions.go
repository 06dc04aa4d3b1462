package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/seroft/pharmhub-auth/pkg/authsdk"
	"github.com/seroft/pharmhub-auth/pkg/httpx"
	"github.com/seroft/pharmhub-auth/pkg/sessionmonitor"
)

func (c *cli) sessions(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(c.errOut, "usage: pharmhub-login sessions list|mine|terminate|require-otp [flags]")
		return errUsage
	}

	fs := flag.NewFlagSet("sessions "+args[0], flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	token := fs.String("token", c.getenv("PHARMHUB_TOKEN"), "session token, admin for all but mine ($PHARMHUB_TOKEN)")

	var active, suspicious, user, from, to, current *string
	if args[0] == "mine" {
		user = fs.String("user", c.getenv("PHARMHUB_USER_ID"), "your user ID ($PHARMHUB_USER_ID)")
		current = fs.String("current", c.getenv("PHARMHUB_SESSION_ID"), "this device's session ID ($PHARMHUB_SESSION_ID)")
	}
	if args[0] == "list" {
		active = fs.String("active", "", "true or false")
		suspicious = fs.String("suspicious", "", "true or false")
		user = fs.String("user", "", "only this user's sessions")
		from = fs.String("from", "", "created at or after (RFC 3339)")
		to = fs.String("to", "", "created at or before (RFC 3339)")
		current = fs.String("current", "", "session ID to show apart from the others")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}
	if *token == "" {
		if args[0] == "mine" {
			return fmt.Errorf("a session token is required (-token or PHARMHUB_TOKEN)")
		}
		return fmt.Errorf("an admin token is required (-token or PHARMHUB_TOKEN)")
	}

	sdk := authsdk.NewSDKClient(c.server)
	mon := sessionmonitor.New(sdk.WithBearer(*token), c.log)

	switch args[0] {
	case "mine":
		devices, err := sessionmonitor.MySessions(ctx, sdk.WithBearer(*token), *user, *current)
		if err != nil {
			return explain(err)
		}
		c.printDevices(devices)
		return nil

	case "list":
		var f sessionmonitor.Filter
		var err error
		if f.Active, err = httpx.ParseOptionalBool(*active); err != nil {
			return fmt.Errorf("-active: %w", err)
		}
		if f.Suspicious, err = httpx.ParseOptionalBool(*suspicious); err != nil {
			return fmt.Errorf("-suspicious: %w", err)
		}
		f.UserID = *user
		if f.From, err = parseTime(*from); err != nil {
			return fmt.Errorf("-from: %w", err)
		}
		if f.To, err = parseTime(*to); err != nil {
			return fmt.Errorf("-to: %w", err)
		}

		list, err := mon.List(ctx, f)
		if err != nil {
			return explain(err)
		}
		c.printSessions(list, *current)
		return nil

	case "terminate":
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: pharmhub-login sessions terminate <session-id>")
		}
		if err := mon.Terminate(ctx, fs.Arg(0)); err != nil {
			return explain(err)
		}
		fmt.Fprintln(c.out, "Session terminated.")
		return nil

	case "require-otp":
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: pharmhub-login sessions require-otp <user-id>")
		}
		if err := mon.RequireOTP(ctx, fs.Arg(0)); err != nil {
			return explain(err)
		}
		fmt.Fprintln(c.out, "The user will be asked for a verification code at their next login.")
		return nil
	}

	fmt.Fprintf(c.errOut, "unknown sessions command %q\n", args[0])
	return errUsage
}

func (c *cli) printSessions(list []authsdk.Session, currentID string) {
	current, others := sessionmonitor.SplitCurrent(list, currentID)

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tUSER\tDEVICE\tIP\tACTIVE\tSUSPICIOUS\tLAST ACTIVE\t")
	row := func(s authsdk.Session, mark string) {
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%t\t%t\t%s\t\n",
			s.SessionID, mark, s.UserID, s.DeviceID, s.IPAddress,
			s.IsActive, s.IsSuspicious, s.LastActiveAt.Local().Format(time.DateTime))
	}
	if current != nil {
		row(*current, " (current)")
	}
	for _, s := range others {
		row(s, "")
	}
	_ = tw.Flush()

	if len(list) == 0 {
		fmt.Fprintln(c.out, "No sessions match.")
	}
}

func (c *cli) printDevices(d sessionmonitor.Devices) {
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tDEVICE\tIP\tSIGNED IN\tLAST ACTIVE\t")
	row := func(s authsdk.Session, mark string) {
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%s\t\n",
			s.SessionID, mark, s.DeviceID, s.IPAddress,
			s.CreatedAt.Local().Format(time.DateTime), s.LastActiveAt.Local().Format(time.DateTime))
	}
	if d.Current != nil {
		row(*d.Current, " (this device)")
	}
	for _, s := range d.Others {
		row(s, "")
	}
	_ = tw.Flush()

	if d.Current == nil && len(d.Others) == 0 {
		fmt.Fprintln(c.out, "No active sessions.")
	}
}

// explain turns a session-ended or scope error into the text a user should
// read. The original error stays reachable through errors.Is and As.
func explain(err error) error {
	if d, ok := sessionmonitor.SessionEnded(err); ok {
		return fmt.Errorf("%s [%s] %s: %w", d.Message, d.Code, d.Explanation, err)
	}
	if authsdk.HasCode(err, authsdk.ErrorCodeInsufficientScope) {
		return fmt.Errorf("this command needs an administrator's session token: %w", err)
	}
	return err
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
