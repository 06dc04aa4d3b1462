// Command pharmhub-login is a terminal client for the PharmHub auth
// service. It logs in with the single-session protocol, manages this
// machine's device ID and gives administrators a view of sessions.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/seroft/pharmhub-auth/pkg/deviceid"
	"github.com/seroft/pharmhub-auth/pkg/slogx"
)

var version = "dev"

const (
	defaultServer = "http://localhost:8080"
	exitUsage     = 2
)

var errUsage = errors.New("usage")

// cli holds everything a subcommand touches, so tests can swap the
// terminal and the environment.
type cli struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	getenv func(string) string
	log    *slog.Logger

	server     string
	deviceFile string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := &cli{
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		errOut: os.Stderr,
		getenv: os.Getenv,
	}
	err := c.run(ctx, os.Args[1:])
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(exitUsage)
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (c *cli) usage() {
	fmt.Fprint(c.errOut, `usage: pharmhub-login [flags] <command> [args]

commands:
  login                      log in, answering step-up and device conflicts
  device                     show this machine's device ID and description
  reset-device               forget the device ID; the next login is a new device
  sessions list              list sessions (admin token)
  sessions mine              list your own active sessions (session token)
  sessions terminate <id>    end a session (admin token)
  sessions require-otp <id>  force step-up on a user's next login (admin token)

flags:
`)
}

func (c *cli) run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pharmhub-login", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	fs.Usage = func() {
		c.usage()
		fs.PrintDefaults()
	}

	server := fs.String("server", envOr(c.getenv, "PHARMHUB_SERVER", defaultServer), "auth service base URL ($PHARMHUB_SERVER)")
	deviceFile := fs.String("device-file", c.getenv("PHARMHUB_DEVICE_FILE"), "device ID file ($PHARMHUB_DEVICE_FILE)")
	logLevel := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	c.server = strings.TrimSuffix(*server, "/")
	c.deviceFile = *deviceFile
	if c.log == nil {
		c.log = slogx.New(slogx.Config{
			Service: "pharmhub-login",
			Version: version,
			Level:   *logLevel,
			Format:  "text",
			Output:  c.errOut,
		})
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errUsage
	}

	switch rest[0] {
	case "login":
		return c.login(ctx, rest[1:])
	case "device":
		return c.device(ctx)
	case "reset-device":
		return c.resetDevice(ctx)
	case "sessions":
		return c.sessions(ctx, rest[1:])
	case "version":
		fmt.Fprintln(c.out, version)
		return nil
	default:
		fmt.Fprintf(c.errOut, "unknown command %q\n", rest[0])
		fs.Usage()
		return errUsage
	}
}

func (c *cli) resolver() (*deviceid.Resolver, error) {
	path := c.deviceFile
	if path == "" {
		p, err := deviceid.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("locate device file: %w", err)
		}
		path = p
	}
	return deviceid.NewResolver(deviceid.NewFileStore(path), deviceid.WithLogger(c.log)), nil
}

// userAgent describes this client in device metadata.
func userAgent() string {
	return fmt.Sprintf("pharmhub-login/%s (%s; %s)", version, runtime.GOOS, runtime.GOARCH)
}

// prompt prints label and reads one line. EOF on an empty line is an error.
func (c *cli) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSpace(strings.TrimSuffix(label, ":")), err)
	}
	return strings.TrimSpace(line), nil
}

func envOr(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}
