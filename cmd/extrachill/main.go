package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/eshaffer321/extrachill-go/pkg/extrachill"
	"github.com/eshaffer321/extrachill-go/pkg/extrachill/identity"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds the CLI configuration
type Config struct {
	BaseURL     string
	SessionFile string
	LogLevel    string
	SentryDSN   string

	// VerifyGoogle checks Google ID tokens against tokeninfo before sign-in
	VerifyGoogle bool
	// GoogleAPIEndpoint overrides the Google API base URL
	GoogleAPIEndpoint string
}

const usage = `usage: extrachill [flags] <command> [args]

commands:
  login <identifier> [password]   sign in (password falls back to EXTRACHILL_PASSWORD)
  google <id-token>               sign in with a Google ID token (-verify-google checks it first)
  logout                          revoke this device's session and forget it
  whoami                          show the stored session without calling the server
  me                              show the signed-in profile
  activity [cursor] [limit]       show a page of the activity feed
  handoff <redirect-url>          print a one-time browser sign-in URL
  onboarding                      show onboarding status

flags:
`

func main() {
	_ = godotenv.Load()

	config, args := parseFlags(os.Args[1:])
	logger := newLogger(config.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, config, args, logger, os.Stdout); err != nil {
		if errors.Is(err, extrachill.ErrSessionMissing) {
			fmt.Fprintln(os.Stderr, "Not signed in. Run: extrachill login <identifier>")
		} else if errors.Is(err, extrachill.ErrSessionExpired) {
			fmt.Fprintln(os.Stderr, "Your session expired. Please sign in again.")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func parseFlags(argv []string) (*Config, []string) {
	config := &Config{}

	fs := flag.NewFlagSet("extrachill", flag.ExitOnError)
	fs.StringVar(&config.BaseURL, "base-url", envOrDefault("EXTRACHILL_BASE_URL", extrachill.DefaultBaseURL), "API base URL")
	fs.StringVar(&config.SessionFile, "session", envOrDefault("EXTRACHILL_SESSION_FILE", defaultSessionFile()), "Session file path")
	fs.StringVar(&config.LogLevel, "log-level", envOrDefault("EXTRACHILL_LOG_LEVEL", "warn"), "Log level (debug, info, warn, error)")
	fs.StringVar(&config.SentryDSN, "sentry-dsn", os.Getenv("SENTRY_DSN"), "Sentry DSN")
	fs.BoolVar(&config.VerifyGoogle, "verify-google", os.Getenv("EXTRACHILL_VERIFY_GOOGLE") == "true", "Verify Google ID tokens with Google before sign-in")
	fs.StringVar(&config.GoogleAPIEndpoint, "google-api-endpoint", os.Getenv("GOOGLE_API_ENDPOINT"), "Google API base URL override")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	_ = fs.Parse(argv)
	return config, fs.Args()
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".extrachill/session.json"
	}
	return filepath.Join(home, ".extrachill", "session.json")
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func newLogger(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(lvl).With().Timestamp().Logger()
}

func newClient(config *Config, logger zerolog.Logger, provider identity.Provider) (*extrachill.Client, error) {
	return extrachill.NewClient(&extrachill.ClientOptions{
		BaseURL:          config.BaseURL,
		SessionFile:      config.SessionFile,
		Logger:           extrachill.NewZerologLogger(logger),
		SentryDSN:        config.SentryDSN,
		IdentityProvider: provider,
		OnAuthFailure: func() {
			logger.Warn().Msg("Session could not be refreshed and was cleared")
		},
	})
}

// googleProvider hands out idToken, verified first when configured
func googleProvider(config *Config, idToken string) identity.Provider {
	static := identity.Static(idToken)
	if !config.VerifyGoogle {
		return static
	}
	return &identity.GoogleVerifier{
		Next:     static,
		Endpoint: config.GoogleAPIEndpoint,
	}
}

func run(ctx context.Context, config *Config, args []string, logger zerolog.Logger, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("missing command, run with -h for usage")
	}

	cmd, rest := args[0], args[1:]

	// The host app normally supplies Google tokens; here one is passed in
	var provider identity.Provider
	if cmd == "google" && len(rest) == 1 {
		provider = googleProvider(config, rest[0])
	}

	client, err := newClient(config, logger, provider)
	if err != nil {
		return err
	}
	defer client.Close()

	switch cmd {
	case "login":
		return cmdLogin(ctx, client, rest, out)
	case "google":
		return cmdGoogle(ctx, client, rest, out)
	case "logout":
		if err := client.Auth.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Signed out.")
		return nil
	case "whoami":
		return printJSON(out, client.Auth.Session())
	case "me":
		me, err := client.Auth.Me(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, me)
	case "activity":
		return cmdActivity(ctx, client, rest, out)
	case "handoff":
		if len(rest) != 1 {
			return errors.New("usage: handoff <redirect-url>")
		}
		url, err := client.Auth.BrowserHandoff(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, url)
		return nil
	case "onboarding":
		status, err := client.Onboarding.Status(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, status)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdLogin(ctx context.Context, client *extrachill.Client, args []string, out io.Writer) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: login <identifier> [password]")
	}

	password := os.Getenv("EXTRACHILL_PASSWORD")
	if len(args) == 2 {
		password = args[1]
	}
	if password == "" {
		return errors.New("password required (argument or EXTRACHILL_PASSWORD)")
	}

	resp, err := client.Auth.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	client.Auth.ClearAuthFailureFlag()

	fmt.Fprintf(out, "Signed in as %s\n", resp.User.Username)
	return nil
}

func cmdGoogle(ctx context.Context, client *extrachill.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: google <id-token>")
	}

	resp, err := client.Auth.LoginWithIdentity(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Signed in as %s\n", resp.User.Username)
	return nil
}

func cmdActivity(ctx context.Context, client *extrachill.Client, args []string, out io.Writer) error {
	var cursor string
	var limit int

	if len(args) > 0 {
		cursor = args[0]
	}
	if len(args) > 1 {
		if _, err := fmt.Sscanf(args[1], "%d", &limit); err != nil {
			return fmt.Errorf("invalid limit %q", args[1])
		}
	}

	page, err := client.Activity.List(ctx, cursor, limit)
	if err != nil {
		return err
	}

	for _, item := range page.Items {
		fmt.Fprintf(out, "%d\t%s\t%s\n", item.ID, item.CreatedAt.Format("2006-01-02 15:04"), item.Summary)
	}
	if page.NextCursor != nil {
		fmt.Fprintf(out, "next cursor: %d\n", *page.NextCursor)
	}
	return nil
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
