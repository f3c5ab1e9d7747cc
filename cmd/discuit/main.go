// Command discuit is a small command-line client for a Discuit instance.
//
// Usage:
//
//	discuit [flags] <command> [args]
//
// Commands:
//
//	initial            perform the handshake and print the initial payload
//	login              log in and print the authenticated user
//	me                 print the logged-in user
//	user <name>        print a user's profile
//	feed <name>        print one page of a user's feed
//	posts              print one page of the posts listing
//
// Settings are read from --config (YAML or JSONC), then DISCUIT_* and LOG_*
// environment variables, then flags. When a username is configured every
// command except initial logs in first and logs out afterwards.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	discuit "github.com/jamesprial/go-discuit-api-wrapper"
	"github.com/jamesprial/go-discuit-api-wrapper/internal/config"
	"github.com/jamesprial/go-discuit-api-wrapper/internal/logging"
	"github.com/jamesprial/go-discuit-api-wrapper/internal/query"
	"github.com/jamesprial/go-discuit-api-wrapper/pkg/types"
)

type app struct {
	stdout         io.Writer
	stderr         io.Writer
	lookupEnv      func(string) (string, bool)
	promptPassword func() (string, error)
}

type options struct {
	configPath   string
	baseURL      string
	userAgent    string
	username     string
	passwordFile string
	logLevel     string
	logFile      string
	query        string
	format       string
	sort         string
	community    string
	next         string
	limit        int
}

func main() {
	a := &app{
		stdout:         os.Stdout,
		stderr:         os.Stderr,
		lookupEnv:      os.LookupEnv,
		promptPassword: promptPassword,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := a.run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func (a *app) flagSet(o *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("discuit", pflag.ContinueOnError)
	fs.SetOutput(a.stderr)

	fs.StringVarP(&o.configPath, "config", "c", "", "path to a .yaml or .jsonc config file")
	fs.StringVar(&o.baseURL, "base-url", "", "Discuit instance URL (default "+discuit.DefaultBaseURL+")")
	fs.StringVar(&o.userAgent, "user-agent", "", "User-Agent header")
	fs.StringVarP(&o.username, "username", "u", "", "log in as this user")
	fs.StringVar(&o.passwordFile, "password-file", "", `file holding the password ("-" or empty prompts)`)
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&o.logFile, "log-file", "", "write logs to this file, rotated")
	fs.StringVarP(&o.query, "query", "q", "", "jq expression applied to the JSON output")
	fs.StringVarP(&o.format, "format", "f", "json", "output format: json or text")
	fs.StringVar(&o.sort, "sort", "", "posts sort: latest, hot, activity, day, week, month, year, all")
	fs.StringVar(&o.community, "community", "", "restrict posts to a community")
	fs.StringVar(&o.next, "next", "", "pagination cursor from a previous page")
	fs.IntVarP(&o.limit, "limit", "n", 0, "items per page (1-100)")

	fs.Usage = func() {
		fmt.Fprintln(a.stderr, "usage: discuit [flags] <initial|login|me|user NAME|feed NAME|posts>")
		fs.PrintDefaults()
	}
	return fs
}

func (a *app) run(ctx context.Context, args []string) int {
	var o options
	fs := a.flagSet(&o)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}
	if o.format != "json" && o.format != "text" {
		fmt.Fprintf(a.stderr, "discuit: unknown format %q\n", o.format)
		return 2
	}

	var filter *query.Filter
	if o.query != "" {
		f, err := query.Compile(o.query)
		if err != nil {
			fmt.Fprintf(a.stderr, "discuit: %v\n", err)
			return 2
		}
		filter = f
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintf(a.stderr, "discuit: %v\n", err)
		return 1
	}
	cfg.ApplyEnv(a.lookupEnv)
	applyFlags(fs, &cfg, &o)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(a.stderr, "discuit: %v\n", err)
		return 1
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.FilePath = cfg.Log.File
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		fmt.Fprintf(a.stderr, "discuit: setting up logging: %v\n", err)
		return 1
	}
	defer cleanup()

	timeout, _ := cfg.TimeoutDuration()
	client, err := discuit.NewClient(&discuit.Config{
		BaseURL:    cfg.BaseURL,
		UserAgent:  cfg.UserAgent,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	})
	if err != nil {
		fmt.Fprintf(a.stderr, "discuit: %v\n", err)
		return 1
	}

	result, err := a.execute(ctx, client, cfg, &o, logger, rest)
	if err != nil {
		fmt.Fprintf(a.stderr, "discuit: %v\n", err)
		return 1
	}

	if err := a.write(result, filter, o.format); err != nil {
		fmt.Fprintf(a.stderr, "discuit: %v\n", err)
		return 1
	}
	return 0
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config, o *options) {
	if fs.Changed("base-url") {
		cfg.BaseURL = o.baseURL
	}
	if fs.Changed("user-agent") {
		cfg.UserAgent = o.userAgent
	}
	if fs.Changed("username") {
		cfg.Username = o.username
	}
	if fs.Changed("password-file") {
		cfg.PasswordFile = o.passwordFile
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if fs.Changed("log-file") {
		cfg.Log.File = o.logFile
	}
}

func (a *app) execute(ctx context.Context, client *discuit.Client, cfg config.Config, o *options, logger *slog.Logger, args []string) (any, error) {
	command := args[0]

	nameArg := func() (string, error) {
		if len(args) < 2 {
			return "", fmt.Errorf("%s requires a username argument", command)
		}
		return args[1], nil
	}

	switch command {
	case "initial":
		return client.Initialize(ctx)
	case "login", "me", "user", "feed", "posts":
	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}

	if _, err := client.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initializing session: %w", err)
	}

	if cfg.Username != "" {
		if err := a.login(ctx, client, cfg); err != nil {
			return nil, err
		}
		defer func() {
			if err := client.Logout(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("logout failed", slog.String("error", err.Error()))
			}
		}()
	} else if command == "login" {
		return nil, errors.New("login requires --username")
	}

	switch command {
	case "login":
		return client.User(), nil
	case "me":
		return client.Me(ctx)
	case "user":
		name, err := nameArg()
		if err != nil {
			return nil, err
		}
		result, err := client.GetUser(ctx, name)
		if err != nil {
			return nil, err
		}
		if result.Error != nil {
			return nil, result.Error
		}
		return result.User, nil
	case "feed":
		name, err := nameArg()
		if err != nil {
			return nil, err
		}
		req := &types.FeedRequest{Username: name}
		req.Pagination = o.pagination()
		result, err := client.GetUserFeed(ctx, req)
		if err != nil {
			return nil, err
		}
		if result.Error != nil {
			return nil, result.Error
		}
		return result.Feed, nil
	default:
		req := &types.PostsRequest{Sort: o.sort, Community: o.community}
		req.Pagination = o.pagination()
		result, err := client.GetPosts(ctx, req)
		if err != nil {
			return nil, err
		}
		if result.Error != nil {
			return nil, result.Error
		}
		return result.Page, nil
	}
}

// pagination builds pagination from the flags. A numeric --next becomes an
// integer cursor; both forms render identically in the query string.
func (o *options) pagination() types.Pagination {
	p := types.Pagination{Limit: o.limit}
	if o.next != "" {
		if n, err := strconv.ParseInt(o.next, 10, 64); err == nil {
			p.Next = types.IntCursor(n)
		} else {
			p.Next = types.StringCursor(o.next)
		}
	}
	return p
}

func (a *app) login(ctx context.Context, client *discuit.Client, cfg config.Config) error {
	var password string
	var err error
	if cfg.PasswordFile == "" || cfg.PasswordFile == "-" {
		password, err = a.promptPassword()
	} else {
		password, err = config.ReadPasswordFile(cfg.PasswordFile)
	}
	if err != nil {
		return err
	}

	result, err := client.Login(ctx, cfg.Username, password)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	if result.Error != nil {
		return fmt.Errorf("logging in: %w", result.Error)
	}
	return nil
}

func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal available for password prompt (use --password-file)")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}
