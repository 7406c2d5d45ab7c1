package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/idilsaglam/records/internal/api"
	"github.com/idilsaglam/records/internal/app"
	"github.com/idilsaglam/records/internal/auth"
	"github.com/idilsaglam/records/internal/config"
	"github.com/idilsaglam/records/internal/logging"
	"github.com/idilsaglam/records/internal/tui"
	"github.com/idilsaglam/records/internal/ui"
)

// Env holds what the runner needs from the process. Zero fields get the
// real implementation.
type Env struct {
	// Getenv replaces os.Getenv; when set, no .env file is loaded.
	Getenv func(string) string
	Prompt Prompter
	RunUI  func(*app.Coordinator, tui.Options) error
	Serve  func(ctx context.Context, srv *http.Server) error
}

func (e Env) withDefaults() Env {
	if e.Prompt == nil {
		e.Prompt = linerPrompter{}
	}
	if e.RunUI == nil {
		e.RunUI = tui.Run
	}
	if e.Serve == nil {
		e.Serve = serve
	}
	return e
}

// session is the state shared by subcommands once global flags are parsed.
type session struct {
	env Env
	cfg config.Config
	log *slog.Logger
}

func globalFlags() (*flag.FlagSet, *config.Config, *string) {
	fs := flag.NewFlagSet("records", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)

	var o config.Config
	path := fs.String("config", "", "config file (JSON with comments)")
	fs.StringVar(&o.APIBaseURL, "api", "", "API base URL, absolute or relative to api_host")
	fs.StringVar(&o.Theme, "theme", "", "color theme: "+strings.Join(ui.Themes, ", "))
	fs.StringVar(&o.LogLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&o.LogFile, "log-file", "", "log file path")
	fs.DurationVar(&o.Timeout, "timeout", 0, "request timeout")
	return fs, &o, path
}

// Run parses global flags, dispatches the subcommand and returns an exit
// code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, env Env) int {
	env = env.withDefaults()

	fs, overrides, path := globalFlags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			PrintHelp()
			return 0
		}
		ui.Fail(err.Error())
		return 2
	}

	cfg, _, err := config.Load(config.LoadOptions{
		ConfigPath: *path,
		Getenv:     env.Getenv,
		Overrides:  *overrides,
	})
	if err != nil {
		ui.Fail("config: " + err.Error())
		if errors.Is(err, config.ErrInvalid) || errors.Is(err, config.ErrFileNotFound) {
			return 2
		}
		return 1
	}
	ui.SetTheme(cfg.Theme)

	rest := fs.Args()
	cmd, a := "ui", []string(nil)
	if len(rest) > 0 {
		cmd, a = rest[0], rest[1:]
	}

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0
	case "config":
		out, err := config.Format(cfg)
		if err != nil {
			ui.Fail(err.Error())
			return 1
		}
		fmt.Fprintln(ui.Stdout, out)
		return 0
	case "sandbox":
		// the sandbox logs requests to stderr, not to the client log file
		s := &session{env: env, cfg: cfg, log: logging.Setup(cfg.LogLevel, "text", ui.Stderr)}
		return s.sandbox(ctx, a)
	}

	w, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		ui.Fail("log: " + err.Error())
		return 1
	}
	defer w.Close()
	logging.Setup(cfg.LogLevel, "text", w)
	s := &session{env: env, cfg: cfg, log: logging.WithFields(ctx, "cmd", cmd)}

	switch cmd {
	case "ui":
		return s.ui(ctx)
	case "ls":
		return s.list(ctx, a)
	case "add":
		return s.add(ctx, a)
	case "edit":
		return s.edit(ctx, a)
	case "rm":
		return s.remove(ctx, a)
	case "auth":
		return s.auth(a)
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(ui.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Fprint(ui.Stdout, `records - manage records on a remote API

Usage:
  records [global flags] <subcommand> [args]

Subcommands:
  ui                          Interactive terminal UI (default)
  ls [query...]               List records, optionally filtered
  add <name...> [-d text]     Create a record
  edit <id> [--name N] [-d D] Update a record
  rm <id> [-y]                Delete a record (asks first unless -y)
  auth login|logout|status|whoami
                              Manage the API token
  config                      Print the resolved configuration
  sandbox [flags]             Serve an in-memory records API

Global flags:
  --api URL          API base URL (default /api on http://localhost:8080)
  --config PATH      config file (default ~/.config/records/config.json)
  --theme NAME       classic, neon or mono
  --log-level LEVEL  debug, info, warn or error
  --log-file PATH    log file (default ~/.records/records.log)
  --timeout DUR      request timeout (default 10s)

Examples:
  records add "Groceries" -d "milk, eggs"
  records ls groc
  records rm 42
`)
}

func (s *session) client() (*api.Client, error) {
	base, err := s.cfg.APIURL()
	if err != nil {
		return nil, err
	}
	opts := []api.Option{
		api.WithTimeout(s.cfg.Timeout),
		api.WithLogger(s.log),
	}
	ti, err := auth.GetToken()
	if err != nil {
		return nil, err
	}
	if ti != nil && ti.Token != "" {
		opts = append(opts, api.WithToken(ti.Token))
	}
	return api.New(base, opts...)
}

func (s *session) coordinator(ctx context.Context) (*app.Coordinator, error) {
	c, err := s.client()
	if err != nil {
		return nil, err
	}
	return app.New(c, app.WithContext(ctx), app.WithLogger(s.log)), nil
}

func (s *session) ui(ctx context.Context) int {
	c, err := s.coordinator(ctx)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	start := time.Now()
	s.log.Info("ui started", "api", s.cfg.APILabel())
	if err := s.env.RunUI(c, tui.Options{APILabel: s.cfg.APILabel(), Theme: s.cfg.Theme}); err != nil {
		ui.Fail(err.Error())
		return 1
	}
	s.log.Info("ui closed", "duration", time.Since(start).Round(time.Millisecond))
	return 0
}
