package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/m3rciful/relaybot/core/buildinfo"
	coreconfig "github.com/m3rciful/relaybot/core/config"
	"github.com/m3rciful/relaybot/core/logger"
	coretelegram "github.com/m3rciful/relaybot/core/telegram"
)

// ConfigCarrier exposes access to the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp is the minimal interface required to run a Telegram bot.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options describe how to load configuration, bootstrap the app, and run the bot.
type Options struct {
	// Name is used for the flag set and help output.
	Name string
	// Args are the command line arguments without the program name; nil means os.Args[1:].
	Args []string
	// Output receives help and version text; nil means os.Stderr.
	Output io.Writer

	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(ctx context.Context, cfg ConfigCarrier) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// Run parses flags, loads the configuration, bootstraps the app and blocks
// in the Telegram runtime until SIGINT or SIGTERM.
func Run(opts Options) error {
	switch {
	case opts.LoadConfig == nil:
		return errors.New("cmd: LoadConfig is required")
	case opts.Bootstrap == nil:
		return errors.New("cmd: Bootstrap is required")
	}

	cfgPath, done, err := parseFlags(opts)
	if err != nil || done {
		return err
	}
	cfg, err := loadConfig(opts, cfgPath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startedAt := time.Now()
	application, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap: %w", err)
	}
	defer flushLogs(opts.ShutdownLogger)

	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options: %w", err)
	}
	withLifecycleLogs(&runOpts, startedAt)

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	return run(ctx, runOpts)
}

func loadConfig(opts Options, path string) (ConfigCarrier, error) {
	if path == "" {
		return nil, fmt.Errorf("cmd: no config path: pass --config or set %s", envName(opts))
	}
	// The structured logger is not up yet.
	log.Printf("loading config: %s", path)
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("cmd: load config: %w", err)
	}
	if cfg.CoreConfig() == nil {
		return nil, errors.New("cmd: config carries no core section")
	}
	return cfg, nil
}

func flushLogs(shutdown func() error) {
	if shutdown == nil {
		shutdown = logger.Shutdown
	}
	if err := shutdown(); err != nil {
		log.Printf("logger shutdown: %v", err)
	}
}

// withLifecycleLogs chains "ready" after the app's OnStart and "shutdown"
// before its OnStop.
func withLifecycleLogs(ro *coretelegram.RunOptions, startedAt time.Time) {
	onStart, onStop := ro.OnStart, ro.OnStop
	ro.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "ready",
			slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))))
		return nil
	}
	ro.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown")
		if onStop != nil {
			return onStop(ctx, rt)
		}
		return nil
	}
}

// parseFlags resolves the config path: --config, then the env var, then the
// default. done is set when help or version output ended the run.
func parseFlags(opts Options) (path string, done bool, err error) {
	name := opts.Name
	if name == "" {
		name = "bot"
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	args := opts.Args
	if args == nil {
		args = os.Args[1:]
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVarP(&path, "config", "c", "", "path to the YAML config file")
	version := fs.BoolP("version", "v", false, "print build information and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return "", true, nil
		}
		return "", false, fmt.Errorf("cmd: %w", err)
	}
	if *version {
		fmt.Fprintln(out, buildinfo.String(name))
		return "", true, nil
	}

	if path == "" {
		path = os.Getenv(envName(opts))
	}
	if path == "" {
		path = opts.DefaultConfigPath
	}
	return path, false, nil
}

func envName(opts Options) string {
	if opts.ConfigEnvVar == "" {
		return "CONFIG_PATH"
	}
	return opts.ConfigEnvVar
}
