package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	coreconfig "github.com/m3rciful/relaybot/core/config"
	coretelegram "github.com/m3rciful/relaybot/core/telegram"
)

func TestParseFlagsPrecedence(t *testing.T) {
	t.Setenv("RELAY_CONFIG", "/env.yaml")
	base := Options{ConfigEnvVar: "RELAY_CONFIG", DefaultConfigPath: "config.yaml", Output: &bytes.Buffer{}}

	opts := base
	opts.Args = []string{"-c", "/flag.yaml"}
	if path, _, err := parseFlags(opts); err != nil || path != "/flag.yaml" {
		t.Fatalf("flag: path=%q err=%v", path, err)
	}

	opts.Args = []string{}
	if path, _, _ := parseFlags(opts); path != "/env.yaml" {
		t.Fatalf("env: path=%q", path)
	}

	t.Setenv("RELAY_CONFIG", "")
	if path, _, _ := parseFlags(opts); path != "config.yaml" {
		t.Fatalf("default: path=%q", path)
	}
}

func TestParseFlagsVersionAndHelp(t *testing.T) {
	var out bytes.Buffer
	_, done, err := parseFlags(Options{Name: "relaybot", Args: []string{"--version"}, Output: &out})
	if err != nil || !done {
		t.Fatalf("done=%v err=%v", done, err)
	}
	if !strings.HasPrefix(out.String(), "relaybot ") {
		t.Fatalf("version output %q", out.String())
	}

	_, done, err = parseFlags(Options{Args: []string{"--help"}, Output: &out})
	if err != nil || !done {
		t.Fatalf("help: done=%v err=%v", done, err)
	}

	if _, _, err := parseFlags(Options{Args: []string{"--bogus"}, Output: &out}); err == nil {
		t.Fatal("expected unknown flag error")
	}
}

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type app struct{ opts coretelegram.RunOptions }

func (a app) TelegramRunOptions() (coretelegram.RunOptions, error) { return a.opts, nil }

func TestRunWiresLifecycleHooks(t *testing.T) {
	var started, stopped bool
	err := Run(Options{
		Args:   []string{"--config", "x.yaml"},
		Output: &bytes.Buffer{},
		LoadConfig: func(path string) (ConfigCarrier, error) {
			if path != "x.yaml" {
				t.Fatalf("path %q", path)
			}
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return app{opts: coretelegram.RunOptions{
				OnStart: func(context.Context, coretelegram.Runtime) error { started = true; return nil },
				OnStop:  func(context.Context, coretelegram.Runtime) error { stopped = true; return nil },
			}}, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !started || !stopped {
		t.Fatalf("started=%v stopped=%v", started, stopped)
	}
}

func TestRunBootstrapError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(Options{
		Args:       []string{"-c", "x.yaml"},
		Output:     &bytes.Buffer{},
		LoadConfig: func(string) (ConfigCarrier, error) { return carrier{cfg: &coreconfig.Config{}}, nil },
		Bootstrap:  func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunWithoutConfigPath(t *testing.T) {
	t.Setenv("RELAY_CONFIG", "")
	err := Run(Options{
		Args:         []string{},
		Output:       &bytes.Buffer{},
		ConfigEnvVar: "RELAY_CONFIG",
		LoadConfig: func(string) (ConfigCarrier, error) {
			t.Fatal("load must not run")
			return nil, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	if err == nil || !strings.Contains(err.Error(), "RELAY_CONFIG") {
		t.Fatalf("err = %v", err)
	}
}
