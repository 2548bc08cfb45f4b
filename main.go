package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jroimartin/gocui"
	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"

	"mbsim/config"
	"mbsim/console"
	"mbsim/logger"
	"mbsim/supervisor"
	"mbsim/system"
	"mbsim/teletype"
)

type options struct {
	interactive bool
	configPath  string
	emulator    string
	logFile     string
	simple      bool
	program     string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "mbsim: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("mbsim", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: mbsim [flags] [program.py]\n\n%s", fs.FlagUsages())
	}
	fs.BoolVarP(&opts.interactive, "interactive", "i", false, "drop to the REPL after the program finishes")
	fs.StringVar(&opts.configPath, "config", config.DefaultPath(), "configuration file")
	fs.StringVar(&opts.emulator, "emulator", "", "emulator binary (overrides the configuration)")
	fs.StringVar(&opts.logFile, "log", "", "diagnostic log file (overrides the configuration)")
	fs.BoolVar(&opts.simple, "simple", false, "plain terminal output instead of the full screen board")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		opts.program = fs.Arg(0)
	default:
		return nil, fmt.Errorf("expected at most one program, got %d", fs.NArg())
	}
	if opts.interactive && opts.program == "" {
		return nil, errors.New("-i needs a program to run first")
	}
	return opts, nil
}

func run(opts *options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.emulator != "" {
		cfg.Emulator = opts.emulator
	}
	if opts.logFile != "" {
		cfg.LogFile = opts.logFile
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", opts.configPath, err)
	}

	logs, logFile, err := logger.New(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	if logFile != os.Stderr {
		defer logFile.Close()
	}

	sysCfg := system.Config{
		Supervisor: supervisor.Config{
			Emulator:    cfg.Emulator,
			Program:     opts.program,
			Interactive: opts.interactive,
			Env:         cfg.Pipes.EnvNames(),
			InheritEnv:  cfg.InheritEnv,
			Stderr:      logFile,
		},
		PollTimeout: cfg.PollTimeout.Duration,
		ReadChunk:   cfg.Pipes.ReadChunk,
		TapDelay:    cfg.TapDelay.Duration,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sys *system.System
	if opts.simple || !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		sys, err = runSimple(ctx, sysCfg, logs)
	} else {
		sys, err = runGui(ctx, sysCfg, logs)
	}
	if sys != nil {
		if ws, ok := sys.Supervisor().ExitStatus(); ok {
			logs.Printf("emulator exit status %d", ws.ExitStatus())
		}
	}
	return err
}

func runSimple(ctx context.Context, cfg system.Config, logs *log.Logger) (*system.System, error) {
	kb, err := teletype.NewSimple(os.Stdin)
	if err != nil {
		return nil, err
	}
	defer kb.Close()

	r := console.NewSimple(os.Stdout, isatty.IsTerminal(os.Stdin.Fd()))
	sys := system.New(cfg, r, kb, logs)
	return sys, sys.Run(ctx)
}

func runGui(ctx context.Context, cfg system.Config, logs *log.Logger) (*system.System, error) {
	kb, err := teletype.New(logs)
	if err != nil {
		return nil, err
	}
	defer kb.Close()

	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, fmt.Errorf("create gui: %w", err)
	}
	defer g.Close()

	g.Highlight = true
	g.SelFgColor = gocui.ColorGreen
	g.Cursor = false
	g.InputEsc = true
	g.SetManagerFunc(layout(kb.Editor()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sys := system.New(cfg, console.NewGui(g), kb, logs)
	done := make(chan error, 1)
	started := make(chan struct{})

	// the session starts once the first layout has created the views
	g.Update(func(g *gocui.Gui) error {
		close(started)
		go func() {
			err := sys.Run(ctx)
			done <- err
			g.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
		}()
		return nil
	})

	loopErr := g.MainLoop()
	cancel()
	select {
	case <-started:
		err = <-done
	default:
		err = nil
	}
	if loopErr != nil && !errors.Is(loopErr, gocui.ErrQuit) {
		return sys, loopErr
	}
	return sys, err
}
