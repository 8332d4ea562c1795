package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/omochice/socket-chat-client/internal/config"
	"github.com/omochice/socket-chat-client/internal/form"
	"github.com/omochice/socket-chat-client/internal/logging"
	"github.com/omochice/socket-chat-client/internal/session"
	"github.com/omochice/socket-chat-client/internal/transport/ws"
	"github.com/omochice/socket-chat-client/internal/tui"
	"github.com/omochice/socket-chat-client/internal/ui"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "chat:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a YAML config file")
	fs.String("host", "", "Bridge host and port (e.g., localhost:8000)")
	fs.String("username", "", "Username to log in with")
	fs.String("nick", "", "Nickname to appear under (defaults to username)")
	fs.String("password", "", "Password to log in with")
	fs.String("channel", "", "Channel to join")
	fs.Bool("plain", false, "Use line mode on stdin/stdout instead of the terminal UI")
	fs.String("log-file", "", "Write logs to this file")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.Duration("write-timeout", 0, "Timeout for a single frame write")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyFlags(fs); err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessCfg := session.Config{URL: session.Endpoint(cfg.Host), WriteTimeout: cfg.WriteTimeout}
	login := form.NewLoginForm(cfg.Username, cfg.Channel, cfg.Nick, cfg.Password)
	if cfg.Plain {
		return runPlain(ctx, sessCfg, login, os.Stdin, os.Stdout, logger)
	}
	return runTUI(ctx, sessCfg, login, logger)
}

// newLogger logs to the configured file. Without one, plain mode logs to
// stderr and the terminal UI discards logs so they do not corrupt the screen.
func newLogger(cfg config.Client) (zerolog.Logger, io.Closer, error) {
	if cfg.LogFile != "" {
		return logging.OpenFile(cfg.LogFile, cfg.LogLevel)
	}
	if cfg.Plain {
		logger, err := logging.Console(cfg.LogLevel)
		return logger, nil, err
	}
	return zerolog.Nop(), nil, nil
}

func runTUI(ctx context.Context, cfg session.Config, login form.LoginForm, logger zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	view := ui.NewView()
	renderer := tui.NewRenderer(view)
	sess := session.New(cfg, ws.NewDialer(), renderer, logger)

	p := tea.NewProgram(tui.New(view, sess, login), tea.WithAltScreen(), tea.WithContext(ctx))
	renderer.Attach(p)

	done := make(chan error, 1)
	go func() {
		err := sess.Run(ctx)
		if err != nil {
			p.Quit()
		}
		done <- err
	}()

	_, err := p.Run()
	cancel()
	if runErr := <-done; runErr != nil {
		return runErr
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func runPlain(ctx context.Context, cfg session.Config, login form.LoginForm, in io.Reader, out io.Writer, logger zerolog.Logger) error {
	if login.Nick() == "" {
		return errors.New("username or nick is required in plain mode")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(out, "Type your messages (or 'quit' to exit):")

	sess := session.New(cfg, ws.NewDialer(), ui.NewLineRenderer(out), logger)
	sess.SubmitLogin(login)
	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	go func() {
		defer cancel()
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			if text == "quit" || text == "exit" {
				return
			}
			sess.SubmitChat(text)
		}
		if err := scanner.Err(); err != nil {
			logger.Error().Err(err).Msg("failed to read input")
		}
	}()

	return <-done
}
