package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/tsunayoshi21/Labeling-app/internal/auth"
	"github.com/tsunayoshi21/Labeling-app/internal/config"
	"github.com/tsunayoshi21/Labeling-app/internal/taskapi"
	"github.com/tsunayoshi21/Labeling-app/internal/tui"
)

func main() {
	app := &cli.App{
		Name:  "review-tui",
		Usage: "review OCR annotations from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Usage: "Task API base URL (overrides server_url)"},
			&cli.StringFlag{Name: "config", Usage: "config file (default: .labeling/config.json, then ~/.labeling/config.json)"},
		},
		Action: run,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "start the review session (default)",
				Action: run,
			},
			{
				Name:  "login",
				Usage: "log in without starting the UI",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}},
				},
				Action: login,
			},
			{
				Name:   "logout",
				Usage:  "revoke the stored session and forget credentials",
				Action: logout,
			},
			{
				Name:      "show",
				Usage:     "print one of your annotations",
				ArgsUsage: "<annotation-id>",
				Action:    show,
			},
			{
				Name:   "configure",
				Usage:  "save the effective settings (including --server) to ~/.labeling/config.json",
				Action: configure,
			},
			{
				Name:   "whoami",
				Usage:  "show the logged-in user and their progress",
				Action: whoami,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env bundles what every command needs
type env struct {
	cfg    *config.Config
	client *taskapi.Client
	logger *slog.Logger
	close  func()
}

func setup(c *cli.Context) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if server := c.String("server"); server != "" {
		cfg.ServerURL = server
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closeLog, err := openLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	credPath, err := config.CredentialsPath()
	if err != nil {
		closeLog()
		return nil, err
	}
	tokens, err := auth.OpenFileStore(credPath)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("open credentials: %w", err)
	}

	client := taskapi.NewClient(cfg.ServerURL, tokens, taskapi.WithTimeout(cfg.RequestTimeout()))
	return &env{cfg: cfg, client: client, logger: logger, close: closeLog}, nil
}

// openLogger writes to a file since the terminal belongs to the UI
func openLogger(level string) (*slog.Logger, func(), error) {
	path, err := config.LogPath()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	logLevel := slog.LevelInfo
	if level != "" {
		if err := logLevel.UnmarshalText([]byte(level)); err != nil {
			logLevel = slog.LevelInfo
		}
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return logger, func() { f.Close() }, nil
}

func run(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	// A stored user skips the login form; expired tokens are refreshed on first use
	opts := tui.Options{
		Backend:        e.client,
		HistoryLimit:   e.cfg.HistoryLimit,
		PendingLimit:   e.cfg.PendingLimit,
		RequestTimeout: e.cfg.RequestTimeout(),
		Logger:         e.logger,
	}
	if tokens := e.client.Tokens(); auth.IsAuthenticated(tokens) {
		opts.User = tokens.User()
	}

	e.logger.Info("starting review UI", "server", e.cfg.ServerURL, "logged_in", opts.User != nil)

	p := tea.NewProgram(
		tui.NewRootModel(opts),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func login(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	reader := bufio.NewReader(os.Stdin)
	username := c.String("username")
	if username == "" {
		fmt.Print("Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}

	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	user, err := e.client.Login(c.Context, username, string(pw))
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Role)
	return nil
}

func logout(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	if !auth.IsAuthenticated(e.client.Tokens()) {
		fmt.Println("Not logged in")
		return nil
	}
	if err := e.client.Logout(c.Context); err != nil {
		// Local credentials are already gone
		e.logger.Warn("logout call failed", "error", err)
	}
	fmt.Println("Logged out")
	return nil
}

func whoami(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	if !auth.IsAuthenticated(e.client.Tokens()) {
		return fmt.Errorf("not logged in, run: review-tui login")
	}
	me, err := e.client.Me(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s): %d/%d done, %d pending (%d%%)\n",
		me.User.Username, me.User.Role, me.Stats.Completed(), me.Stats.Total, me.Stats.Pending, me.Stats.ProgressPercent())
	return nil
}

func show(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("annotation id must be a number: %q", c.Args().First())
	}
	t, err := e.client.GetAnnotation(c.Context, id)
	if err != nil {
		return err
	}

	fmt.Printf("Annotation #%d  image %d  %s %s\n", t.AnnotationID, t.ImageID, t.Status.Icon(), t.Status)
	fmt.Printf("Image:     %s\n", t.ImagePath)
	fmt.Printf("OCR text:  %s\n", t.InitialOCRText)
	if t.CorrectedText != nil {
		fmt.Printf("Corrected: %s (edit distance %d)\n", *t.CorrectedText, t.EditDistance())
	}
	return nil
}

func configure(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	if err := config.SaveToGlobal(e.cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Printf("Saved settings (server %s)\n", e.cfg.ServerURL)
	return nil
}
