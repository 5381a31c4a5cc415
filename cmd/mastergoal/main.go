package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/amparooliver/frontend-Mastergoal/internal/config"
	"github.com/amparooliver/frontend-Mastergoal/internal/console"
	"github.com/amparooliver/frontend-Mastergoal/internal/httpapi"
	"github.com/amparooliver/frontend-Mastergoal/internal/hub"
	"github.com/amparooliver/frontend-Mastergoal/internal/logx"
	"github.com/amparooliver/frontend-Mastergoal/internal/session"
	"github.com/amparooliver/frontend-Mastergoal/internal/syncclient"
	"github.com/amparooliver/frontend-Mastergoal/internal/ws"
	"github.com/amparooliver/frontend-Mastergoal/pkg/types"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "mastergoal",
		Usage: "client controller for the Mastergoal rule server",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "host game sessions behind a local HTTP and websocket gateway",
				Flags:  append(config.Flags(), serveFlags()...),
				Action: serve,
			},
			{
				Name:   "play",
				Usage:  "play one game in the terminal",
				Flags:  append(config.Flags(), playFlags()...),
				Action: play,
			},
		},
	}
	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveFlags() []cli.Flag {
	return append(config.ServeFlags(), &cli.StringSliceFlag{
		Name:  "origin",
		Usage: "extra websocket origin patterns, e.g. localhost:*",
	})
}

func playFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "mode", Value: string(types.ModeSingle), Usage: "1player | 2players"},
		&cli.IntFlag{Name: "level", Value: 1, Usage: "board level 1..3"},
		&cli.StringFlag{Name: "difficulty", Value: string(types.DifficultyMedium), Usage: "easy | medium | hard | dynamic"},
		&cli.BoolFlag{Name: "timer", Usage: "play with a turn timer"},
		&cli.IntFlag{Name: "timer-duration", Value: 30, Usage: "seconds per turn"},
		&cli.IntFlag{Name: "turns", Usage: "turn limit, 0 for none"},
		&cli.StringFlag{Name: "team1-color", Value: "orange"},
		&cli.StringFlag{Name: "team2-color", Value: "red"},
		&cli.BoolFlag{Name: "resume", Usage: "attach to the game already running on the server"},
	}
}

func setup(c *cli.Command) (config.Config, *zap.SugaredLogger, func(), error) {
	cfg, err := config.FromCommand(c)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	var (
		out     *os.File
		closeFn = func() {}
	)
	if !cfg.LogConsole && cfg.LogFile != "" {
		out, err = os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return config.Config{}, nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closeFn = func() { _ = out.Close() }
	}

	var log *zap.SugaredLogger
	if out != nil {
		log = logx.New(logx.Options{Level: cfg.LogLevel, Dev: cfg.LogDev}, out)
	} else {
		log = logx.New(logx.Options{Level: cfg.LogLevel, Dev: cfg.LogDev, Console: true}, nil)
	}
	return cfg, log, func() {
		_ = log.Sync()
		closeFn()
	}, nil
}

func serve(ctx context.Context, c *cli.Command) error {
	cfg, log, done, err := setup(c)
	if err != nil {
		return err
	}
	defer done()

	client := syncclient.New(cfg.APIBaseURL, syncclient.WithLogger(log.Named("rules")))
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := client.Ping(pingCtx); err != nil {
		log.Warnw("rule server offline, it might be starting up", "url", cfg.APIBaseURL, "error", err)
	} else {
		log.Infow("rule server online", "url", cfg.APIBaseURL)
	}
	cancel()

	h := hub.NewHub(ctx, func(ctx context.Context, sc types.SessionConfig) (*session.Session, error) {
		return session.NewSession(ctx, sc, client, session.WithLogger(log.Named("session")))
	}, log.Named("hub"))
	defer func() { h.Inbox() <- hub.ShutdownHub{} }()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpapi.SetupRoutes(h, log.Named("http"), ws.Options{OriginPatterns: c.StringSlice("origin")}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Infow("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}

func play(ctx context.Context, c *cli.Command) error {
	cfg, log, done, err := setup(c)
	if err != nil {
		return err
	}
	defer done()

	sc := types.SessionConfig{
		Mode:          types.Mode(c.String("mode")),
		Level:         int(c.Int("level")),
		Difficulty:    types.Difficulty(c.String("difficulty")),
		TimerEnabled:  c.Bool("timer"),
		TimerDuration: int(c.Int("timer-duration")),
		TurnLimit:     int(c.Int("turns")),
		Team1Color:    c.String("team1-color"),
		Team2Color:    c.String("team2-color"),
		Resume:        c.Bool("resume"),
	}
	if err := sc.Validate(); err != nil {
		return err
	}

	client := syncclient.New(cfg.APIBaseURL, syncclient.WithLogger(log.Named("rules")))
	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = client.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("server at %s is offline, it might be starting up, try again shortly: %w", cfg.APIBaseURL, err)
	}

	s, err := session.NewSession(ctx, sc, client, session.WithLogger(log.Named("session")))
	if err != nil {
		return err
	}
	defer func() {
		select {
		case s.Inbox() <- session.Shutdown{}:
		case <-s.Done():
		}
	}()

	err = console.New(s, os.Stdin, os.Stdout, log.Named("console")).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
