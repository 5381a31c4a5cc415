package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

var ErrUnknownEnv = errors.New("unknown environment")

// Deployments the client knows how to reach without an explicit URL.
var presets = map[string]string{
	"development": "http://localhost:5000",
	"production":  "https://backend-mastergoal.onrender.com",
}

type Config struct {
	APIBaseURL string
	Env        string
	ListenAddr string
	LogLevel   string
	LogDev     bool
	LogConsole bool
	LogFile    string
}

// LoadDotEnv copies .env entries into the process environment so flag
// sources can see them. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Flags shared by every subcommand.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "api-url",
			Usage:   "rule server base URL (overrides --env)",
			Sources: cli.EnvVars("MASTERGOAL_API_URL"),
		},
		&cli.StringFlag{
			Name:    "env",
			Value:   "development",
			Usage:   "deployment preset: development | production",
			Sources: cli.EnvVars("MASTERGOAL_ENV"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Value:   "info",
			Usage:   "logger level",
			Sources: cli.EnvVars("MASTERGOAL_LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "development log encoding",
		},
		&cli.BoolFlag{
			Name:    "console",
			Aliases: []string{"c"},
			Usage:   "console log encoding on stdout",
		},
		&cli.StringFlag{
			Name:    "log-file",
			Value:   "mastergoal.log",
			Usage:   "log destination when not logging to the console",
			Sources: cli.EnvVars("MASTERGOAL_LOG_FILE"),
		},
	}
}

// ServeFlags are only meaningful for the gateway.
func ServeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "listen",
			Value:   ":8080",
			Usage:   "gateway listen address",
			Sources: cli.EnvVars("MASTERGOAL_LISTEN"),
		},
	}
}

func FromCommand(c *cli.Command) (Config, error) {
	cfg := Config{
		APIBaseURL: c.String("api-url"),
		Env:        c.String("env"),
		ListenAddr: c.String("listen"),
		LogLevel:   c.String("log-level"),
		LogDev:     c.Bool("debug"),
		LogConsole: c.Bool("console"),
		LogFile:    c.String("log-file"),
	}
	base, err := ResolveBaseURL(cfg.APIBaseURL, cfg.Env)
	if err != nil {
		return Config{}, err
	}
	cfg.APIBaseURL = base
	return cfg, nil
}

// ResolveBaseURL picks the explicit URL when given, else the preset for env.
func ResolveBaseURL(explicit, env string) (string, error) {
	raw := explicit
	if raw == "" {
		p, ok := presets[strings.ToLower(env)]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownEnv, env)
		}
		raw = p
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("api url %q: scheme must be http or https", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}
