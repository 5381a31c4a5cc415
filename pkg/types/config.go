package types

import (
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidConfig = errors.New("invalid session config")

type Mode string

const (
	ModeSingle Mode = "1player"  // human (LEFT) vs AI (RIGHT)
	ModeDouble Mode = "2players" // two humans on the same device
)

type Difficulty string

const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyDynamic Difficulty = "dynamic"
)

var TeamColors = []string{"orange", "red", "white", "black"}

// SessionConfig is fixed once a game starts.
type SessionConfig struct {
	Mode          Mode       `json:"mode"`
	Level         int        `json:"level"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
	TimerEnabled  bool       `json:"timer_enabled"`
	TimerDuration int        `json:"timer_duration,omitempty"` // seconds
	TurnLimit     int        `json:"turn_limit,omitempty"`     // 0 = unlimited
	Team1Color    string     `json:"team1_color,omitempty"`
	Team2Color    string     `json:"team2_color,omitempty"`
	// Resume attaches to the game already running on the server
	// instead of starting a new one.
	Resume bool `json:"resume,omitempty"`
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Mode:          ModeSingle,
		Level:         1,
		Difficulty:    DifficultyMedium,
		TimerDuration: 30,
		Team1Color:    "orange",
		Team2Color:    "red",
	}
}

func (c SessionConfig) Validate() error {
	if c.Mode != ModeSingle && c.Mode != ModeDouble {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	if c.Level < 1 || c.Level > 3 {
		return fmt.Errorf("%w: level %d out of range 1..3", ErrInvalidConfig, c.Level)
	}
	switch c.Difficulty {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyDynamic:
	default:
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfig, c.Difficulty)
	}
	if c.TimerEnabled && c.TimerDuration <= 0 {
		return fmt.Errorf("%w: timer enabled without a duration", ErrInvalidConfig)
	}
	if c.TurnLimit < 0 {
		return fmt.Errorf("%w: negative turn limit", ErrInvalidConfig)
	}
	for _, col := range []string{c.Team1Color, c.Team2Color} {
		if col != "" && !slices.Contains(TeamColors, col) {
			return fmt.Errorf("%w: unknown colour %q", ErrInvalidConfig, col)
		}
	}
	if c.Team1Color != "" && c.Team1Color == c.Team2Color {
		return fmt.Errorf("%w: both teams use %s", ErrInvalidConfig, c.Team1Color)
	}
	return nil
}

// HumanTeam is the side controlled locally in single-player mode.
const HumanTeam = TeamLeft

// ActingTeam returns the side whose pieces the local user may select given
// the side on turn, or "" when the user must wait.
func (c SessionConfig) ActingTeam(current Team) Team {
	if c.Mode == ModeDouble {
		return current
	}
	if current == HumanTeam {
		return HumanTeam
	}
	return ""
}

// IsAITeam reports whether team is played by the remote engine.
func (c SessionConfig) IsAITeam(team Team) bool {
	return c.Mode == ModeSingle && team == HumanTeam.Other()
}

func (c SessionConfig) StartRequest() StartGameRequest {
	req := StartGameRequest{Level: c.Level, Mode: c.Mode}
	if c.TurnLimit > 0 {
		n := c.TurnLimit
		req.NumTurns = &n
	}
	if c.TimerEnabled {
		on, d := true, c.TimerDuration
		req.PlayWithTimer = &on
		req.TimerDuration = &d
	}
	return req
}
