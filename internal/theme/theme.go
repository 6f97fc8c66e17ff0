// Package theme resolves which UI theme is active and remembers the choice
// across sessions.
package theme

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/DoyleJ11/quiz-client/internal/environment"
	"go.uber.org/zap"
)

type ID int

const (
	Auto  ID = -1
	Light ID = 1
	Dark  ID = 2
)

const (
	SunEntity    = "sun.sun"
	BelowHorizon = "below_horizon"
)

// AutoConfig switches to Dark while Sensor reads at or below Below.
type AutoConfig struct {
	Sensor string
	Below  float64
}

// Option is an ID that may be absent.
type Option struct {
	ID    ID
	Valid bool
}

func Some(id ID) Option { return Option{ID: id, Valid: true} }

var None = Option{}

// Resolve picks the effective theme. An explicit request wins (0 and Auto
// included), then the persisted preference, then Auto. Auto is settled from
// the configured sensor, or the sun when no sensor is configured; anything
// missing or unreadable falls back to Light.
func Resolve(requested, persisted Option, auto *AutoConfig, env environment.Snapshot) ID {
	id := Auto
	switch {
	case requested.Valid:
		id = requested.ID
	case persisted.Valid:
		id = persisted.ID
	}

	if id != Auto {
		return id
	}

	if auto != nil {
		sensor, ok := env.Find(auto.Sensor)
		if !ok {
			return Light
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(sensor.State), 64)
		if err != nil || v > auto.Below {
			return Light
		}
		return Dark
	}

	sun, ok := env.Find(SunEntity)
	if ok && sun.State == BelowHorizon {
		return Dark
	}
	return Light
}

type Preferences interface {
	ThemePreference(ctx context.Context) (id int, ok bool, err error)
	SetThemePreference(ctx context.Context, id int) error
}

// Resolver wires Resolve to persisted preferences and live entity states.
type Resolver struct {
	prefs Preferences
	auto  *AutoConfig
	env   environment.Provider
	log   *zap.Logger

	mu      sync.Mutex
	current ID
}

func NewResolver(prefs Preferences, auto *AutoConfig, env environment.Provider, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if env == nil {
		env = environment.Static{}
	}
	return &Resolver{prefs: prefs, auto: auto, env: env, log: log, current: Light}
}

// Resolve computes the theme and persists it, so an auto-derived value
// sticks for the next start. Storage and sensor failures only degrade.
func (r *Resolver) Resolve(ctx context.Context, requested Option) ID {
	persisted := None
	if !requested.Valid {
		id, ok, err := r.prefs.ThemePreference(ctx)
		if err != nil {
			r.log.Warn("read theme preference", zap.Error(err))
		} else if ok {
			persisted = Some(ID(id))
		}
	}

	var snap environment.Snapshot
	if wantsAuto(requested, persisted) {
		var err error
		snap, err = r.env.Snapshot(ctx)
		if err != nil {
			r.log.Warn("read environment", zap.Error(err))
		}
	}

	id := Resolve(requested, persisted, r.auto, snap)

	if err := r.prefs.SetThemePreference(ctx, int(id)); err != nil {
		r.log.Warn("persist theme preference", zap.Int("theme", int(id)), zap.Error(err))
	}

	r.mu.Lock()
	r.current = id
	r.mu.Unlock()

	r.log.Debug("theme resolved", zap.Int("theme", int(id)))
	return id
}

// Current is the last resolved theme, Light before the first Resolve.
func (r *Resolver) Current() ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func wantsAuto(requested, persisted Option) bool {
	if requested.Valid {
		return requested.ID == Auto
	}
	return !persisted.Valid || persisted.ID == Auto
}
