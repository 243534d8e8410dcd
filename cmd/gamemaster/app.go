package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/gamemaster"
	"github.com/aretw0/gamemaster/internal/config"
	"github.com/aretw0/gamemaster/pkg/adapters/file"
	"github.com/aretw0/gamemaster/pkg/adapters/gemini"
	"github.com/aretw0/gamemaster/pkg/adapters/memory"
	"github.com/aretw0/gamemaster/pkg/adapters/redis"
	"github.com/aretw0/gamemaster/pkg/observability"
	"github.com/aretw0/gamemaster/pkg/ports"
	"github.com/aretw0/gamemaster/pkg/safety"
	"github.com/aretw0/gamemaster/pkg/session"
	"github.com/aretw0/gamemaster/pkg/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app holds the wired engine and everything that must be closed with it.
type app struct {
	engine  *gamemaster.Engine
	tasks   *tasks.Registry
	metrics *prometheus.Registry

	closers []func() error
}

// newApp wires the engine from cfg: store backend, combat log, locks,
// safety moderation, narration and observability hooks.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{metrics: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetrics(a.metrics)
	if err != nil {
		return nil, err
	}
	hooks := observability.LogHooks(logger).Merge(metrics.Hooks())

	store, combatLog, locker, err := a.openStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	var moderator ports.Moderator
	mc := ports.ModerationContext{Rating: cfg.Safety.Rating, Theme: cfg.Safety.Theme}
	if cfg.Safety.Enabled {
		moderator, err = newModerator(cfg.Safety, logger)
		if err != nil {
			return nil, err
		}
		combatLog = safety.ModerateLog(moderator, mc)(combatLog)
	}

	sessionOpts := []session.Option{
		session.WithCombatLog(combatLog),
		session.WithLockTTL(cfg.Store.LockTTL),
		session.WithHooks(hooks),
		session.WithLogger(logger),
	}
	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker))
	}

	engineOpts := []gamemaster.Option{
		gamemaster.WithSessions(session.NewManager(store, sessionOpts...)),
		gamemaster.WithHooks(hooks),
		gamemaster.WithLogger(logger),
	}
	if cfg.Dice.Seed != 0 {
		engineOpts = append(engineOpts, gamemaster.WithSeed(cfg.Dice.Seed))
	}
	if cfg.Gemini.APIKey != "" {
		n, err := gemini.New(ctx, cfg.Gemini.APIKey, gemini.WithModel(cfg.Gemini.Model), gemini.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, n.Close)

		var narrator ports.Narrator = n
		if moderator != nil {
			narrator = safety.ModerateNarration(narrator, moderator, mc)
		}
		engineOpts = append(engineOpts, gamemaster.WithNarrator(narrator))
	}
	a.engine = gamemaster.New(engineOpts...)

	a.tasks = tasks.NewRegistry(
		tasks.WithSoftLimit(cfg.Tasks.SoftLimit),
		tasks.WithHardLimit(cfg.Tasks.HardLimit),
		tasks.WithLogger(logger),
	)
	a.engine.RegisterTasks(a.tasks)

	logger.Debug("engine wired",
		"store", cfg.Store.Backend,
		"safety", cfg.Safety.Enabled,
		"narrator", cfg.Gemini.APIKey != "",
	)
	return a, nil
}

func (a *app) openStore(cfg config.Store) (ports.SessionStore, ports.CombatLog, ports.DistributedLocker, error) {
	switch cfg.Backend {
	case config.BackendFile:
		combatDir := filepath.Join(filepath.Dir(cfg.Dir), "combat")
		return file.New(cfg.Dir), file.NewCombatLog(combatDir), nil, nil
	case config.BackendRedis:
		client, err := redis.NewClientFromURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		a.closers = append(a.closers, client.Close)
		opts := []redis.Option{redis.WithPrefix(cfg.RedisPrefix), redis.WithTTL(cfg.TTL)}
		return redis.NewFromClient(client, opts...),
			redis.NewCombatLog(client, opts...),
			redis.NewLocker(client, cfg.RedisPrefix),
			nil
	case config.BackendMemory:
		return memory.NewStore(), memory.NewCombatLog(), nil, nil
	default:
		return nil, nil, nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}

func newModerator(cfg config.Safety, logger *slog.Logger) (*safety.PatternModerator, error) {
	rules := safety.DefaultRules()
	if cfg.RulesFile != "" {
		extra, err := safety.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = rules.Merge(extra)
	}
	return safety.NewPatternModerator(rules, safety.WithLogger(logger))
}

// Close releases the store client and the narrator.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
