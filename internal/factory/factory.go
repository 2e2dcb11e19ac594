// Package factory assembles a ready-to-use agent from configuration: model
// backend, tool servers, conversation memory, and the orchestrator on top.
package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/curioworks/curio/internal/config"
	"github.com/curioworks/curio/internal/engine"
	"github.com/curioworks/curio/internal/heuristics"
	"github.com/curioworks/curio/internal/memory"
	"github.com/curioworks/curio/internal/perception"
	"github.com/curioworks/curio/internal/planner"
	"github.com/curioworks/curio/internal/providers"
	"github.com/curioworks/curio/internal/sandbox"
	"github.com/curioworks/curio/internal/tools"
	"github.com/curioworks/curio/internal/tools/clock"
	"github.com/curioworks/curio/internal/tools/docsearch"
	"github.com/curioworks/curio/internal/tools/math"
	"github.com/curioworks/curio/internal/tools/recall"
)

// Agent bundles the orchestrator with the resources it owns.
type Agent struct {
	Orchestrator *engine.Orchestrator
	Memory       *memory.Index
	Registry     tools.Registry
	ModelName    string

	watcher  *memory.StoreWatcher
	docIndex *docsearch.Index
}

// Close releases the agent's resources in reverse build order.
func (a *Agent) Close() error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	var firstErr error
	if a.docIndex != nil {
		if err := a.docIndex.Close(); err != nil {
			firstErr = err
		}
	}
	if a.Memory != nil {
		if err := a.Memory.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BuildAgent wires an agent from settings and saved preferences. Extra
// hooks are appended after the built-in logging hook.
func BuildAgent(ctx context.Context, settings config.Settings, prefs *config.Preferences, log zerolog.Logger, extraHooks ...engine.Hook) (*Agent, error) {
	if prefs != nil {
		applyPreferences(prefs)
		if settings.DocsDir == "" {
			settings.DocsDir = prefs.DocsDir
		}
		if settings.StepBudget <= 0 {
			settings.StepBudget = prefs.StepBudget
		}
	}

	model, modelName, err := providers.NewModelFromEnv()
	if err != nil {
		return nil, fmt.Errorf("model backend: %w", err)
	}
	log.Info().Str("model", modelName).Msg("model backend ready")

	agent := &Agent{ModelName: modelName}

	var store *memory.Store
	if settings.MemoryPath != "" {
		store, err = memory.OpenStore(ctx, settings.MemoryPath)
		if err != nil {
			return nil, fmt.Errorf("conversation store: %w", err)
		}
	}
	agent.Memory = memory.NewIndex(store, log)
	if err := agent.Memory.Load(ctx); err != nil {
		agent.Close()
		return nil, fmt.Errorf("conversation index: %w", err)
	}
	if store != nil {
		watcher, werr := memory.NewStoreWatcher(agent.Memory, log)
		if werr != nil {
			log.Warn().Err(werr).Msg("store watcher unavailable, external changes will not be picked up")
		} else {
			watcher.Start(ctx)
			agent.watcher = watcher
		}
	}

	registry := tools.Registry{}
	for _, t := range []tools.Tool{
		math.NewEvalTool(),
		clock.NewNowTool(),
		clock.NewDateDiffTool(),
		recall.NewRecallTool(agent.Memory),
	} {
		registry[t.Name] = t
	}

	if settings.DocsDir != "" {
		indexPath := settings.IndexPath
		if indexPath == "" {
			indexPath = filepath.Join(settings.DocsDir, ".curio-index")
		}
		docIndex, derr := docsearch.OpenIndex(indexPath, settings.DocsDir, log)
		if derr != nil {
			agent.Close()
			return nil, fmt.Errorf("doc index: %w", derr)
		}
		agent.docIndex = docIndex
		if rerr := docIndex.Reindex(settings.DocsDir); rerr != nil {
			log.Warn().Err(rerr).Msg("doc reindex failed, search runs on the existing index")
		}
		t := docsearch.NewSearchTool(docIndex)
		registry[t.Name] = t
	}
	agent.Registry = registry

	hooks := append([]engine.Hook{engine.LogHook{Log: log}}, extraHooks...)
	agent.Orchestrator = engine.New(
		heuristics.NewGate(),
		perception.NewExtractor(model, registry.Servers(), log),
		planner.New(model, log),
		sandbox.New(registry, sandbox.DefaultConfig(), log),
		agent.Memory,
		registry,
		log,
		engine.Options{
			StepBudget:  settings.StepBudget,
			RecallLimit: settings.RecallLimit,
			Hooks:       hooks,
		},
	)
	return agent, nil
}

// applyPreferences exports saved preferences as environment variables when
// the environment does not already set them, so explicit env always wins.
func applyPreferences(prefs *config.Preferences) {
	setIfUnset := func(key, value string) {
		if value != "" && os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
	setIfUnset("CURIO_PROVIDER", prefs.Provider)
	switch prefs.Provider {
	case "anthropic":
		setIfUnset("ANTHROPIC_API_KEY", prefs.APIKey)
		setIfUnset("ANTHROPIC_MODEL", prefs.Model)
	default:
		setIfUnset("OPENAI_API_KEY", prefs.APIKey)
		setIfUnset("OPENAI_MODEL", prefs.Model)
		setIfUnset("OPENAI_BASE_URL", prefs.BaseURL)
	}
}
