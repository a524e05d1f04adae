package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/haivivi/sentio/pkg/analyzer"
	"github.com/haivivi/sentio/pkg/capture"
	"github.com/haivivi/sentio/pkg/classifier"
	"github.com/haivivi/sentio/pkg/history"
	"github.com/haivivi/sentio/pkg/kv"
	"github.com/haivivi/sentio/pkg/onnx"
	"github.com/haivivi/sentio/pkg/task"
)

// appRuntime owns everything a command needs to run an analysis.
type appRuntime struct {
	analyzer *analyzer.Analyzer
	history  *history.Store
	kv       kv.Store
	env      *onnx.Env
}

// openHistory opens the context's history database, or returns nil when
// history is disabled.
func openHistory(dir string) (kv.Store, *history.Store, error) {
	if dir == "" {
		return nil, nil, nil
	}
	db, err := kv.NewBadger(kv.BadgerOptions{Dir: dir, Logger: slog.Default()})
	if err != nil {
		return nil, nil, err
	}
	return db, history.New(db), nil
}

// openRuntime builds an analyzer for the selected context and switches
// it to mode. driver is the microphone; nil when no recording is needed.
func openRuntime(ctx context.Context, mode task.Mode, driver capture.Driver) (*appRuntime, error) {
	c, err := getContext()
	if err != nil {
		return nil, err
	}
	store, err := c.Assets.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("context %q: %w", c.Name, err)
	}
	overrides, err := c.TaskOverrides()
	if err != nil {
		return nil, err
	}

	rt := &appRuntime{}
	rt.env, err = onnx.NewEnv(appName)
	if err != nil {
		return nil, err
	}
	rt.kv, rt.history, err = openHistory(c.HistoryDir)
	if err != nil {
		rt.Close()
		return nil, err
	}

	opts := analyzer.Options{
		Store: store,
		NewEngine: func(model []byte, cfg task.Config) (classifier.Engine, error) {
			e, err := onnx.NewEngine(rt.env, model, cfg.InputNames)
			if err != nil {
				return nil, err
			}
			return e, nil
		},
		Driver:  driver,
		History: rt.history,
		Tasks:   overrides,
		Logger:  slog.Default(),
	}
	rt.analyzer, err = analyzer.New(opts)
	if err != nil {
		rt.Close()
		return nil, err
	}

	slog.Debug("loading task", "mode", mode, "assets", c.Assets.String())
	if err := rt.analyzer.Switch(ctx, mode); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *appRuntime) Close() {
	if rt.analyzer != nil {
		rt.analyzer.Close()
	}
	if rt.kv != nil {
		rt.kv.Close()
	}
	if rt.env != nil {
		rt.env.Close()
	}
}
