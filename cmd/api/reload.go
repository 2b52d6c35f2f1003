package main

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/bryanwahyu/heartnote/internal/application/analysis"
	"github.com/bryanwahyu/heartnote/internal/config"
	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
)

// runtimeConfig holds the settings SIGHUP can change while serving.
type runtimeConfig struct {
	analysis *analysis.Service
	upstream *analysis.Service
	factory  emotion.TransportFactory

	enabled      atomic.Bool
	functionName atomic.Pointer[string]
}

func newRuntimeConfig(cfg *config.Config, analysisSvc, upstreamSvc *analysis.Service, factory emotion.TransportFactory) *runtimeConfig {
	rc := &runtimeConfig{analysis: analysisSvc, upstream: upstreamSvc, factory: factory}
	rc.store(cfg)
	return rc
}

func (rc *runtimeConfig) store(cfg *config.Config) {
	rc.enabled.Store(cfg.LLM.IsEnabled())
	name := cfg.LLM.FunctionName
	rc.functionName.Store(&name)
}

func (rc *runtimeConfig) LLMEnabled() bool { return rc.enabled.Load() }

func (rc *runtimeConfig) FunctionName() string { return *rc.functionName.Load() }

// apply builds both transports before swapping either, so a config that fails leaves everything
// as it was.
func (rc *runtimeConfig) apply(cfg *config.Config) error {
	llm, up := cfg.LLM.Transport(), cfg.Upstream.Transport()
	if _, err := rc.factory.New(llm); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if _, err := rc.factory.New(up); err != nil {
		return fmt.Errorf("upstream: %w", err)
	}
	if err := rc.analysis.UpdateConfig(llm); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := rc.upstream.UpdateConfig(up); err != nil {
		return fmt.Errorf("upstream: %w", err)
	}
	rc.store(cfg)
	return nil
}

// reload re-reads path and applies it. A bad file leaves the running config untouched.
func (rc *runtimeConfig) reload(path string, logger *zap.Logger) {
	cfg, err := config.Load(path)
	if err == nil {
		err = rc.apply(cfg)
	}
	if err != nil {
		logger.Error("config reload failed", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("config reloaded", zap.String("path", path))
}
