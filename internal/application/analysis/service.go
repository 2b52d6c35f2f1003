package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
	"github.com/bryanwahyu/heartnote/internal/logging"
)

// Service runs one analysis: prompt, progress ticks, transport call, normalization.
// It stores nothing.
type Service struct {
	factory     emotion.TransportFactory
	buildPrompt func(text string) string
	log         *zap.Logger

	state atomic.Pointer[snapshot]
}

// snapshot pairs a config with the transport built from it; both are replaced together.
type snapshot struct {
	cfg       emotion.TransportConfig
	transport emotion.Transport
}

func NewService(cfg emotion.TransportConfig, factory emotion.TransportFactory, buildPrompt func(string) string, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{factory: factory, buildPrompt: buildPrompt, log: log}
	if err := s.UpdateConfig(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateConfig validates cfg and swaps it in. Analyses already running keep the snapshot they
// started with.
func (s *Service) UpdateConfig(cfg emotion.TransportConfig) error {
	t, err := s.factory.New(cfg)
	if err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	s.state.Store(&snapshot{cfg: cfg, transport: t})
	s.log.Info("analysis config updated",
		zap.String("mode", string(cfg.Mode)),
		zap.String("host", cfg.Host()),
		zap.String("provider", cfg.Model.Provider),
		zap.String("model", cfg.Model.Name),
		zap.String("credential", logging.KeyPrefix(cfg.Credential)),
	)
	return nil
}

func (s *Service) Config() emotion.TransportConfig {
	return s.state.Load().cfg
}

// Analyze classifies text. onProgress may be nil; when set it receives simulated statuses while
// the call is outstanding, then StatusParsing and, on success, StatusDone. Transport and schema
// errors are returned unchanged.
func (s *Service) Analyze(ctx context.Context, text string, onProgress func(status string)) (emotion.Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, emotion.ErrEmptyInput
	}

	snap := s.state.Load()
	log := s.log.With(zap.String("mode", string(snap.cfg.Mode)), zap.String("host", snap.cfg.Host()))

	var sub *Subscription
	if onProgress != nil {
		sub = NewSimulator(DefaultSchedule(FirstStatus(snap.cfg.Mode))).Start(onProgress)
		defer sub.Cancel()
	}

	raw, err := snap.transport.Send(ctx, emotion.Request{
		Prompt: s.buildPrompt(text),
		Text:   text,
		Model:  snap.cfg.Model,
	})
	if err != nil {
		log.Warn("analysis transport failed", zap.String("kind", emotion.KindOf(err)), zap.Error(err))
		return nil, err
	}

	if sub != nil {
		sub.Cancel()
		onProgress(StatusParsing)
	}

	normalize := emotion.Normalize
	if snap.cfg.Mode == emotion.ModeDirect {
		normalize = emotion.NormalizeProvider
	}
	result, err := normalize(raw)
	if err != nil {
		var se *emotion.SchemaError
		if errors.As(err, &se) {
			log.Warn("analysis response rejected", zap.String("reason", se.Reason), zap.Error(se.Err))
		}
		return nil, err
	}

	if onProgress != nil {
		onProgress(StatusDone)
	}
	log.Debug("analysis done", zap.String("kind", string(result.Kind())))
	return result, nil
}
