package transport

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
)

// DefaultTimeout bounds one provider call when the factory builds its own client.
const DefaultTimeout = 60 * time.Second

// Factory builds the transport a config asks for.
type Factory struct {
	Client *http.Client
}

func (f Factory) New(cfg emotion.TransportConfig) (emotion.Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transport config: %w", err)
	}
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	switch cfg.Mode {
	case emotion.ModeFunction:
		return NewFunctionTransport(cfg, client), nil
	case emotion.ModeDirect:
		return NewDirectTransport(cfg, client), nil
	case emotion.ModeProxy:
		return NewProxyTransport(cfg, client), nil
	default:
		return nil, fmt.Errorf("%w: %q", emotion.ErrUnknownMode, cfg.Mode)
	}
}
