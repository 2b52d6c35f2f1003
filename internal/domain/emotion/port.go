package emotion

import "context"

// Request is everything a transport may need. Direct transports send Prompt; function and proxy
// backends build their own prompt from Text.
type Request struct {
	Prompt string
	Text   string
	Model  ModelParams
}

// Transport sends one request and returns raw provider output (string, []byte or a decoded
// JSON object). Failures are *TransportError.
type Transport interface {
	Send(ctx context.Context, req Request) (any, error)
}

// TransportFactory builds the Transport a config selects.
type TransportFactory interface {
	New(cfg TransportConfig) (Transport, error)
}
