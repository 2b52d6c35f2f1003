package transport

import (
	"context"
	"net/http"

	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
)

// ProxyTransport posts {text, model} to a backend that owns the provider credentials.
type ProxyTransport struct {
	cfg    emotion.TransportConfig
	client *http.Client
}

func NewProxyTransport(cfg emotion.TransportConfig, client *http.Client) *ProxyTransport {
	return &ProxyTransport{cfg: cfg, client: client}
}

func (t *ProxyTransport) Send(ctx context.Context, req emotion.Request) (any, error) {
	host := t.cfg.Host()
	if err := checkDomain(t.cfg); err != nil {
		return nil, err
	}

	status, body, err := postJSON(ctx, t.client, t.cfg.Endpoint, nil, invocation{Text: req.Text, Model: req.Model}, host)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, statusError(status, bodyMessage(body), host)
	}
	return openEnvelope(body, host, "proxy call failed")
}
