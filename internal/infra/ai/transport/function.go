package transport

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
)

// invocation is the body function and proxy backends receive.
type invocation struct {
	Text  string              `json:"text"`
	Model emotion.ModelParams `json:"model"`
}

// FunctionTransport invokes a named managed function at {Endpoint}/{FunctionName}.
type FunctionTransport struct {
	cfg    emotion.TransportConfig
	client *http.Client
}

func NewFunctionTransport(cfg emotion.TransportConfig, client *http.Client) *FunctionTransport {
	return &FunctionTransport{cfg: cfg, client: client}
}

func (t *FunctionTransport) URL() string {
	return strings.TrimRight(t.cfg.Endpoint, "/") + "/" + url.PathEscape(t.cfg.FunctionName)
}

func (t *FunctionTransport) Send(ctx context.Context, req emotion.Request) (any, error) {
	host := t.cfg.Host()
	if err := checkDomain(t.cfg); err != nil {
		return nil, err
	}

	status, body, err := postJSON(ctx, t.client, t.URL(), nil, invocation{Text: req.Text, Model: req.Model}, host)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, &emotion.TransportError{Kind: emotion.ErrFunctionMissing, StatusCode: status, Host: host, Message: t.cfg.FunctionName}
	case status < 200 || status > 299:
		return nil, statusError(status, bodyMessage(body), host)
	}
	return openEnvelope(body, host, "function call failed")
}

func checkDomain(cfg emotion.TransportConfig) error {
	host := cfg.Host()
	if !cfg.DomainAllowed(host) {
		return &emotion.TransportError{Kind: emotion.ErrDomainNotAllowed, Host: host}
	}
	return nil
}
