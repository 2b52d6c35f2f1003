package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
	aiopenai "github.com/bryanwahyu/heartnote/internal/infra/ai/openai"
)

// DirectTransport calls the provider API with the configured credential. qwen speaks the
// generation envelope over plain HTTP; every other provider goes through the chat client.
type DirectTransport struct {
	cfg    emotion.TransportConfig
	client *http.Client
	chat   *aiopenai.Client
}

func NewDirectTransport(cfg emotion.TransportConfig, client *http.Client) *DirectTransport {
	t := &DirectTransport{cfg: cfg, client: client}
	if cfg.Model.Provider != emotion.ProviderQwen {
		t.chat = aiopenai.NewClient(cfg.Credential, cfg.Endpoint, client)
	}
	return t
}

func (t *DirectTransport) Send(ctx context.Context, req emotion.Request) (any, error) {
	if strings.TrimSpace(t.cfg.Credential) == "" {
		return nil, &emotion.TransportError{Kind: emotion.ErrAuth, Message: "api key is not configured"}
	}
	if err := checkDomain(t.cfg); err != nil {
		return nil, err
	}
	if t.chat == nil {
		return t.generate(ctx, req)
	}

	host := t.cfg.Host()
	body, err := t.chat.Complete(ctx, req.Prompt, req.Model)
	if err != nil {
		return nil, chatError(err, host)
	}
	return body, nil
}

type generationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generationRequest struct {
	Model string `json:"model"`
	Input struct {
		Messages []generationMessage `json:"messages"`
	} `json:"input"`
	Parameters struct {
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
	} `json:"parameters"`
}

func (t *DirectTransport) generate(ctx context.Context, req emotion.Request) (any, error) {
	host := t.cfg.Host()

	var body generationRequest
	body.Model = req.Model.Name
	body.Input.Messages = []generationMessage{{Role: "user", Content: req.Prompt}}
	body.Parameters.Temperature = req.Model.Temperature
	body.Parameters.MaxTokens = req.Model.MaxTokens

	headers := map[string]string{
		"Authorization":   "Bearer " + t.cfg.Credential,
		"X-DashScope-SSE": "disable",
	}
	status, data, err := postJSON(ctx, t.client, t.cfg.Endpoint, headers, body, host)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, statusError(status, bodyMessage(data), host)
	}
	if code, msg, failed := providerCode(data); failed {
		if msg == "" {
			msg = "provider error " + code
		}
		return nil, &emotion.TransportError{Kind: emotion.ErrRemoteFailure, StatusCode: status, Host: host, Message: msg}
	}
	return data, nil
}

// providerCode reports whether a 2xx body still carries a provider error code.
func providerCode(data []byte) (code, message string, failed bool) {
	var v struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return "", "", false
	}
	switch c := v.Code.(type) {
	case string:
		return c, v.Message, c != ""
	case float64:
		if c != 0 {
			return strconv.FormatFloat(c, 'f', -1, 64), v.Message, true
		}
	}
	return "", "", false
}
