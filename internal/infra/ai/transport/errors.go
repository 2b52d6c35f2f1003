package transport

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
)

// requestError classifies a failure to get any HTTP response at all.
func requestError(err error, host string) error {
	var te *emotion.TransportError
	if errors.As(err, &te) {
		return te
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return &emotion.TransportError{Kind: emotion.ErrDomainNotAllowed, Host: host, Err: err}
	}
	return &emotion.TransportError{Kind: emotion.ErrNetwork, Host: host, Err: err}
}

// statusError classifies a non-2xx response.
func statusError(code int, message, host string) error {
	kind := emotion.ErrHTTPStatus
	if code == http.StatusUnauthorized {
		kind = emotion.ErrAuth
	}
	return &emotion.TransportError{Kind: kind, StatusCode: code, Host: host, Message: message}
}

// chatError maps go-openai failures onto the same taxonomy as the plain HTTP transports.
func chatError(err error, host string) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return statusError(apiErr.HTTPStatusCode, apiErr.Message, host)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return statusError(reqErr.HTTPStatusCode, bodyMessage(reqErr.Body), host)
	}
	return requestError(err, host)
}

// bodyMessage pulls a human readable message out of an error body: "message", "error.message"
// or a plain "error" string.
func bodyMessage(body []byte) string {
	var v struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return truncate(strings.TrimSpace(string(body)), 200)
	}
	if v.Message != "" {
		return v.Message
	}
	return errorField(v.Error)
}

// errorField reads an "error" value that is either a string or {"message": "..."}.
func errorField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
