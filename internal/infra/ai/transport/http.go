package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
)

// maxResponseBytes bounds how much of a reply is read into memory.
const maxResponseBytes = 4 << 20

// postJSON sends body as JSON and returns the status and raw response body. Only failures to
// obtain a response are returned as errors; status handling is left to the caller.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body any, host string) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, requestError(err, host)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, requestError(err, host)
	}
	return resp.StatusCode, data, nil
}

// envelope is what managed functions and proxies return.
type envelope struct {
	Success bool            `json:"success"`
	Data    any             `json:"data"`
	Error   json.RawMessage `json:"error"`
}

// openEnvelope validates a {success, data, error} reply and returns data for the normalizer.
func openEnvelope(body []byte, host, fallback string) (any, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &emotion.TransportError{Kind: emotion.ErrRemoteFailure, Host: host, Message: "malformed response envelope", Err: err}
	}
	if !env.Success {
		msg := errorField(env.Error)
		if msg == "" {
			msg = fallback
		}
		return nil, &emotion.TransportError{Kind: emotion.ErrRemoteFailure, Host: host, Message: msg}
	}
	return env.Data, nil
}
