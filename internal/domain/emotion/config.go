package emotion

import (
	"fmt"
	"net/url"
	"strings"
)

// Mode selects how the LLM is reached.
type Mode string

const (
	ModeFunction Mode = "function" // managed server-side function
	ModeDirect   Mode = "direct"   // provider HTTP API
	ModeProxy    Mode = "proxy"    // caller-owned backend
)

// ProviderQwen is the only provider using the generation envelope; everything else speaks the
// OpenAI chat format.
const ProviderQwen = "qwen"

// ModelParams is sent verbatim to function and proxy backends as "model".
type ModelParams struct {
	Provider    string  `json:"provider" yaml:"provider"`
	Name        string  `json:"modelName" yaml:"name"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"maxTokens" yaml:"maxTokens"`
}

// TransportConfig is an immutable value; callers replace it whole, never field by field.
type TransportConfig struct {
	Mode           Mode
	Endpoint       string
	FunctionName   string
	Credential     string
	AllowedDomains []string
	Model          ModelParams
}

func (c TransportConfig) Validate() error {
	switch c.Mode {
	case ModeFunction:
		if strings.TrimSpace(c.FunctionName) == "" {
			return fmt.Errorf("function mode requires a function name")
		}
	case ModeDirect, ModeProxy:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Mode)
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid endpoint scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint has no host")
	}
	return nil
}

// Host is the endpoint host without port, or "" when the endpoint does not parse.
func (c TransportConfig) Host() string {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// DomainAllowed reports whether host may be contacted. An empty allow-list allows everything.
func (c TransportConfig) DomainAllowed(host string) bool {
	if len(c.AllowedDomains) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, d := range c.AllowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
