package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
)

// LLM describes one way of reaching the model.
type LLM struct {
	// Enabled=false skips the model and answers with the keyword analyzer.
	Enabled        *bool               `yaml:"enabled"`
	Mode           emotion.Mode        `yaml:"mode"`
	Endpoint       string              `yaml:"endpoint"`
	FunctionName   string              `yaml:"functionName"`
	APIKey         string              `yaml:"apiKey"`
	AllowedDomains []string            `yaml:"allowedDomains"`
	Model          emotion.ModelParams `yaml:"model"`
}

func (l LLM) IsEnabled() bool { return l.Enabled == nil || *l.Enabled }

// Transport converts the section into the value the analysis service runs on.
func (l LLM) Transport() emotion.TransportConfig {
	return emotion.TransportConfig{
		Mode:           l.Mode,
		Endpoint:       l.Endpoint,
		FunctionName:   l.FunctionName,
		Credential:     l.APIKey,
		AllowedDomains: append([]string(nil), l.AllowedDomains...),
		Model:          l.Model,
	}
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	// LLM is what /v1/analyze uses.
	LLM LLM `yaml:"llm"`

	// Upstream is the provider behind /functions/{name} and /api/emotion-analysis. It is always
	// a direct connection.
	Upstream LLM `yaml:"upstream"`

	Storage struct {
		Driver        string `yaml:"driver"` // memory | mysql | postgres | minio
		MaxValueBytes int    `yaml:"maxValueBytes"`
	} `yaml:"storage"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	RateLimit struct {
		Capacity        int     `yaml:"capacity"`
		RefillPerSecond float64 `yaml:"refillPerSecond"`
	} `yaml:"rateLimit"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`
}

// Load baca file config.yaml, isi default, lalu override dari env
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	defaultLLM(&c.LLM)
	defaultLLM(&c.Upstream)
	c.Upstream.Mode = emotion.ModeDirect

	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.MaxValueBytes == 0 {
		c.Storage.MaxValueBytes = 1 << 20
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "heartnote"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 10
	}
	if c.RateLimit.RefillPerSecond == 0 {
		c.RateLimit.RefillPerSecond = 0.5
	}
}

func defaultLLM(l *LLM) {
	if l.Mode == "" {
		l.Mode = emotion.ModeDirect
	}
	if l.Endpoint == "" {
		l.Endpoint = "https://api.deepseek.com/v1/chat/completions"
	}
	if l.FunctionName == "" {
		l.FunctionName = "emotionAnalysis"
	}
	if l.Model.Provider == "" {
		l.Model.Provider = "openai"
	}
	if l.Model.Name == "" {
		l.Model.Name = "deepseek-chat"
	}
	if l.Model.Temperature == 0 {
		l.Model.Temperature = 0.9
	}
	if l.Model.MaxTokens == 0 {
		l.Model.MaxTokens = 1500
	}
}

// applyEnv lets secrets stay out of the file.
func (c *Config) applyEnv(getenv func(string) string) {
	for _, k := range []string{"LLM_API_KEY", "API_KEY"} {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			c.LLM.APIKey = v
			break
		}
	}
	if v := strings.TrimSpace(getenv("UPSTREAM_API_KEY")); v != "" {
		c.Upstream.APIKey = v
	} else if c.Upstream.APIKey == "" {
		c.Upstream.APIKey = c.LLM.APIKey
	}
	if v := getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := getenv("MINIO_SECRET_KEY"); v != "" {
		c.Minio.SecretKey = v
	}
}

func (c *Config) Validate() error {
	if err := c.LLM.Transport().Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Upstream.Transport().Validate(); err != nil {
		return fmt.Errorf("upstream: %w", err)
	}
	switch c.Storage.Driver {
	case "memory", "mysql", "postgres", "minio":
	default:
		return fmt.Errorf("storage: unknown driver %q", c.Storage.Driver)
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres (lib/pq)
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
