package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	Logging     LoggingConfig    `mapstructure:"logging"`
	Server      ServerConfig     `mapstructure:"server"`
	Endpoint    EndpointConfig   `mapstructure:"endpoint"`
	Pipeline    PipelineConfig   `mapstructure:"pipeline"`
	Media       MediaConfig      `mapstructure:"media"`
	Summarizer  SummarizerConfig `mapstructure:"summarizer"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Watch       WatchConfig      `mapstructure:"watch"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// EndpointConfig holds the coordinates and credentials of the remote
// speech-to-text endpoint.
type EndpointConfig struct {
	Namespace     string        `mapstructure:"namespace"`
	Name          string        `mapstructure:"name"`
	InvocationURL string        `mapstructure:"url"`
	Token         string        `mapstructure:"token"`
	APIBase       string        `mapstructure:"api_base"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
}

type PipelineConfig struct {
	SegmentCount   int           `mapstructure:"segment_count"`
	StagingRoot    string        `mapstructure:"staging_root"`
	Workers        int           `mapstructure:"workers"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type MediaConfig struct {
	YtDlpPath    string `mapstructure:"ytdlp_path"`
	FFmpegPath   string `mapstructure:"ffmpeg_path"`
	FFprobePath  string `mapstructure:"ffprobe_path"`
	AudioQuality string `mapstructure:"audio_quality"`
}

type SummarizerConfig struct {
	Provider  string `mapstructure:"provider"`
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type WatchConfig struct {
	Inbox  string `mapstructure:"inbox"`
	Output string `mapstructure:"output"`
}

// envBindings maps config keys to the environment names used by the
// existing deployment.
var envBindings = map[string][]string{
	"environment":           {"ENVIRONMENT"},
	"logging.level":         {"LOG_LEVEL"},
	"server.port":           {"PORT"},
	"endpoint.token":        {"HF_TOKEN"},
	"endpoint.namespace":    {"HF_NAMESPACE"},
	"endpoint.name":         {"HF_INFERENCE_ENDPOINT_NAME"},
	"endpoint.url":          {"HF_INFERENCE_ENDPOINT_URL"},
	"summarizer.provider":   {"LLM_PROVIDER"},
	"summarizer.model":      {"LLM_MODEL", "CLAUDE_MODEL"},
	"summarizer.api_key":    {"LLM_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY"},
	"summarizer.base_url":   {"LLM_BASE_URL"},
	"database.url":          {"DATABASE_URL"},
	"pipeline.staging_root": {"STAGING_DIR"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "local")
	v.SetDefault("logging.level", "info")

	v.SetDefault("server.port", "7860")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Minute)

	v.SetDefault("endpoint.api_base", "https://api.endpoints.huggingface.cloud/v2/endpoint")
	v.SetDefault("endpoint.poll_interval", 5*time.Second)
	v.SetDefault("endpoint.max_attempts", 60)

	v.SetDefault("pipeline.segment_count", 4)
	v.SetDefault("pipeline.staging_root", "./staging")
	v.SetDefault("pipeline.workers", 1)
	v.SetDefault("pipeline.request_timeout", 10*time.Minute)

	v.SetDefault("media.ytdlp_path", "yt-dlp")
	v.SetDefault("media.ffmpeg_path", "ffmpeg")
	v.SetDefault("media.ffprobe_path", "ffprobe")
	v.SetDefault("media.audio_quality", "192K")

	v.SetDefault("summarizer.provider", "openai")
	v.SetDefault("summarizer.max_tokens", 8000)

	v.SetDefault("watch.inbox", "data/inbox")
	v.SetDefault("watch.output", "data/summaries")
}

// Load reads .env (if present), then the optional config file, then the
// environment. Later sources win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // loads .env

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PODSUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings every command needs and fills in defaults
// for zero values. Endpoint credentials are checked separately by
// ValidateEndpoint because not every command talks to the endpoint.
func (c *Config) Validate() error {
	if c.Pipeline.SegmentCount <= 0 {
		return fmt.Errorf("pipeline.segment_count must be positive, got %d", c.Pipeline.SegmentCount)
	}
	if c.Pipeline.StagingRoot == "" {
		return fmt.Errorf("pipeline.staging_root is required")
	}
	if c.Endpoint.MaxAttempts <= 0 {
		return fmt.Errorf("endpoint.max_attempts must be positive, got %d", c.Endpoint.MaxAttempts)
	}
	if c.Endpoint.PollInterval < 0 {
		return fmt.Errorf("endpoint.poll_interval must not be negative")
	}
	switch c.Summarizer.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("summarizer.provider must be openai or gemini, got %q", c.Summarizer.Provider)
	}

	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 1
	}
	if c.Summarizer.MaxTokens <= 0 {
		c.Summarizer.MaxTokens = 8000
	}
	if c.Endpoint.APIBase == "" {
		c.Endpoint.APIBase = "https://api.endpoints.huggingface.cloud/v2/endpoint"
	}
	return nil
}

// ValidateEndpoint reports every missing endpoint setting at once.
func (c *Config) ValidateEndpoint() error {
	var errs []error
	if c.Endpoint.Token == "" {
		errs = append(errs, errors.New("endpoint.token (HF_TOKEN) is required"))
	}
	if c.Endpoint.Namespace == "" {
		errs = append(errs, errors.New("endpoint.namespace (HF_NAMESPACE) is required"))
	}
	if c.Endpoint.Name == "" {
		errs = append(errs, errors.New("endpoint.name (HF_INFERENCE_ENDPOINT_NAME) is required"))
	}
	if c.Endpoint.InvocationURL == "" {
		errs = append(errs, errors.New("endpoint.url (HF_INFERENCE_ENDPOINT_URL) is required"))
	}
	return errors.Join(errs...)
}
