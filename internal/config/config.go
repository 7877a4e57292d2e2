// Package config handles loading and validating the asistan configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the asistan daemon.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Transports    TransportsConfig    `mapstructure:"transports"`
	Completion    CompletionConfig    `mapstructure:"completion"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Speech        SpeechConfig        `mapstructure:"speech"`
	Launcher      LauncherConfig      `mapstructure:"launcher"`
	Apps          AppsConfig          `mapstructure:"apps"`
	Store         StoreConfig         `mapstructure:"store"`
	TTS           TTSConfig           `mapstructure:"tts"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP/WebSocket transport.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// CompletionConfig selects and configures the chat completion backend.
type CompletionConfig struct {
	Backend      string                 `mapstructure:"backend"` // "openai" or "local"
	SystemPrompt string                 `mapstructure:"system_prompt"`
	OpenAI       OpenAICompletionConfig `mapstructure:"openai"`
	Local        OllamaConfig           `mapstructure:"local"`
}

// OpenAICompletionConfig holds OpenAI chat settings.
type OpenAICompletionConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// OllamaConfig holds the self-hosted completion settings.
type OllamaConfig struct {
	Host  string `mapstructure:"host"`  // e.g. http://localhost:11434
	Model string `mapstructure:"model"` // Ollama model name (e.g., "llama3.2")
}

// TranscriptionConfig selects and configures the speech-to-text backend.
type TranscriptionConfig struct {
	Backend  string                    `mapstructure:"backend"`  // "openai" or "local"
	Language string                    `mapstructure:"language"` // ISO-639-1 hint sent with every request
	OpenAI   OpenAITranscriptionConfig `mapstructure:"openai"`
	Local    WhisperConfig             `mapstructure:"local"`
}

// OpenAITranscriptionConfig holds OpenAI audio settings.
type OpenAITranscriptionConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// WhisperConfig holds self-hosted Whisper settings.
type WhisperConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Type     string `mapstructure:"type"` // "openai" (default) or "asr" (whisper-asr-webservice)
}

// SpeechConfig controls encoding negotiation for voice capture.
type SpeechConfig struct {
	PreferredEncodings []string `mapstructure:"preferred_encodings"`
	AcceptedEncodings  []string `mapstructure:"accepted_encodings"`
	FallbackEncoding   string   `mapstructure:"fallback_encoding"`
}

// LauncherConfig controls how confirmed app opens are carried out.
type LauncherConfig struct {
	NativeWait time.Duration `mapstructure:"native_wait"`
	Command    string        `mapstructure:"command"` // desktop opener, e.g. xdg-open
}

// AppsConfig points at an optional registry override file.
type AppsConfig struct {
	RegistryFile string `mapstructure:"registry_file"`
}

// StoreConfig selects the durable store.
type StoreConfig struct {
	Backend string       `mapstructure:"backend"` // "sqlite", "redis" or "memory"
	SQLite  SQLiteConfig `mapstructure:"sqlite"`
	Redis   RedisConfig  `mapstructure:"redis"`
}

// SQLiteConfig holds the sqlite backend settings.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig holds the redis backend settings.
type RedisConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

// TTSConfig selects and configures the text-to-speech backend.
type TTSConfig struct {
	Enabled bool            `mapstructure:"enabled"`
	Backend string          `mapstructure:"backend"` // "piper" or "openai"
	Piper   PiperConfig     `mapstructure:"piper"`
	OpenAI  OpenAITTSConfig `mapstructure:"openai"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// Endpoints maps ISO-639-1 codes to per-language Wyoming endpoints and takes
// precedence over Endpoint.
type PiperConfig struct {
	Endpoint  string            `mapstructure:"endpoint"`
	Endpoints map[string]string `mapstructure:"endpoints"`
	Voices    map[string]string `mapstructure:"voices"`
}

// OpenAITTSConfig holds OpenAI speech settings. The API key and base URL are
// shared with the completion backend.
type OpenAITTSConfig struct {
	Model string `mapstructure:"model"`
	Voice string `mapstructure:"voice"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// DefaultSystemPrompt instructs the completion service to answer in Turkish
// and to announce reminders in the labeled format the reply scanner reads.
const DefaultSystemPrompt = `Sen yardımcı bir Türkçe asistansın. Kısa ve net cevaplar ver.
Kullanıcı bir hatırlatıcı oluşturmak isterse cevabını şu formatta ver:
Başlık: <başlık>
Tarih: <YYYY-AA-GG>
Saat: <SS:DD>
Açıklama: <isteğe bağlı açıklama>
Kullanıcı bir uygulama açmak isterse "<uygulama> uygulamasını açmak istediğinizi anladım" şeklinde onay iste.`

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./asistan.yaml, ./configs/asistan.yaml, /etc/asistan/asistan.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.grpc.enabled", true)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("completion.backend", "openai")
	v.SetDefault("completion.system_prompt", DefaultSystemPrompt)
	v.SetDefault("completion.openai.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("completion.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("completion.openai.model", "gpt-4o-mini")
	v.SetDefault("completion.openai.temperature", 0.7)
	v.SetDefault("completion.openai.max_tokens", 500)
	v.SetDefault("completion.local.host", "http://localhost:11434")
	v.SetDefault("completion.local.model", "llama3.2")
	v.SetDefault("transcription.backend", "openai")
	v.SetDefault("transcription.language", "tr")
	v.SetDefault("transcription.openai.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("transcription.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("transcription.openai.model", "whisper-1")
	v.SetDefault("transcription.local.endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("transcription.local.type", "openai")
	v.SetDefault("speech.preferred_encodings", []string{"audio/mp3", "audio/mp4", "audio/webm", "audio/ogg", "audio/wav"})
	v.SetDefault("speech.accepted_encodings", []string{"audio/mp3", "audio/mp4", "audio/mpeg", "audio/mpga", "audio/wav", "audio/webm", "audio/ogg"})
	v.SetDefault("speech.fallback_encoding", "audio/mp3")
	v.SetDefault("launcher.native_wait", 500*time.Millisecond)
	v.SetDefault("launcher.command", "xdg-open")
	v.SetDefault("apps.registry_file", "")
	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.sqlite.path", "data/asistan.db")
	v.SetDefault("store.redis.url", "redis://localhost:6379/0")
	v.SetDefault("store.redis.prefix", "asistan:")
	v.SetDefault("tts.enabled", false)
	v.SetDefault("tts.backend", "piper")
	v.SetDefault("tts.piper.endpoint", "localhost:10200")
	v.SetDefault("tts.openai.model", "tts-1")
	v.SetDefault("tts.openai.voice", "alloy")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("asistan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/asistan")
	}

	// Environment variables: ASISTAN_SERVER_HEALTH_PORT, ASISTAN_STORE_BACKEND, etc.
	v.SetEnvPrefix("ASISTAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The file is optional; env vars and defaults are sufficient.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${OPENAI_API_KEY}")
	cfg.Completion.OpenAI.APIKey = resolveEnvRef(cfg.Completion.OpenAI.APIKey)
	cfg.Transcription.OpenAI.APIKey = resolveEnvRef(cfg.Transcription.OpenAI.APIKey)
	cfg.Store.Redis.URL = resolveEnvRef(cfg.Store.Redis.URL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if err := oneOf("completion.backend", c.Completion.Backend, "openai", "local"); err != nil {
		return err
	}
	if err := oneOf("transcription.backend", c.Transcription.Backend, "openai", "local"); err != nil {
		return err
	}
	if err := oneOf("store.backend", c.Store.Backend, "sqlite", "redis", "memory"); err != nil {
		return err
	}
	if c.TTS.Enabled {
		if err := oneOf("tts.backend", c.TTS.Backend, "piper", "openai"); err != nil {
			return err
		}
	}
	if len(c.Speech.PreferredEncodings) == 0 {
		return fmt.Errorf("speech.preferred_encodings must not be empty")
	}
	if c.Launcher.NativeWait < 0 {
		return fmt.Errorf("launcher.native_wait must not be negative")
	}
	return nil
}

func oneOf(key, val string, allowed ...string) error {
	for _, a := range allowed {
		if val == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (want one of %s)", key, val, strings.Join(allowed, ", "))
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
// An unset variable resolves to the empty string.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return os.Getenv(val[2 : len(val)-1])
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
