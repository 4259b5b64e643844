package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every configuration section of the service.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	AI       AIConfig
	Image    ImageConfig
	Speech   SpeechConfig
	Auth     AuthConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	database, err := loadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	image := loadImageConfig()
	speech := loadSpeechConfig()
	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Database: database,
		AI:       ai,
		Image:    image,
		Speech:   speech,
		Auth:     auth,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// DatabaseConfig carries the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	url := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if url == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL is not set")
	}

	maxConns := 20
	if override, err := parseOptionalIntEnv("DB_MAX_CONNS"); err != nil {
		return DatabaseConfig{}, err
	} else if override != nil {
		maxConns = *override
	}

	minConns := 5
	if override, err := parseOptionalIntEnv("DB_MIN_CONNS"); err != nil {
		return DatabaseConfig{}, err
	} else if override != nil {
		minConns = *override
	}

	return DatabaseConfig{URL: url, MaxConns: int32(maxConns), MinConns: int32(minConns)}, nil
}

// AIConfig describes the chat model settings.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a chat model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("chat model credentials missing: provide ARK_API_KEY + ARK_MODEL or AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// ImageConfig describes the Together image generation settings.
type ImageConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	ReferenceModel string
	Width          int
	Height         int
	TimeoutSeconds int
	RatePerMinute  int
}

// Enabled reports whether image generation is configured.
func (c ImageConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadImageConfig() ImageConfig {
	width := 1792
	if override, err := parseOptionalIntEnv("IMAGE_WIDTH"); err == nil && override != nil {
		width = *override
	}
	height := 960
	if override, err := parseOptionalIntEnv("IMAGE_HEIGHT"); err == nil && override != nil {
		height = *override
	}
	timeout := 120
	if override, err := parseOptionalIntEnv("IMAGE_TIMEOUT"); err == nil && override != nil {
		timeout = *override
	}
	rate := 12
	if override, err := parseOptionalIntEnv("IMAGE_RATE_PER_MINUTE"); err == nil && override != nil {
		rate = *override
	}

	return ImageConfig{
		APIKey:         strings.TrimSpace(os.Getenv("TOGETHER_API_KEY")),
		BaseURL:        getEnvOrDefault("TOGETHER_BASE_URL", "https://api.together.xyz/v1"),
		Model:          getEnvOrDefault("IMAGE_MODEL", "black-forest-labs/FLUX.1-schnell"),
		ReferenceModel: getEnvOrDefault("IMAGE_REFERENCE_MODEL", "black-forest-labs/FLUX.1-kontext-dev"),
		Width:          width,
		Height:         height,
		TimeoutSeconds: timeout,
		RatePerMinute:  rate,
	}
}

// SpeechConfig describes the TTS/ASR provider settings.
type SpeechConfig struct {
	TTSAPIKey      string
	TTSBaseURL     string
	TTSModel       string
	TTSVoice       string
	ASRAPIKey      string
	ASRBaseURL     string
	ASRModel       string
	TimeoutSeconds int
}

// TTSEnabled reports whether speech synthesis is configured.
func (c SpeechConfig) TTSEnabled() bool { return c.TTSAPIKey != "" }

// ASREnabled reports whether transcription is configured.
func (c SpeechConfig) ASREnabled() bool { return c.ASRAPIKey != "" }

func loadSpeechConfig() SpeechConfig {
	timeout := 60
	if override, err := parseOptionalIntEnv("SPEECH_TIMEOUT"); err == nil && override != nil {
		timeout = *override
	}

	asrKey := strings.TrimSpace(os.Getenv("SPEECH_ASR_API_KEY"))
	if asrKey == "" {
		// The transcription provider shares credentials with image generation.
		asrKey = strings.TrimSpace(os.Getenv("TOGETHER_API_KEY"))
	}

	return SpeechConfig{
		TTSAPIKey:      strings.TrimSpace(os.Getenv("DEEPINFRA_API_KEY")),
		TTSBaseURL:     getEnvOrDefault("SPEECH_TTS_BASE_URL", "https://api.deepinfra.com/v1/openai"),
		TTSModel:       getEnvOrDefault("SPEECH_TTS_MODEL", "hexgrad/Kokoro-82M"),
		TTSVoice:       getEnvOrDefault("SPEECH_TTS_VOICE", "af_bella"),
		ASRAPIKey:      asrKey,
		ASRBaseURL:     getEnvOrDefault("SPEECH_ASR_BASE_URL", "https://api.together.xyz/v1"),
		ASRModel:       getEnvOrDefault("SPEECH_ASR_MODEL", "openai/whisper-large-v3"),
		TimeoutSeconds: timeout,
	}
}

// AuthConfig carries token signing settings.
type AuthConfig struct {
	JWTSecret     string
	TokenTTLHours int
}

func loadAuthConfig() (AuthConfig, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return AuthConfig{}, fmt.Errorf("JWT_SECRET is not set")
	}

	ttl := 72
	if override, err := parseOptionalIntEnv("JWT_TTL_HOURS"); err != nil {
		return AuthConfig{}, err
	} else if override != nil {
		ttl = *override
	}

	return AuthConfig{JWTSecret: secret, TokenTTLHours: ttl}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
