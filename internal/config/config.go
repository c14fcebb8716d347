package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"prepdeck/internal/domain"
)

// Session tuning bounds. The question count mirrors the settings slider; the
// auto-submit delay is the grace period after a final voice result.
const (
	MinTotalQuestions = 3
	MaxTotalQuestions = 10

	MinAutoSubmitDelay = 500 * time.Millisecond
	MaxAutoSubmitDelay = 1500 * time.Millisecond
)

// Config stores runtime configuration for the app.
type Config struct {
	Generation GenerationConfig
	Speech     SpeechConfig
	Audio      AudioConfig
	Session    SessionConfig
	Storage    StorageConfig
	Roles      []domain.JobRole
}

type GenerationConfig struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
	Provider   string
	Timeout    time.Duration
}

type SpeechConfig struct {
	APIKey     string
	APIBaseURL string
	Model      string
	Language   string
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type SessionConfig struct {
	TotalQuestions  int
	AutoSubmitDelay time.Duration
	ChunkSize       int
}

type StorageConfig struct {
	DataDir       string
	InterviewFile string
	QuestionsFile string
	RulesFile     string
}

// Load resolves configuration from environment variables and sensible defaults.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	dataDir := envOrDefault("PREPDECK_DATA_DIR", filepath.Join(home, ".local", "share", "prepdeck"))

	cfg := Config{
		Generation: GenerationConfig{
			APIKey:     strings.TrimSpace(os.Getenv("AZURE_OPENAI_API_KEY")),
			Endpoint:   envOrDefault("AZURE_OPENAI_ENDPOINT", "https://api.openai.azure.com"),
			Deployment: envOrDefault("AZURE_OPENAI_DEPLOYMENT", "gpt-4o"),
			APIVersion: envOrDefault("AZURE_OPENAI_API_VERSION", "2024-06-01"),
			Provider:   envOrDefault("PREPDECK_PROVIDER", "azure-gpt-4o"),
			Timeout:    time.Duration(envOrDefaultInt("PREPDECK_GENERATION_TIMEOUT_MS", 120000)) * time.Millisecond,
		},
		Speech: SpeechConfig{
			APIKey:     strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL: envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:      envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			Language:   envOrDefault("DEEPGRAM_LANGUAGE", "en-US"),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("PREPDECK_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("PREPDECK_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("PREPDECK_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("PREPDECK_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("PREPDECK_CHANNELS", 1),
		},
		Session: SessionConfig{
			TotalQuestions:  ClampTotalQuestions(envOrDefaultInt("PREPDECK_TOTAL_QUESTIONS", 5)),
			AutoSubmitDelay: clampAutoSubmitDelay(time.Duration(envOrDefaultInt("PREPDECK_AUTO_SUBMIT_DELAY_MS", 1500)) * time.Millisecond),
			ChunkSize:       envOrDefaultInt("PREPDECK_AUDIO_CHUNK_SIZE", 4096),
		},
		Storage: StorageConfig{
			DataDir:       dataDir,
			InterviewFile: filepath.Join(dataDir, "interview_history.json"),
			QuestionsFile: filepath.Join(dataDir, "tech_questions.json"),
			RulesFile:     strings.TrimSpace(os.Getenv("PREPDECK_RULES_FILE")),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = 4096
	}

	roles, err := loadRoles(strings.TrimSpace(os.Getenv("PREPDECK_ROLES_FILE")))
	if err != nil {
		return Config{}, err
	}
	cfg.Roles = roles

	return cfg, nil
}

// ClampTotalQuestions bounds the configured question count to the
// supported range.
func ClampTotalQuestions(n int) int {
	if n < MinTotalQuestions {
		return MinTotalQuestions
	}
	if n > MaxTotalQuestions {
		return MaxTotalQuestions
	}
	return n
}

func clampAutoSubmitDelay(d time.Duration) time.Duration {
	if d < MinAutoSubmitDelay {
		return MinAutoSubmitDelay
	}
	if d > MaxAutoSubmitDelay {
		return MaxAutoSubmitDelay
	}
	return d
}

// DefaultRoles is the built-in interview role catalog, overridable through a
// YAML file.
func DefaultRoles() []domain.JobRole {
	return []domain.JobRole{
		{ID: "software-engineer", Title: "Software Engineer", Description: "Coding, algorithms, and system design questions"},
		{ID: "data-scientist", Title: "Data Scientist", Description: "Statistics, machine learning, and data questions"},
		{ID: "marketing", Title: "Marketing", Description: "Campaigns, branding, and growth questions"},
		{ID: "product-manager", Title: "Product Manager", Description: "Strategy, prioritization, and execution questions"},
		{ID: "designer", Title: "Designer", Description: "UX, visual design, and process questions"},
	}
}

func loadRoles(path string) ([]domain.JobRole, error) {
	if path == "" {
		return DefaultRoles(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultRoles(), nil
		}
		return nil, fmt.Errorf("failed to read roles file %q: %w", path, err)
	}

	var parsed struct {
		Roles []domain.JobRole `yaml:"roles"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse roles file %q: %w", path, err)
	}
	if len(parsed.Roles) == 0 {
		return DefaultRoles(), nil
	}

	for i, role := range parsed.Roles {
		if strings.TrimSpace(role.ID) == "" {
			return nil, fmt.Errorf("roles file %q: role %d has no id", path, i+1)
		}
	}
	return parsed.Roles, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
