package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Keys    APIKeys
	Ai      AIConfig
	OCR     OCRConfig
	Session SessionConfig
}

type AppConfig struct {
	Port        string
	Environment string
	LogFilePath string
	MaxUploadMB int
}

type APIKeys struct {
	OpenAI       string
	GoogleGemini string
}

type AIConfig struct {
	LLMProvider   string // "openai" or "gemini"
	LLMModel      string // empty means the provider default
	OpenAIBaseURL string
}

type OCRConfig struct {
	Provider      string // "tesseract" or "gemini"
	TesseractPath string
	TesseractLang string
}

type SessionConfig struct {
	TTLMinutes int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:        getEnv("APP_PORT", "8501"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "studybuddy.log"),
			MaxUploadMB: getEnvAsInt("MAX_UPLOAD_MB", 20),
		},
		Keys: APIKeys{
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:   strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			LLMModel:      getEnv("LLM_MODEL", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		},
		OCR: OCRConfig{
			Provider:      strings.ToLower(getEnv("OCR_PROVIDER", "tesseract")),
			TesseractPath: getEnv("TESSERACT_PATH", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
		},
		Session: SessionConfig{
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 60),
		},
	}
}

// APIKey returns the key for the selected LLM provider.
func (c *Config) APIKey() string {
	if c.Ai.LLMProvider == "gemini" {
		return c.Keys.GoogleGemini
	}
	return c.Keys.OpenAI
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) SessionTTL() time.Duration {
	if c.Session.TTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

func (c *Config) MaxUploadBytes() int64 {
	if c.App.MaxUploadMB <= 0 {
		return 20 << 20
	}
	return int64(c.App.MaxUploadMB) << 20
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
