package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Port    string
	GinMode string

	DB struct {
		Driver     string // "postgres" | "sqlite"
		Host       string
		User       string
		Password   string
		Name       string
		Port       string
		SSLMode    string
		SQLitePath string
		Debug      bool
	}

	JWTSecret string
	JWTTTL    time.Duration

	Location *time.Location

	LLM struct {
		Provider        string // "openai" | "vertex"
		Timeout         time.Duration
		OpenAIKey       string
		OpenAIBaseURL   string
		OpenAIModel     string
		VertexProject   string
		VertexLocation  string
		VertexModel     string
		CredentialsFile string
	}

	Storage struct {
		Driver        string // "local" | "s3"
		MediaRoot     string
		MediaURL      string
		S3Bucket      string
		S3Region      string
		CloudFrontURL string
	}

	AWSRegion          string
	RekognitionEnabled bool
	SESEmail           string
	SNSFCMArn          string

	EvaluateRatePerMinute int
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: ignoring .env: %v", err)
	}

	var cfg Config
	cfg.Port = getenv("PORT", "8080")
	cfg.GinMode = getenv("GIN_MODE", "debug")

	cfg.DB.Driver = strings.ToLower(getenv("DB_DRIVER", "postgres"))
	cfg.DB.Host = getenv("DB_HOST", "localhost")
	cfg.DB.User = os.Getenv("DB_USER")
	cfg.DB.Password = os.Getenv("DB_PASSWORD")
	cfg.DB.Name = os.Getenv("DB_NAME")
	cfg.DB.Port = getenv("DB_PORT", "5432")
	cfg.DB.SSLMode = getenv("DB_SSLMODE", "disable")
	cfg.DB.SQLitePath = getenv("SQLITE_PATH", "nutrilens.db")
	cfg.DB.Debug = getbool("DB_DEBUG", false)
	switch cfg.DB.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET not set")
	}
	cfg.JWTTTL = time.Duration(getint("JWT_TTL_HOURS", 72)) * time.Hour

	tz := getenv("APP_TIMEZONE", "Asia/Seoul")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	cfg.LLM.Provider = strings.ToLower(getenv("LLM_PROVIDER", "openai"))
	cfg.LLM.Timeout = time.Duration(getint("LLM_TIMEOUT_SECONDS", 30)) * time.Second
	cfg.LLM.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.LLM.OpenAIBaseURL = getenv("OPENAI_BASE_URL", "https://api.openai.com/v1")
	cfg.LLM.OpenAIModel = getenv("OPENAI_MODEL", "gpt-3.5-turbo")
	cfg.LLM.VertexProject = os.Getenv("VERTEX_PROJECT_ID")
	cfg.LLM.VertexLocation = getenv("VERTEX_LOCATION", "us-central1")
	cfg.LLM.VertexModel = getenv("VERTEX_MODEL", "gemini-1.5-flash")
	cfg.LLM.CredentialsFile = os.Getenv("GOOGLE_CREDENTIALS_FILE")
	switch cfg.LLM.Provider {
	case "openai", "vertex":
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLM.Provider)
	}

	cfg.AWSRegion = os.Getenv("AWS_REGION")
	cfg.Storage.Driver = strings.ToLower(getenv("STORAGE_DRIVER", "local"))
	cfg.Storage.MediaRoot = getenv("MEDIA_ROOT", "media")
	cfg.Storage.MediaURL = getenv("MEDIA_URL", "/media")
	cfg.Storage.S3Bucket = os.Getenv("S3_BUCKET")
	cfg.Storage.S3Region = getenv("S3_REGION", cfg.AWSRegion)
	cfg.Storage.CloudFrontURL = os.Getenv("CLOUDFRONT_URL")
	switch cfg.Storage.Driver {
	case "local":
	case "s3":
		if cfg.Storage.S3Bucket == "" {
			return nil, errors.New("S3_BUCKET not set")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	cfg.RekognitionEnabled = getbool("REKOGNITION_ENABLED", false)
	cfg.SESEmail = os.Getenv("SES_EMAIL")
	cfg.SNSFCMArn = os.Getenv("SNS_FCM_ARN")
	cfg.EvaluateRatePerMinute = getint("EVALUATE_RATE_PER_MINUTE", 6)

	return &cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func getbool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}
