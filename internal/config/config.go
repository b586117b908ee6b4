// Package config builds the process configuration at start-up.
// Values come from an optional YAML file, then environment variables
// (a local .env file is loaded first when present).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreDriverPostgres  = "postgres"
	StoreDriverFirestore = "firestore"

	AuthModeFirebase = "firebase"
	AuthModeJWT      = "jwt"
)

type Config struct {
	Env string `yaml:"env"`

	HTTP struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Store struct {
		Driver      string `yaml:"driver"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"store"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Google struct {
		ProjectID       string `yaml:"project_id"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"google"`

	Auth struct {
		Mode      string `yaml:"mode"`
		JWTSecret string `yaml:"jwt_secret"`
		JWTIssuer string `yaml:"jwt_issuer"`
	} `yaml:"auth"`

	Moderation struct {
		GeminiAPIKey   string `yaml:"gemini_api_key"`
		GeminiModel    string `yaml:"gemini_model"`
		UseVertex      bool   `yaml:"use_vertex"`
		VertexLocation string `yaml:"vertex_location"`
		ImageThreshold string `yaml:"image_threshold"`
	} `yaml:"moderation"`

	Telegram struct {
		BotToken    string `yaml:"bot_token"`
		StaffChatID int64  `yaml:"staff_chat_id"`
	} `yaml:"telegram"`

	LocalesDir string `yaml:"locales_dir"`
}

// Default returns a configuration suitable for local development.
func Default() Config {
	var cfg Config
	cfg.Env = "development"
	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Log.Level = "info"
	cfg.Store.Driver = StoreDriverPostgres
	cfg.Redis.Addr = "localhost:6379"
	cfg.Auth.Mode = AuthModeFirebase
	cfg.Auth.JWTIssuer = "smartcampus-dev"
	cfg.Moderation.GeminiModel = "gemini-2.0-flash"
	cfg.Moderation.VertexLocation = "us-central1"
	cfg.Moderation.ImageThreshold = "LIKELY"
	return cfg
}

// IsDevelopment reports whether the process runs in a development environment.
func (c Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

// Load builds the configuration: defaults, then CONFIG_FILE (YAML) if set,
// then environment variables. The result is validated.
func Load() (Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	envString("APP_ENV", &cfg.Env)
	envString("HTTP_ADDR", &cfg.HTTP.Addr)
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	envList("CORS_ALLOWED_ORIGINS", &cfg.HTTP.AllowedOrigins)
	envString("LOG_LEVEL", &cfg.Log.Level)

	envString("STORE_DRIVER", &cfg.Store.Driver)
	envString("DATABASE_URL", &cfg.Store.PostgresDSN)

	envString("REDIS_ADDR", &cfg.Redis.Addr)
	envString("REDIS_PASSWORD", &cfg.Redis.Password)
	if err := envInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}

	envString("GOOGLE_CLOUD_PROJECT", &cfg.Google.ProjectID)
	envString("GOOGLE_APPLICATION_CREDENTIALS", &cfg.Google.CredentialsFile)

	envString("AUTH_MODE", &cfg.Auth.Mode)
	envString("JWT_SECRET", &cfg.Auth.JWTSecret)
	envString("JWT_ISSUER", &cfg.Auth.JWTIssuer)

	envString("GEMINI_API_KEY", &cfg.Moderation.GeminiAPIKey)
	envString("GEMINI_MODEL", &cfg.Moderation.GeminiModel)
	envString("VERTEX_LOCATION", &cfg.Moderation.VertexLocation)
	envString("IMAGE_UNSAFE_THRESHOLD", &cfg.Moderation.ImageThreshold)
	if err := envBool("GEMINI_USE_VERTEX", &cfg.Moderation.UseVertex); err != nil {
		return err
	}

	envString("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_STAFF_CHAT_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_STAFF_CHAT_ID: %w", err)
		}
		cfg.Telegram.StaffChatID = id
	}

	envString("LOCALES_DIR", &cfg.LocalesDir)
	return nil
}

// Validate checks that the selected drivers have what they need.
func (c Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("store: DATABASE_URL is required for the postgres driver"))
		}
	case StoreDriverFirestore:
		if c.Google.ProjectID == "" {
			errs = append(errs, errors.New("store: GOOGLE_CLOUD_PROJECT is required for the firestore driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store: unknown driver %q", c.Store.Driver))
	}

	switch c.Auth.Mode {
	case AuthModeFirebase:
		if c.Google.ProjectID == "" {
			errs = append(errs, errors.New("auth: GOOGLE_CLOUD_PROJECT is required for firebase auth"))
		}
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("auth: JWT_SECRET is required for jwt auth"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth: unknown mode %q", c.Auth.Mode))
	}

	if c.Moderation.UseVertex {
		if c.Google.ProjectID == "" || c.Moderation.VertexLocation == "" {
			errs = append(errs, errors.New("moderation: GOOGLE_CLOUD_PROJECT and VERTEX_LOCATION are required for vertex"))
		}
	} else if c.Moderation.GeminiAPIKey == "" {
		errs = append(errs, errors.New("moderation: GEMINI_API_KEY is required"))
	}
	if c.Moderation.GeminiModel == "" {
		errs = append(errs, errors.New("moderation: GEMINI_MODEL must not be empty"))
	}

	if c.Telegram.BotToken != "" && c.Telegram.StaffChatID == 0 {
		errs = append(errs, errors.New("telegram: TELEGRAM_STAFF_CHAT_ID is required when a bot token is set"))
	}

	return errors.Join(errs...)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func envList(key string, dst *[]string) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func envInt(key string, dst *int) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
