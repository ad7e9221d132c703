package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret             string `yaml:"secret"`
	Issuer             string `yaml:"issuer"`
	Audience           string `yaml:"audience"`
	AccessTokenMinutes int    `yaml:"access_token_minutes"`
	RefreshTokenDays   int    `yaml:"refresh_token_days"`
}

type GoogleAuthConfig struct {
	ClientID     string `yaml:"client_id"`
	TokenInfoURL string `yaml:"token_info_url"`
}

type SMTPConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Sender     string `yaml:"sender"`
	Password   string `yaml:"password"`
	SenderName string `yaml:"sender_name"`
}

type AppConfig struct {
	Name                string `yaml:"name"`
	ClientAppURL        string `yaml:"client_app_url"`
	TasksAccessPassword string `yaml:"tasks_access_password"`
}

type SearchConfig struct {
	APIKey   string `yaml:"api_key"`
	EngineID string `yaml:"engine_id"`
	URL      string `yaml:"url"`
	Depth    int    `yaml:"depth"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type WorkerConfig struct {
	MaxRetries int `yaml:"max_retries"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type Config struct {
	DB     DBConfig         `yaml:"db"`
	MQ     MQConfig         `yaml:"mq"`
	Redis  RedisConfig      `yaml:"redis"`
	JWT    JWTConfig        `yaml:"jwt"`
	Google GoogleAuthConfig `yaml:"google"`
	SMTP   SMTPConfig       `yaml:"smtp"`
	App    AppConfig        `yaml:"app"`
	Search SearchConfig     `yaml:"search"`
	OpenAI OpenAIConfig     `yaml:"openai"`
	Worker WorkerConfig     `yaml:"worker"`
	Server ServerConfig     `yaml:"server"`
}

func Load() *Config {
	// A local .env supplements the process environment in development.
	_ = godotenv.Load()

	f, err := os.Open("config.yaml")
	if err != nil {
		log.Fatalf("failed to open config.yaml: %v", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config.yaml: %v", err)
	}

	applyDefaults(&cfg)
	overrideFromEnv(&cfg)

	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.JWT.AccessTokenMinutes == 0 {
		cfg.JWT.AccessTokenMinutes = 60
	}
	if cfg.JWT.RefreshTokenDays == 0 {
		cfg.JWT.RefreshTokenDays = 7
	}
	if cfg.Google.TokenInfoURL == "" {
		cfg.Google.TokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	}
	if cfg.Search.URL == "" {
		cfg.Search.URL = "https://www.googleapis.com/customsearch/v1"
	}
	if cfg.Search.Depth == 0 {
		cfg.Search.Depth = 10
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.App.Name == "" {
		cfg.App.Name = "Dassyor"
	}
}

func overrideFromEnv(cfg *Config) {
	// DB
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	// MQ
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	// Redis
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	// JWT
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if issuer := os.Getenv("JWT_ISSUER"); issuer != "" {
		cfg.JWT.Issuer = issuer
	}
	if audience := os.Getenv("JWT_AUDIENCE"); audience != "" {
		cfg.JWT.Audience = audience
	}

	// Google auth
	if clientID := os.Getenv("GOOGLE_OAUTH_CLIENT_ID"); clientID != "" {
		cfg.Google.ClientID = clientID
	}

	// SMTP
	if host := os.Getenv("EMAIL_SMTP_HOST"); host != "" {
		cfg.SMTP.Host = host
	}
	if port := os.Getenv("EMAIL_SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.SMTP.Port = p
		}
	}
	if sender := os.Getenv("EMAIL_SENDER"); sender != "" {
		cfg.SMTP.Sender = sender
	}
	if password := os.Getenv("EMAIL_SENDER_PASSWORD"); password != "" {
		cfg.SMTP.Password = password
	}
	if name := os.Getenv("EMAIL_SENDER_NAME"); name != "" {
		cfg.SMTP.SenderName = name
	}

	// App
	if url := os.Getenv("CLIENT_APP_URL"); url != "" {
		cfg.App.ClientAppURL = url
	}
	if password := os.Getenv("TASKS_ACCESS_PASSWORD"); password != "" {
		cfg.App.TasksAccessPassword = password
	}

	// Search
	if key := os.Getenv("GOOGLE_SEARCH_API_KEY"); key != "" {
		cfg.Search.APIKey = key
	}
	if cx := os.Getenv("GOOGLE_CSE_ID"); cx != "" {
		cfg.Search.EngineID = cx
	}

	// OpenAI
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAI.APIKey = key
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.OpenAI.Model = model
	}

	// Server
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}
}
