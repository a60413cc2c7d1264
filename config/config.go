// Package config carrega a configuração do servidor a partir do .env e das
// variáveis de ambiente.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"

	"symples/utilities"
)

const (
	DefaultPort              = "8080"
	DefaultCacheTTL          = 5 * time.Minute
	DefaultCalendarCacheSize = 10
	DefaultCalendarCacheTTL  = 5 * time.Minute
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultAIModel           = "gpt-4o-mini"
)

type DatabaseConfig struct {
	Host     string `koanf:"db_host"`
	Port     string `koanf:"db_port"`
	User     string `koanf:"db_user"`
	Password string `koanf:"db_password"`
	Name     string `koanf:"db_name"`
	SSLMode  string `koanf:"db_sslmode"`
}

// DSN monta a string de conexão do lib/pq.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type Config struct {
	ServerPort      string        `koanf:"server_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	Database DatabaseConfig `koanf:",squash"`

	// RedisURL vazio desliga o cache das listagens.
	RedisURL string        `koanf:"redis_url"`
	CacheTTL time.Duration `koanf:"cache_ttl"`

	CalendarCacheSize int           `koanf:"calendar_cache_size"`
	CalendarCacheTTL  time.Duration `koanf:"calendar_cache_ttl"`

	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	FirebaseCredentialsPath string `koanf:"firebase_credentials_path"`

	// Sem AIAPIKey o quick-add usa só as heurísticas.
	AIAPIKey  string `koanf:"ai_api_key"`
	AIModel   string `koanf:"ai_model"`
	AIBaseURL string `koanf:"ai_base_url"`

	LogLevel string `koanf:"log_level"`
	LogJSON  bool   `koanf:"log_json"`
}

// Load lê envFile (opcional) e depois o ambiente. Variáveis já definidas no
// ambiente têm precedência sobre o arquivo.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("carregar %s: %w", envFile, err)
			}
			utilities.LogWarn("Arquivo %s não encontrado, usando apenas variáveis de ambiente", envFile)
		}
	}

	k := koanf.New(".")
	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("carregar variáveis de ambiente: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decodificar configuração: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envValue normaliza a chave e separa as listas por vírgula.
func envValue(key, value string) (string, interface{}) {
	key = strings.ToLower(key)
	if key == "cors_allowed_origins" {
		return key, splitList(value)
	}
	return key, value
}

func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func applyDefaults(cfg *Config) {
	if cfg.ServerPort == "" {
		cfg.ServerPort = DefaultPort
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.CalendarCacheSize <= 0 {
		cfg.CalendarCacheSize = DefaultCalendarCacheSize
	}
	if cfg.CalendarCacheTTL <= 0 {
		cfg.CalendarCacheTTL = DefaultCalendarCacheTTL
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.AIModel == "" {
		cfg.AIModel = DefaultAIModel
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.ServerPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("SERVER_PORT inválida: %q", c.ServerPort)
	}
	if _, err := strconv.Atoi(c.Database.Port); err != nil {
		return fmt.Errorf("DB_PORT inválida: %q", c.Database.Port)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL inválido: %q", c.LogLevel)
	}
	return nil
}

// AIEnabled indica se há chave para o modelo de linguagem.
func (c *Config) AIEnabled() bool { return c.AIAPIKey != "" }
