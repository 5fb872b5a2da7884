package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Режимы хранения.
const (
	ModeDatabase = "database"
	ModeFile     = "file"
	ModeInMemory = "in-memory"
)

// Config хранит конфигурацию сервера
type Config struct {
	ServerAddress      string        `json:"server_address"`
	BaseURL            string        `json:"base_url"`
	FileStoragePath    string        `json:"file_storage_path"`
	DatabaseDSN        string        `json:"database_dsn"`
	AuthSecret         string        `json:"auth_secret"`
	RedisURL           string        `json:"redis_url"`
	SuggestCacheSize   int           `json:"suggest_cache_size"`
	SuggestCacheTTL    time.Duration `json:"-"`
	MetaEnabledDefault bool          `json:"meta_enabled_default"`
	AllowedOrigins     []string      `json:"allowed_origins"`
	ShutdownTimeout    time.Duration `json:"-"`
	Mode               string        `json:"-"`
}

// rawJSON описывает JSON-файл конфигурации. Длительности задаются строками ("5m").
type rawJSON struct {
	Config
	SuggestCacheTTL    string `json:"suggest_cache_ttl"`
	MetaEnabledDefault *bool  `json:"meta_enabled_default"`
}

// NewConfig инициализирует конфигурацию на основе аргументов командной строки
func NewConfig() (*Config, error) {
	// Читаем .env, если есть (не переопределяет переменные окружения!)
	_ = godotenv.Load()
	return Load(os.Args[1:])
}

// Load собирает конфигурацию. Приоритет: флаги, переменные окружения,
// JSON-файл, значения по умолчанию.
func Load(args []string) (*Config, error) {
	v := viper.New()
	v.SetDefault("SERVER_ADDRESS", "localhost:8080") // Значения по умолчанию
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("FILE_STORAGE_PATH", "")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("AUTH_SECRET", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SUGGEST_CACHE_SIZE", 1024)
	v.SetDefault("SUGGEST_CACHE_TTL", "5m")
	v.SetDefault("META_ENABLED_DEFAULT", true)
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.AutomaticEnv()

	fs := flag.NewFlagSet("utmbuilder", flag.ContinueOnError)
	serverAddress := fs.String("a", "", "server address")
	baseURL := fs.String("b", "", "base URL")
	fileStoragePath := fs.String("f", "", "SQLite database file")
	databaseDSN := fs.String("d", "", "PostgreSQL DSN")
	authSecret := fs.String("k", "", "secret for session cookies and tokens")
	redisURL := fs.String("r", "", "Redis URL for the suggestion cache")
	configPath := fs.String("c", "", "path to JSON config file")
	fs.StringVar(configPath, "config", "", "path to JSON config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configPath == "" {
		*configPath = os.Getenv("CONFIG")
	}
	// Загружаем JSON-конфигурацию (если указана). Её значения ниже окружения.
	if *configPath != "" {
		if err := applyJSON(v, *configPath); err != nil {
			return nil, err
		}
	}

	ttl, err := time.ParseDuration(v.GetString("SUGGEST_CACHE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid SUGGEST_CACHE_TTL: %w", err)
	}
	shutdown, err := time.ParseDuration(v.GetString("SHUTDOWN_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	cfg := &Config{
		ServerAddress:      v.GetString("SERVER_ADDRESS"),
		BaseURL:            v.GetString("BASE_URL"),
		FileStoragePath:    v.GetString("FILE_STORAGE_PATH"),
		DatabaseDSN:        v.GetString("DATABASE_DSN"),
		AuthSecret:         v.GetString("AUTH_SECRET"),
		RedisURL:           v.GetString("REDIS_URL"),
		SuggestCacheSize:   v.GetInt("SUGGEST_CACHE_SIZE"),
		SuggestCacheTTL:    ttl,
		MetaEnabledDefault: v.GetBool("META_ENABLED_DEFAULT"),
		AllowedOrigins:     splitList(v.GetString("ALLOWED_ORIGINS")),
		ShutdownTimeout:    shutdown,
	}

	// Если флаг передан, он важнее окружения
	override := func(flagVal string, target *string) {
		if flagVal != "" {
			*target = flagVal
		}
	}
	override(*serverAddress, &cfg.ServerAddress)
	override(*baseURL, &cfg.BaseURL)
	override(*fileStoragePath, &cfg.FileStoragePath)
	override(*databaseDSN, &cfg.DatabaseDSN)
	override(*authSecret, &cfg.AuthSecret)
	override(*redisURL, &cfg.RedisURL)

	// Определяем режим работы
	switch {
	case cfg.DatabaseDSN != "":
		cfg.Mode = ModeDatabase
	case cfg.FileStoragePath != "":
		cfg.Mode = ModeFile
	default:
		cfg.Mode = ModeInMemory
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyJSON задаёт значения файла как значения по умолчанию viper.
func applyJSON(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	var raw rawJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	setString := func(key, val string) {
		if val != "" {
			v.SetDefault(key, val)
		}
	}
	setString("SERVER_ADDRESS", raw.ServerAddress)
	setString("BASE_URL", raw.BaseURL)
	setString("FILE_STORAGE_PATH", raw.FileStoragePath)
	setString("DATABASE_DSN", raw.DatabaseDSN)
	setString("AUTH_SECRET", raw.AuthSecret)
	setString("REDIS_URL", raw.RedisURL)
	setString("SUGGEST_CACHE_TTL", raw.SuggestCacheTTL)
	setString("ALLOWED_ORIGINS", strings.Join(raw.AllowedOrigins, ","))
	if raw.SuggestCacheSize > 0 {
		v.SetDefault("SUGGEST_CACHE_SIZE", raw.SuggestCacheSize)
	}
	if raw.MetaEnabledDefault != nil {
		v.SetDefault("META_ENABLED_DEFAULT", *raw.MetaEnabledDefault)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate проверяет корректность конфигурации
func (cfg *Config) Validate() error {
	if cfg.ServerAddress == "" {
		return errors.New("адрес сервера не может быть пустым")
	}
	if cfg.BaseURL == "" {
		return errors.New("базовый URL не может быть пустым")
	}
	if cfg.SuggestCacheSize <= 0 {
		return errors.New("размер кэша подсказок должен быть положительным")
	}
	return nil
}
