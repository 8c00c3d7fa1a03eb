package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Store        StoreConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	LLM          LLMConfig
	Chat         ChatConfig
	Maps         MapsConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// Store drivers.
const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
)

// StoreConfig selects where tickets and schools are read from.
type StoreConfig struct {
	Driver       string
	ChamadosPath string
	EscolasPath  string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables caching.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	TTLSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token parameters and the demo accounts.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	Enforce               bool
	Escola                EscolaAccount
	Secretaria            SecretariaAccount
}

// EscolaAccount is the demo school login.
type EscolaAccount struct {
	INEP     string
	Email    string
	Password string
}

// SecretariaAccount is the demo secretariat login.
type SecretariaAccount struct {
	CPF      string
	Email    string
	Token    string
	Password string
}

// LLMConfig configures the text-structuring model.
type LLMConfig struct {
	APIKey         string
	Model          string
	Endpoint       string
	TimeoutSeconds int
}

// ChatConfig points at the workflow webhook behind the chat assistant.
type ChatConfig struct {
	WebhookURL     string
	TimeoutSeconds int
}

// MapsConfig carries the map provider credentials handed to the dashboards.
type MapsConfig struct {
	APIKey string
	MapID  string
}

// NotificationConfig holds the optional event webhook.
type NotificationConfig struct {
	WebhookURL     string
	TimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	driver := strings.ToLower(getEnv("STORE_DRIVER", StoreDriverFile))
	if driver != StoreDriverFile && driver != StoreDriverPostgres {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", driver)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "demandas-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Store: StoreConfig{
			Driver:       driver,
			ChamadosPath: getEnv("CHAMADOS_PATH", "data/chamados.json"),
			EscolasPath:  getEnv("ESCOLAS_PATH", "data/escolas.json"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:       os.Getenv("REDIS_ADDR"),
			Password:   os.Getenv("REDIS_PASSWORD"),
			DB:         redisDB,
			TTLSeconds: getEnvAsInt("REDIS_TTL_SECONDS", 600),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 10),
			Enforce:               getEnvAsBool("AUTH_ENFORCE", false),
			Escola: EscolaAccount{
				INEP:     getEnv("DEMO_ESCOLA_INEP", "25012345"),
				Email:    getEnv("DEMO_ESCOLA_EMAIL", "direcao@escola.pb.gov.br"),
				Password: getEnv("DEMO_ESCOLA_PASSWORD", "painel-escola"),
			},
			Secretaria: SecretariaAccount{
				CPF:      getEnv("DEMO_SECRETARIA_CPF", "000.000.000-00"),
				Email:    getEnv("DEMO_SECRETARIA_EMAIL", "secretaria@educacao.pb.gov.br"),
				Token:    getEnv("DEMO_SECRETARIA_TOKEN", "654321"),
				Password: getEnv("DEMO_SECRETARIA_PASSWORD", "painel-secretaria"),
			},
		},
		LLM: LLMConfig{
			APIKey:         os.Getenv("GEMINI_API_KEY"),
			Model:          getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Endpoint:       getEnv("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta"),
			TimeoutSeconds: getEnvAsInt("LLM_TIMEOUT_SECONDS", 20),
		},
		Chat: ChatConfig{
			WebhookURL:     os.Getenv("CHAT_WEBHOOK_URL"),
			TimeoutSeconds: getEnvAsInt("CHAT_TIMEOUT_SECONDS", 30),
		},
		Maps: MapsConfig{
			APIKey: os.Getenv("MAPS_API_KEY"),
			MapID:  os.Getenv("MAPS_MAP_ID"),
		},
		Notification: NotificationConfig{
			WebhookURL:     getEnv("NOTIFY_WEBHOOK_URL", ""),
			TimeoutSeconds: getEnvAsInt("NOTIFY_TIMEOUT_SECONDS", 10),
		},
	}

	if cfg.Store.Driver == StoreDriverPostgres && cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("STORE_DRIVER=postgres requires POSTGRES_DSN")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	return seconds(a.RequestTimeoutSeconds)
}

// Timeout bounds a single structuring call.
func (l LLMConfig) Timeout() time.Duration {
	return seconds(l.TimeoutSeconds)
}

// Timeout bounds a single webhook round trip.
func (c ChatConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds)
}

func (n NotificationConfig) Timeout() time.Duration {
	return seconds(n.TimeoutSeconds)
}

// TTL is how long cached heat maps live.
func (r RedisConfig) TTL() time.Duration {
	return seconds(r.TTLSeconds)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
