package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config agrupa la configuración del proceso.
// Se lee de env (y opcionalmente de un .env); no hay archivos YAML por ahora.
type Config struct {
	AppName string
	Port    string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	LogLevel  string
	LogFormat string

	// DBDSN vacío => storage in-memory (modo dev)
	DBDSN string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CatalogCacheTTL time.Duration

	SMSBaseURL string
	SMSAPIKey  string
	SMSSender  string
	SMSTimeout time.Duration

	// AuthBaseURL vacío => modo dev (headers X-Debug-*)
	AuthBaseURL string
	AuthAPIKey  string
	AuthTimeout time.Duration
	// Vacunatorios habilitados (AUTH_FACILITIES, separados por coma). Vacío => todos.
	AuthFacilities []string

	// Días que se empuja una dosis al reprogramar o al crear una dosis ya vencida.
	RescheduleGraceDays int

	// Stock inicial por vacuna al sembrar el protocolo (0 => sin stock).
	InitialStock int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "immunization-scheduler")
	v.SetDefault("PORT", "8080")
	v.SetDefault("HTTP_READ_TIMEOUT", 5*time.Second)
	v.SetDefault("HTTP_WRITE_TIMEOUT", 10*time.Second)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CATALOG_CACHE_TTL", 10*time.Minute)
	v.SetDefault("SMS_BASE_URL", "")
	v.SetDefault("SMS_API_KEY", "")
	v.SetDefault("SMS_SENDER", "")
	v.SetDefault("SMS_TIMEOUT", 10*time.Second)
	v.SetDefault("AUTH_BASE_URL", "")
	v.SetDefault("AUTH_API_KEY", "")
	v.SetDefault("AUTH_TIMEOUT", 5*time.Second)
	v.SetDefault("AUTH_FACILITIES", "")
	v.SetDefault("RESCHEDULE_GRACE_DAYS", 7)
	v.SetDefault("VACCINE_INITIAL_STOCK", 0)
}

// Load lee la configuración. Si dotEnvPath existe se carga primero (sin pisar env ya seteado);
// si no existe se ignora.
func Load(dotEnvPath string) (Config, error) {
	if p := strings.TrimSpace(dotEnvPath); p != "" {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				return Config{}, fmt.Errorf("config: load %s: %w", p, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: stat %s: %w", p, err)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppName:             strings.TrimSpace(v.GetString("APP_NAME")),
		Port:                strings.TrimSpace(v.GetString("PORT")),
		HTTPReadTimeout:     v.GetDuration("HTTP_READ_TIMEOUT"),
		HTTPWriteTimeout:    v.GetDuration("HTTP_WRITE_TIMEOUT"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
		DBDSN:               strings.TrimSpace(v.GetString("DB_DSN")),
		RedisAddr:           strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:       v.GetString("REDIS_PASSWORD"),
		RedisDB:             v.GetInt("REDIS_DB"),
		CatalogCacheTTL:     v.GetDuration("CATALOG_CACHE_TTL"),
		SMSBaseURL:          strings.TrimSpace(v.GetString("SMS_BASE_URL")),
		SMSAPIKey:           strings.TrimSpace(v.GetString("SMS_API_KEY")),
		SMSSender:           strings.TrimSpace(v.GetString("SMS_SENDER")),
		SMSTimeout:          v.GetDuration("SMS_TIMEOUT"),
		AuthBaseURL:         strings.TrimSpace(v.GetString("AUTH_BASE_URL")),
		AuthAPIKey:          strings.TrimSpace(v.GetString("AUTH_API_KEY")),
		AuthTimeout:         v.GetDuration("AUTH_TIMEOUT"),
		AuthFacilities:      splitList(v.GetString("AUTH_FACILITIES")),
		RescheduleGraceDays: v.GetInt("RESCHEDULE_GRACE_DAYS"),
		InitialStock:        v.GetInt("VACCINE_INITIAL_STOCK"),
	}

	if cfg.Port == "" {
		return Config{}, fmt.Errorf("config: PORT must not be empty")
	}
	if cfg.RescheduleGraceDays <= 0 {
		return Config{}, fmt.Errorf("config: RESCHEDULE_GRACE_DAYS must be positive, got %d", cfg.RescheduleGraceDays)
	}
	if cfg.InitialStock < 0 {
		return Config{}, fmt.Errorf("config: VACCINE_INITIAL_STOCK must not be negative, got %d", cfg.InitialStock)
	}
	return cfg, nil
}

// Addr devuelve ":PORT" para http.Server.
func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func (c Config) SMSConfigured() bool {
	return c.SMSBaseURL != "" && c.SMSAPIKey != ""
}

func (c Config) AuthConfigured() bool {
	return c.AuthBaseURL != "" && c.AuthAPIKey != ""
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
