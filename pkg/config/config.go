package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config governs the cmd/lectioshedctl entrypoint. The scheduling core
// itself never reads environment variables or files (spec §6) — this is
// consumed only by the CLI that assembles a StateStore and Options and
// drives the core.
type Config struct {
	Env string

	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig carries the defaults the CLI seeds into an Options record
// and the proposal-cache TTL for dry-run results awaiting apply.
type SchedulerConfig struct {
	ProposalTTL             time.Duration
	LoadTolerance           float64
	MinBreakMinutes         int
	MaxStartHour            int
	MaxEndHour              int
	TPPerSubjectPerSlot     int
	SnapshotTTL             time.Duration
	ProcessByFiliere        bool
	FiliereOrder            []string
}

// Load reads configuration from `.env` and the process environment,
// adapted from the teacher's viper/godotenv loader but trimmed to the
// fields this module's CLI actually consumes.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}
	cfg.Env = v.GetString("ENV")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Scheduler = SchedulerConfig{
		ProposalTTL:         parseDuration(v.GetString("SCHEDULER_PROPOSAL_TTL"), 30*time.Minute),
		LoadTolerance:       v.GetFloat64("SCHEDULER_LOAD_TOLERANCE"),
		MinBreakMinutes:     v.GetInt("SCHEDULER_MIN_BREAK_MINUTES"),
		MaxStartHour:        v.GetInt("SCHEDULER_MAX_START_HOUR"),
		MaxEndHour:          v.GetInt("SCHEDULER_MAX_END_HOUR"),
		TPPerSubjectPerSlot: v.GetInt("SCHEDULER_TP_PER_SUBJECT_PER_SLOT"),
		SnapshotTTL:         parseDuration(v.GetString("SCHEDULER_SNAPSHOT_TTL"), time.Hour),
		ProcessByFiliere:    v.GetBool("SCHEDULER_PROCESS_BY_FILIERE"),
		FiliereOrder:        splitAndTrim(v.GetString("SCHEDULER_FILIERE_ORDER")),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lectioshed")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SCHEDULER_PROPOSAL_TTL", "30m")
	v.SetDefault("SCHEDULER_LOAD_TOLERANCE", 0.2)
	v.SetDefault("SCHEDULER_MIN_BREAK_MINUTES", 15)
	v.SetDefault("SCHEDULER_MAX_START_HOUR", 8)
	v.SetDefault("SCHEDULER_MAX_END_HOUR", 18)
	v.SetDefault("SCHEDULER_TP_PER_SUBJECT_PER_SLOT", 1)
	v.SetDefault("SCHEDULER_SNAPSHOT_TTL", "1h")
	v.SetDefault("SCHEDULER_PROCESS_BY_FILIERE", false)
	v.SetDefault("SCHEDULER_FILIERE_ORDER", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
