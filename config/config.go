// Package config loads the fleet server configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Database drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
	DriverNone   = "none"
)

// Config holds all server configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Simulation SimulationConfig `toml:"simulation"`
	Database   DatabaseConfig   `toml:"database"`
	Logging    LoggingConfig    `toml:"logging"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port" validate:"gte=1,lte=65535"`
	CORSOrigins []string `toml:"cors_origins"`
}

// SimulationConfig controls the real-time simulator.
type SimulationConfig struct {
	Layout        string        `toml:"layout"` // YAML 레이아웃 경로, 비어있으면 기본 창고
	Robots        int           `toml:"robots" validate:"gte=0,lte=256"`
	RobotSpeed    float64       `toml:"robot_speed" validate:"gte=0"`
	TickInterval  time.Duration `toml:"tick_interval" validate:"gt=0"`
	DeltaTime     float64       `toml:"delta_time" validate:"gt=0"`
	AutoStart     bool          `toml:"auto_start"`
	SnapshotEvery int           `toml:"snapshot_every" validate:"gte=0"` // N틱마다 로봇 스냅샷 기록 (0 = 끔)
}

// DatabaseConfig controls the event store.
type DatabaseConfig struct {
	Driver        string        `toml:"driver" validate:"oneof=mysql sqlite none"`
	Host          string        `toml:"host" validate:"required_if=Driver mysql"`
	Port          int           `toml:"port" validate:"gte=0,lte=65535"`
	User          string        `toml:"user" validate:"required_if=Driver mysql"`
	Password      string        `toml:"password"`
	Name          string        `toml:"name" validate:"required_if=Driver mysql"`
	SQLitePath    string        `toml:"sqlite_path" validate:"required_if=Driver sqlite"`
	FlushSize     int           `toml:"flush_size" validate:"gte=1"`
	FlushInterval time.Duration `toml:"flush_interval" validate:"gt=0"`
}

// LoggingConfig controls zap.
type LoggingConfig struct {
	Level       string `toml:"level" validate:"oneof=debug info warn error"`
	Development bool   `toml:"development"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        3000,
			CORSOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		Simulation: SimulationConfig{
			Robots:        3,
			RobotSpeed:    1.0,
			TickInterval:  100 * time.Millisecond,
			DeltaTime:     0.1,
			AutoStart:     true,
			SnapshotEvery: 10,
		},
		Database: DatabaseConfig{
			Driver:        DriverSQLite,
			Port:          3306,
			SQLitePath:    "fleet.db",
			FlushSize:     50,
			FlushInterval: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DSN - MySQL 접속 문자열
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// Load builds the configuration: .env, defaults, optional TOML file, then
// environment overrides. A missing .env file is not an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("parse config %s: unknown keys %v", path, undecoded)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnv - 환경 변수 덮어쓰기
func applyEnv(cfg *Config) error {
	setString("FLEET_HOST", &cfg.Server.Host)
	if v := os.Getenv("FLEET_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	setString("FLEET_LAYOUT", &cfg.Simulation.Layout)
	setString("FLEET_LOG_LEVEL", &cfg.Logging.Level)
	setString("FLEET_DB_DRIVER", &cfg.Database.Driver)
	setString("FLEET_SQLITE_PATH", &cfg.Database.SQLitePath)

	// 기존 MySQL 환경 변수
	setString("MYSQL_HOST", &cfg.Database.Host)
	setString("MYSQL_USER", &cfg.Database.User)
	setString("MYSQL_PASSWORD", &cfg.Database.Password)
	setString("MYSQL_DATABASE", &cfg.Database.Name)

	for _, f := range []struct {
		key string
		dst *int
	}{
		{"FLEET_PORT", &cfg.Server.Port},
		{"FLEET_ROBOTS", &cfg.Simulation.Robots},
		{"FLEET_SNAPSHOT_EVERY", &cfg.Simulation.SnapshotEvery},
		{"MYSQL_PORT", &cfg.Database.Port},
	} {
		if err := setInt(f.key, f.dst); err != nil {
			return err
		}
	}
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"FLEET_ROBOT_SPEED", &cfg.Simulation.RobotSpeed},
		{"FLEET_DELTA_TIME", &cfg.Simulation.DeltaTime},
	} {
		if err := setFloat(f.key, f.dst); err != nil {
			return err
		}
	}
	if err := setDuration("FLEET_TICK_INTERVAL", &cfg.Simulation.TickInterval); err != nil {
		return err
	}
	if v := os.Getenv("FLEET_AUTO_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FLEET_AUTO_START: %w", err)
		}
		cfg.Simulation.AutoStart = b
	}
	return nil
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) error {
	v := os.Getenv(key)
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

func setFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func setDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
