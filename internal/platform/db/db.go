package db

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const driverName = "mysql"

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type AttendanceConfig struct {
	LateThresholdMinutes int `yaml:"late_threshold_minutes"`
}

type SchedulerConfig struct {
	Cron string `yaml:"cron"`
}

type EmailConfig struct {
	Provider    string `yaml:"provider"` // console | sendgrid
	SendgridKey string `yaml:"sendgrid_key"`
	FromName    string `yaml:"from_name"`
	FromAddress string `yaml:"from_address"`
}

type FaceConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

type Config struct {
	Version    string           `yaml:"version"`
	Mode       string           `yaml:"mode"`
	Server     ServerConfig     `yaml:"server"`
	DB         DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Attendance AttendanceConfig `yaml:"attendance"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Email      EmailConfig      `yaml:"email"`
	Face       FaceConfig       `yaml:"face"`
	CORS       CORSConfig       `yaml:"cors"`
}

func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if cfg.Attendance.LateThresholdMinutes <= 0 {
		cfg.Attendance.LateThresholdMinutes = 15
	}
	if cfg.Face.TimeoutSeconds <= 0 {
		cfg.Face.TimeoutSeconds = 30
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	return &cfg, nil
}

func Connect(c DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.DBName)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("preparing connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to DB: %w", err)
	}

	// keep the pool total below MySQL max_connections
	db.SetMaxOpenConns(80)
	db.SetMaxIdleConns(20)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
