package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config/config.yaml"
	jwtSecretEnv      = "LIBRARY_JWT_SECRET"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql | sqlite3
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	Path     string `yaml:"path"` // sqlite3 のみ
}

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

// LibraryConfig は貸出・延滞金の運用値。デプロイごとに変わる
type LibraryConfig struct {
	BorrowDurationDays int    `yaml:"borrow_duration_days"`
	FinePerDay         int64  `yaml:"fine_per_day"`
	MaxFine            int64  `yaml:"max_fine"`
	Timezone           string `yaml:"timezone"`
	CurrencyPrefix     string `yaml:"currency_prefix"`
}

type Config struct {
	Version     string         `yaml:"version"`
	Mode        string         `yaml:"mode"`
	Listen      string         `yaml:"listen"`
	DB          DatabaseConfig `yaml:"database"`
	Certificate Certs          `yaml:"certificate"`
	Auth        AuthConfig     `yaml:"auth"`
	Library     LibraryConfig  `yaml:"library"`
}

func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのパース失敗: %w", err)
	}
	cfg.applyDefaults()
	if v := os.Getenv(jwtSecretEnv); v != "" {
		cfg.Auth.JWTSecret = v
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "dev"
	}
	if c.Listen == "" {
		c.Listen = ":8443"
	}
	if c.DB.Driver == "" {
		c.DB.Driver = string(MySQL)
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = 24
	}
	c.Library = c.Library.WithDefaults()
}

// WithDefaults は未設定の項目を既定値で埋めたコピーを返す
func (l LibraryConfig) WithDefaults() LibraryConfig {
	if l.BorrowDurationDays <= 0 {
		l.BorrowDurationDays = 14
	}
	if l.FinePerDay <= 0 {
		l.FinePerDay = 5000
	}
	if l.MaxFine <= 0 {
		l.MaxFine = 100000
	}
	if l.Timezone == "" {
		l.Timezone = "UTC"
	}
	if l.CurrencyPrefix == "" {
		l.CurrencyPrefix = "Rp"
	}
	return l
}

// DB は *sql.DB に方言情報を持たせたもの
type DB struct {
	*sql.DB
	Dialect Dialect
}

func Connect(c DatabaseConfig) (*DB, error) {
	dialect := Dialect(c.Driver)
	var dsn string
	switch dialect {
	case MySQL:
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC",
			c.Username, c.Password, c.Host, c.Port, c.DBName)
	case SQLite:
		if c.Path == "" {
			return nil, fmt.Errorf("sqlite3: database.path が未設定")
		}
		if dir := filepath.Dir(c.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("DBディレクトリ作成に失敗: %w", err)
			}
		}
		// BEGIN IMMEDIATE で書き込みロックを Tx 開始時に取る
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_journal_mode=WAL&_txlock=immediate&_loc=UTC", c.Path)
	default:
		return nil, fmt.Errorf("未対応のドライバ: %q", c.Driver)
	}

	conn, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("接続準備に失敗: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("DB接続に失敗: %w", err)
	}

	switch dialect {
	case MySQL:
		// 接続プール（合算がMySQLの max_connections を超えないよう配分する）
		conn.SetMaxOpenConns(80)
		conn.SetMaxIdleConns(20)
		conn.SetConnMaxLifetime(30 * time.Minute)
		conn.SetConnMaxIdleTime(5 * time.Minute)
	case SQLite:
		// SQLite は単一ライター。接続1本で直列化する
		conn.SetMaxOpenConns(1)
	}

	return &DB{DB: conn, Dialect: dialect}, nil
}
