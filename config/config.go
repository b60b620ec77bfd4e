package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Minio    MinioConfig    `yaml:"minio"`
	Renderer RendererConfig `yaml:"renderer"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	Auth     AuthConfig     `yaml:"auth"`
	Admins   []string       `yaml:"admins"`
	Users    []User         `yaml:"users"`
	Business BusinessConfig `yaml:"business"`
	Ready    ReadyConfig    `yaml:"ready"`
	Preview  PreviewConfig  `yaml:"preview"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	Driver    string `yaml:"driver"` // sqlite | postgres
	DSN       string `yaml:"dsn"`
	ListLimit int    `yaml:"list_limit"` // cap for the messaging listing
}

type MinioConfig struct {
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Bucket        string `yaml:"bucket"`
	UseSSL        bool   `yaml:"use_ssl"`
	ExpireDays    int    `yaml:"expire_days"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type RendererConfig struct {
	ChromePath     string `yaml:"chrome_path"`
	PageSize       string `yaml:"page_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type WhatsAppConfig struct {
	APIBase         string  `yaml:"api_base"`
	PhoneNumberID   string  `yaml:"phone_number_id"`
	AccessToken     string  `yaml:"access_token"`
	VerifyToken     string  `yaml:"verify_token"`
	MaxMessageChars int     `yaml:"max_message_chars"`
	MaxContracts    int     `yaml:"max_contracts"`
	SendsPerSecond  float64 `yaml:"sends_per_second"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

// User is a login account. PasswordHash is a bcrypt hash.
type User struct {
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`
}

type BusinessConfig struct {
	Name      string `yaml:"name"`
	Currency  string `yaml:"currency"`
	Locale    string `yaml:"locale"`
	Signer    string `yaml:"signer"`
	BarSigner string `yaml:"bar_signer"`
}

type ReadyConfig struct {
	Attempts   int `yaml:"attempts"`
	IntervalMS int `yaml:"interval_ms"`
}

// Interval is the pause between readiness probes
func (r ReadyConfig) Interval() time.Duration {
	return time.Duration(r.IntervalMS) * time.Millisecond
}

type PreviewConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

// TTL is how long a preview document stays in the bucket
func (p PreviewConfig) TTL() time.Duration {
	return time.Duration(p.TTLSeconds) * time.Second
}

// Load reads the YAML file at path and fills in defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.DSN == "" && c.Store.Driver == "sqlite" {
		c.Store.DSN = "contratos.db"
	}
	if c.Store.ListLimit == 0 {
		c.Store.ListLimit = 10
	}
	if c.Minio.ExpireDays == 0 {
		c.Minio.ExpireDays = 7
	}
	if c.Renderer.PageSize == "" {
		c.Renderer.PageSize = "A4"
	}
	if c.Renderer.TimeoutSeconds == 0 {
		c.Renderer.TimeoutSeconds = 30
	}
	if c.WhatsApp.APIBase == "" {
		c.WhatsApp.APIBase = "https://graph.facebook.com/v20.0"
	}
	if c.WhatsApp.MaxMessageChars == 0 {
		c.WhatsApp.MaxMessageChars = 3500
	}
	if c.WhatsApp.MaxContracts == 0 {
		c.WhatsApp.MaxContracts = c.Store.ListLimit
	}
	if c.WhatsApp.SendsPerSecond == 0 {
		c.WhatsApp.SendsPerSecond = 5
	}
	if c.WhatsApp.TimeoutSeconds == 0 {
		c.WhatsApp.TimeoutSeconds = 15
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.Business.Currency == "" {
		c.Business.Currency = "S/."
	}
	if c.Business.Locale == "" {
		c.Business.Locale = "es-PE"
	}
	if c.Ready.Attempts == 0 {
		c.Ready.Attempts = 20
	}
	if c.Ready.IntervalMS == 0 {
		c.Ready.IntervalMS = 100
	}
	if c.Preview.TTLSeconds == 0 {
		c.Preview.TTLSeconds = 60
	}
}

// ApplyEnv overlays secrets and deployment settings from the environment.
// A .env file in the working directory is loaded first when present.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	setString(&c.Store.Driver, "STORE_DRIVER")
	setString(&c.Store.DSN, "DATABASE_URL")
	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Minio.Bucket, "MINIO_BUCKET")
	setString(&c.Minio.PublicBaseURL, "MINIO_PUBLIC_BASE_URL")
	setString(&c.Renderer.ChromePath, "CHROME_PATH")
	setString(&c.WhatsApp.PhoneNumberID, "WA_PHONE_NUMBER_ID")
	setString(&c.WhatsApp.AccessToken, "WA_ACCESS_TOKEN")
	setString(&c.WhatsApp.VerifyToken, "WA_VERIFY_TOKEN")
	setString(&c.WhatsApp.APIBase, "WA_API_BASE")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("ADMIN_EMAILS"); v != "" {
		c.Admins = splitList(v)
	}
	return nil
}

// Validate reports settings the server cannot start without
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (or JWT_SECRET) is required")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// FindUser finds a login account by email, ignoring case
func (c *Config) FindUser(email string) *User {
	for i := range c.Users {
		if strings.EqualFold(c.Users[i].Email, email) {
			return &c.Users[i]
		}
	}
	return nil
}
