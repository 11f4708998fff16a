// Package config provides configuration management for Talentd
package config

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SystemConfig represents a configuration entry stored in database
type SystemConfig struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Key       string    `gorm:"uniqueIndex;not null;size:100"`
	Value     string    `gorm:"type:text"`
	ValueType string    `gorm:"size:20"` // string, int, bool, json
	Category  string    `gorm:"size:50;index"`
	IsSecret  bool      `gorm:"default:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for SystemConfig
func (SystemConfig) TableName() string {
	return "system_config"
}

// Service manages configuration. Values come from the database with a
// TALENTD_<KEY> environment override.
type Service struct {
	db    *gorm.DB
	cache map[string]string
	mu    sync.RWMutex
}

// NewService creates a new config service
func NewService(db *gorm.DB) *Service {
	svc := &Service{
		db:    db,
		cache: make(map[string]string),
	}
	svc.loadCache()
	return svc
}

// loadCache loads all config values into memory
func (s *Service) loadCache() {
	var configs []SystemConfig
	if err := s.db.Find(&configs).Error; err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cfg := range configs {
		s.cache[cfg.Key] = cfg.Value
	}
}

// Get returns a config value by key
func (s *Service) Get(key string) string {
	// Environment variable override wins
	if envVal := os.Getenv("TALENTD_" + key); envVal != "" {
		return envVal
	}

	s.mu.RLock()
	if val, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return val
	}
	s.mu.RUnlock()

	var cfg SystemConfig
	if err := s.db.Where("key = ?", key).First(&cfg).Error; err == nil {
		s.mu.Lock()
		s.cache[key] = cfg.Value
		s.mu.Unlock()
		return cfg.Value
	}

	return ""
}

// GetWithDefault returns a config value or default if not found
func (s *Service) GetWithDefault(key, defaultValue string) string {
	if val := s.Get(key); val != "" {
		return val
	}
	return defaultValue
}

// GetInt returns a config value as int
func (s *Service) GetInt(key string, defaultValue int) int {
	val := s.Get(key)
	if val == "" {
		return defaultValue
	}
	if i, err := strconv.Atoi(val); err == nil {
		return i
	}
	return defaultValue
}

// GetBool returns a config value as bool
func (s *Service) GetBool(key string, defaultValue bool) bool {
	val := s.Get(key)
	if val == "" {
		return defaultValue
	}
	return val == "true" || val == "1" || val == "yes"
}

// Set sets a config value
func (s *Service) Set(key, value, category string, isSecret bool) error {
	cfg := SystemConfig{
		Key:       key,
		Value:     value,
		ValueType: "string",
		Category:  category,
		IsSecret:  isSecret,
		UpdatedAt: time.Now(),
	}

	err := s.db.Where("key = ?", key).Assign(cfg).FirstOrCreate(&cfg).Error
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()

	return nil
}

// SetupDefaults seeds default configuration values that are not already set
func (s *Service) SetupDefaults() error {
	defaults := map[string]struct {
		value    string
		category string
		secret   bool
	}{
		"SERVER_PORT":          {"8090", "server", false},
		"SERVER_MODE":          {"debug", "server", false},
		"SERVER_READ_TIMEOUT":  {"30", "server", false},
		"SERVER_WRITE_TIMEOUT": {"30", "server", false},

		"JWT_SECRET":         {GenerateJWTSecret(), "auth", true},
		"JWT_ACCESS_EXPIRY":  {"24", "auth", false},
		"JWT_REFRESH_EXPIRY": {"168", "auth", false}, // 7 days in hours

		"CORS_ALLOWED_ORIGINS":   {"http://localhost:3000,http://localhost:8080", "cors", false},
		"CORS_ALLOW_CREDENTIALS": {"true", "cors", false},

		"WEBHOOK_TIMEOUT_SECONDS": {"10", "automation", false},
		"WEBHOOK_RATE_PER_MINUTE": {"60", "automation", false},
		"WEBHOOK_RATE_BURST":      {"10", "automation", false},
		"WEBHOOK_SIGNING_SECRET":  {GenerateJWTSecret(), "automation", true},
	}

	for key, cfg := range defaults {
		if s.Get(key) == "" {
			if err := s.Set(key, cfg.value, cfg.category, cfg.secret); err != nil {
				return err
			}
		}
	}

	return nil
}

// GenerateJWTSecret generates a secure random JWT secret
func GenerateJWTSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "talentd-fallback-secret-" + uuid.New().String()
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

// Config holds the runtime configuration
type Config struct {
	Server     ServerConfig
	Auth       AuthConfig
	CORS       CORSConfig
	Automation AutomationConfig
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

// AuthConfig holds authentication settings
type AuthConfig struct {
	JWTSecret     string
	AccessExpiry  int
	RefreshExpiry int
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// AutomationConfig holds outbound webhook settings
type AutomationConfig struct {
	WebhookTimeout time.Duration
	RatePerMinute  int
	RateBurst      int
	SigningSecret  string
}

// Load loads configuration from database into a Config struct
func (s *Service) Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         s.GetWithDefault("SERVER_PORT", "8090"),
			Mode:         s.GetWithDefault("SERVER_MODE", "debug"),
			ReadTimeout:  s.GetInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: s.GetInt("SERVER_WRITE_TIMEOUT", 30),
		},
		Auth: AuthConfig{
			JWTSecret:     s.GetWithDefault("JWT_SECRET", ""),
			AccessExpiry:  s.GetInt("JWT_ACCESS_EXPIRY", 24),
			RefreshExpiry: s.GetInt("JWT_REFRESH_EXPIRY", 168),
		},
		CORS: CORSConfig{
			AllowedOrigins:   splitString(s.GetWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
			AllowCredentials: s.GetBool("CORS_ALLOW_CREDENTIALS", true),
		},
		Automation: AutomationConfig{
			WebhookTimeout: time.Duration(s.GetInt("WEBHOOK_TIMEOUT_SECONDS", 10)) * time.Second,
			RatePerMinute:  s.GetInt("WEBHOOK_RATE_PER_MINUTE", 60),
			RateBurst:      s.GetInt("WEBHOOK_RATE_BURST", 10),
			SigningSecret:  s.Get("WEBHOOK_SIGNING_SECRET"),
		},
	}
}

// splitString splits a comma-separated string into a slice
func splitString(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
