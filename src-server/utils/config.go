package utils

import (
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	port  string
	debug bool

	adminPasswordHash []byte
	sessionExpire     time.Duration

	databasePath    string
	fixedRosterPath string
	maxUploadSize   int64

	location                 *time.Location
	metricCollectionInterval time.Duration
	publicURL                string
}

func NewConfig() *Config {
	return &Config{
		port: func() string {
			port := os.Getenv("PORT")
			if port == "" {
				port = "5000"
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),
		debug: func() bool {
			switch strings.ToLower(os.Getenv("DEBUG")) {
			case "1", "true", "yes":
				return true
			}
			return false
		}(),

		adminPasswordHash: func() []byte {
			if hash := os.Getenv("ADMIN_PASSWORD_HASH"); hash != "" {
				if _, err := bcrypt.Cost([]byte(hash)); err != nil {
					slog.Error("invalid ADMIN_PASSWORD_HASH", "error", err)
					os.Exit(1)
				}
				slog.Debug("env", "ADMIN_PASSWORD_HASH", hash[0:7]+"...")
				return []byte(hash)
			}
			password := os.Getenv("ADMIN_PASSWORD")
			if password == "" {
				slog.Error("neither ADMIN_PASSWORD_HASH nor ADMIN_PASSWORD is set")
				os.Exit(1)
			}
			slog.Warn("ADMIN_PASSWORD is set in plaintext, prefer ADMIN_PASSWORD_HASH")
			hash, err := HashPassword(password)
			if err != nil {
				slog.Error("can't hash ADMIN_PASSWORD", "error", err)
				os.Exit(1)
			}
			return hash
		}(),
		sessionExpire: func() time.Duration {
			sessionExpire := os.Getenv("SESSION_EXPIRE")
			if sessionExpire == "" {
				sessionExpire = "12h"
			}
			duration, err := time.ParseDuration(sessionExpire)
			if err != nil || duration <= 0 {
				slog.Error("invalid SESSION_EXPIRE", "value", sessionExpire, "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "SESSION_EXPIRE", sessionExpire, "duration", duration)
			return duration
		}(),

		databasePath: func() string {
			databasePath := os.Getenv("DATABASE_PATH")
			if databasePath == "" {
				databasePath = "./checkin.db"
			}
			slog.Debug("env", "DATABASE_PATH", databasePath)
			return filepath.Clean(databasePath)
		}(),
		fixedRosterPath: func() string {
			fixedRosterPath := os.Getenv("FIXED_ROSTER_PATH")
			if fixedRosterPath == "" {
				slog.Warn("FIXED_ROSTER_PATH is not set, using ./roster.xlsx")
				fixedRosterPath = "./roster.xlsx"
			}
			slog.Debug("env", "FIXED_ROSTER_PATH", fixedRosterPath)
			return filepath.Clean(fixedRosterPath)
		}(),
		maxUploadSize: func() int64 {
			maxUploadSize := os.Getenv("MAX_UPLOAD_SIZE")
			if maxUploadSize == "" {
				return 32 << 20
			}
			size, err := strconv.ParseInt(maxUploadSize, 10, 64)
			if err != nil || size <= 0 {
				slog.Error("invalid MAX_UPLOAD_SIZE", "value", maxUploadSize, "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "MAX_UPLOAD_SIZE", size)
			return size
		}(),

		location: func() *time.Location {
			timezoneStr := os.Getenv("TIMEZONE")
			var loc *time.Location
			var err error
			switch timezoneStr {
			case "":
				slog.Warn("TIMEZONE is not set, using local timezone", "timezone", time.Local)
				loc = time.Local
			case "UTC":
				loc = time.UTC
			default:
				loc, err = time.LoadLocation(timezoneStr)
				if err != nil {
					slog.Error("invalid timezone", "timezone", timezoneStr, "error", err)
					os.Exit(1)
				}
			}
			slog.Debug("env", "TIMEZONE", timezoneStr)
			return loc
		}(),
		metricCollectionInterval: func() time.Duration {
			interval := os.Getenv("METRIC_COLLECTION_INTERVAL")
			if interval == "" {
				interval = "15s"
			}
			duration, err := time.ParseDuration(interval)
			if err != nil || duration <= 0 {
				slog.Error("invalid METRIC_COLLECTION_INTERVAL", "value", interval, "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "METRIC_COLLECTION_INTERVAL", interval)
			return duration
		}(),
		publicURL: func() string {
			publicURL := strings.TrimSuffix(os.Getenv("PUBLIC_URL"), "/")
			if publicURL == "" {
				slog.Info("PUBLIC_URL is not set, QR codes use the request host")
				return ""
			}
			if _, err := url.ParseRequestURI(publicURL); err != nil {
				slog.Error("invalid PUBLIC_URL", "value", publicURL, "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "PUBLIC_URL", publicURL)
			return publicURL
		}(),
	}
}

func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// Reports whether password matches the configured admin secret
func (c *Config) CheckAdminPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(c.adminPasswordHash, []byte(password)) == nil
}

// Get PORT env, default to 5000
func (c *Config) GetPort() string {
	return c.port
}

// Get DEBUG env
func (c *Config) GetDebug() bool {
	return c.debug
}

// Get SESSION_EXPIRE env, default to 12h
func (c *Config) GetSessionExpire() time.Duration {
	return c.sessionExpire
}

// Get DATABASE_PATH env
func (c *Config) GetDatabasePath() string {
	return c.databasePath
}

// Get FIXED_ROSTER_PATH env
func (c *Config) GetFixedRosterPath() string {
	return c.fixedRosterPath
}

// Get MAX_UPLOAD_SIZE env in bytes, default to 32 MiB
func (c *Config) GetMaxUploadSize() int64 {
	return c.maxUploadSize
}

// Get TIMEZONE env
func (c *Config) GetLocation() *time.Location {
	return c.location
}

// Get METRIC_COLLECTION_INTERVAL env
func (c *Config) GetMetricCollectionInterval() time.Duration {
	return c.metricCollectionInterval
}

// Get PUBLIC_URL env, empty when QR links should follow the request host
func (c *Config) GetPublicURL() string {
	return c.publicURL
}
