package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		UI
		Covers
		MinIO
		CoverSweep
		Tasks
		Audit
		Session
		Logging
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		ReadOnly                 bool // Reject every write request
	}
	Database struct {
		Driver   string // "sqlite" or "postgres"
		Path     string // sqlite file
		URL      string // postgres DSN
		LogLevel string
	}
	UI struct {
		TemplatesPath string
		StaticPath    string
	}
	Covers struct {
		Strategy       string // "inline" or "file"
		UploadDir      string
		AllowedTypes   []string
		MaxUploadBytes int64
		Store          string // "local" or "minio"
	}
	MinIO struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		UseSSL    bool
	}
	CoverSweep struct {
		Enabled  bool
		Schedule string        // Cron format: "0 3 * * *" = daily at 03:00
		Grace    time.Duration // Files younger than this are never swept
	}
	Tasks struct {
		Enabled         bool
		DBPath          string // Defaults to <database>-tasks.db next to DATABASE_PATH
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Audit struct {
		RetentionDays int // Days to keep audit events (default: 30)
	}
	Session struct {
		Lifetime      time.Duration
		CSRFSecret    string // CSRF protection is off when empty
		SecureCookies bool   // Set to false for local dev without HTTPS
	}
	Logging struct {
		Level  string
		Format string // "console" or "json"
	}
)

func NewConfig() *Config {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("read_only", false)

	v.SetDefault("database_driver", "sqlite")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_url", "")
	v.SetDefault("database_log_level", "warn")

	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")

	// Cover storage defaults
	v.SetDefault("cover_strategy", "inline")
	v.SetDefault("cover_upload_dir", DefaultCoverUploadDir)
	v.SetDefault("cover_allowed_types", strings.Join(DefaultCoverAllowedTypes, ","))
	v.SetDefault("cover_max_upload_bytes", 5<<20)
	v.SetDefault("cover_store", "local")

	v.SetDefault("minio_endpoint", "localhost:9000")
	v.SetDefault("minio_access_key", "")
	v.SetDefault("minio_secret_key", "")
	v.SetDefault("minio_bucket", "book-covers")
	v.SetDefault("minio_use_ssl", false)

	v.SetDefault("cover_sweep_enabled", false)
	v.SetDefault("cover_sweep_schedule", "0 3 * * *")
	v.SetDefault("cover_sweep_grace", "1h")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_db_path", "")
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("audit_retention_days", 30)

	v.SetDefault("session_lifetime", "24h")
	v.SetDefault("csrf_secret", "")
	v.SetDefault("secure_cookies", false)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			ReadOnly:                 v.GetBool("READ_ONLY"),
		},
		Database: Database{
			Driver:   v.GetString("DATABASE_DRIVER"),
			Path:     v.GetString("DATABASE_PATH"),
			URL:      v.GetString("DATABASE_URL"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
		Covers: Covers{
			Strategy:       strings.ToLower(v.GetString("COVER_STRATEGY")),
			UploadDir:      v.GetString("COVER_UPLOAD_DIR"),
			AllowedTypes:   splitList(v.GetString("COVER_ALLOWED_TYPES")),
			MaxUploadBytes: v.GetInt64("COVER_MAX_UPLOAD_BYTES"),
			Store:          strings.ToLower(v.GetString("COVER_STORE")),
		},
		MinIO: MinIO{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		CoverSweep: CoverSweep{
			Enabled:  v.GetBool("COVER_SWEEP_ENABLED"),
			Schedule: v.GetString("COVER_SWEEP_SCHEDULE"),
			Grace:    v.GetDuration("COVER_SWEEP_GRACE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			DBPath:          v.GetString("TASKS_DB_PATH"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Session: Session{
			Lifetime:      v.GetDuration("SESSION_LIFETIME"),
			CSRFSecret:    v.GetString("CSRF_SECRET"),
			SecureCookies: v.GetBool("SECURE_COOKIES"),
		},
		Logging: Logging{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
