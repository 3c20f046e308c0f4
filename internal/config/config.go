package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Forum author display modes.
const (
	AuthorModeSnapshot = "snapshot" // name/avatar captured when the post was written
	AuthorModeLive     = "live"     // resolve the current user record when still linked
)

// Config holds every setting read from the environment.
type Config struct {
	Port        string
	DatabaseURL string

	SessionSecret string
	SessionMaxAge int // seconds
	JWTSecret     string
	TokenTTL      time.Duration

	UploadDir        string
	NotesAutoApprove bool
	ForumAuthorMode  string

	AllowedOrigins []string

	AdminUsername string
	AdminPassword string
	AdminEmail    string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	LogLevel     string
	TemplatesDir string
	StaticDir    string
}

// Load reads the configuration from environment variables, falling back to
// local development defaults. Call godotenv.Load before this to pick up .env.
func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=noteify port=5432 sslmode=disable"),

		SessionSecret: getEnv("SESSION_SECRET", "secret_key_change_me"),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 7*24*3600),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenTTL:      getEnvDuration("TOKEN_TTL", 24*time.Hour),

		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		NotesAutoApprove: getEnvBool("NOTES_AUTO_APPROVE", false),
		ForumAuthorMode:  getEnv("FORUM_AUTHOR_MODE", AuthorModeSnapshot),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:8080")),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@noteify.local"),

		SupabaseURL:    getEnv("SUPABASE_URL", ""),
		SupabaseKey:    getEnv("SUPABASE_KEY", ""),
		SupabaseBucket: getEnv("SUPABASE_BUCKET", "uploads"),

		LogLevel:     getEnv("LOG_LEVEL", "info"),
		TemplatesDir: getEnv("TEMPLATES_DIR", "./web/templates"),
		StaticDir:    getEnv("STATIC_DIR", "./web/static"),
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = cfg.SessionSecret
	}
	if cfg.ForumAuthorMode != AuthorModeLive {
		cfg.ForumAuthorMode = AuthorModeSnapshot
	}
	return cfg
}

// UseSupabase reports whether uploads go to Supabase Storage instead of disk.
func (c *Config) UseSupabase() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
