package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	Port      string
	DBPath    string
	StaticDir string
	AvatarDir string
	PhotoDir  string

	// DefaultHomeImage is the URL path featured on the home page when
	// the photo table is empty.
	DefaultHomeImage string

	// SessionDays is the lifetime of a login session and its cookie.
	SessionDays int

	// HashPasswords switches registration to bcrypt hashing and login
	// to a hash comparison. Off by default: the stored contract is a
	// verbatim password compare.
	HashPasswords bool

	// CommentsRequirePostPerm extends the posting permission flag to
	// comments. Off by default: a user stripped of posting rights may
	// still comment.
	CommentsRequirePostPerm bool
}

// Load reads the configuration from environment variables, falling back
// to defaults suitable for local development.
func Load() *Config {
	staticDir := getEnv("STATIC_DIR", "static")
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		DBPath:                  getEnv("DB_PATH", "webpro.db"),
		StaticDir:               staticDir,
		AvatarDir:               getEnv("AVATAR_DIR", filepath.Join(staticDir, "avatar")),
		PhotoDir:                getEnv("PHOTO_DIR", filepath.Join(staticDir, "photo")),
		DefaultHomeImage:        getEnv("DEFAULT_HOME_IMAGE", "/static/avatar/xiaohui.png"),
		SessionDays:             getEnvInt("SESSION_DAYS", 31),
		HashPasswords:           getEnvBool("HASH_PASSWORDS", false),
		CommentsRequirePostPerm: getEnvBool("COMMENTS_REQUIRE_POST_PERM", false),
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
