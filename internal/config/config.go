package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by ATOMEXEC_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("ATOMEXEC_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// APIKey is the bearer token required on /v1 routes. Empty disables auth.
func APIKey() string {
	return os.Getenv("API_KEY")
}

// ScriptingEnabled controls the scm: evaluator. Defaults to true.
func ScriptingEnabled() bool {
	return boolEnv("ENABLE_SCRIPTING", true)
}

// DynamicEnabled controls the py: evaluator. Defaults to true.
func DynamicEnabled() bool {
	return boolEnv("ENABLE_DYNAMIC", true)
}

// NativeEnabled controls lib: dispatch. Defaults to false since it loads
// arbitrary shared libraries into the server process.
func NativeEnabled() bool {
	return boolEnv("ENABLE_NATIVE", false)
}

// DynamicScriptDir is a directory of Go scripts loaded into the py:
// evaluator at startup. Empty means none.
func DynamicScriptDir() string {
	return os.Getenv("DYNAMIC_SCRIPT_DIR")
}

// DefaultMergePolicy is used when a revision request names no policy.
// Valid values: pln_book_revision, higher_confidence
func DefaultMergePolicy() string {
	p := os.Getenv("DEFAULT_MERGE_POLICY")
	if p == "" {
		return "pln_book_revision"
	}
	return p
}

func boolEnv(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
