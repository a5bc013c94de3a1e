package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// BootstrapConfig holds the resampling defaults of an evaluation.
type BootstrapConfig struct {
	MeanBlockSize int    // in timesteps
	Replicates    int    // number of pseudo-replicate pools
	Seed          uint64 // 0 means derive from the clock
	Workers       int    // replicates generated concurrently
}

// AppConfig holds the complete application configuration. LOGS_FOLDER is read
// by the logging package, which starts before the configuration is loaded.
type AppConfig struct {
	Bootstrap BootstrapConfig
	DataPath  string // default directory of pool and replicate files
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try the executable's directory first
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	cfg := &AppConfig{
		Bootstrap: BootstrapConfig{
			MeanBlockSize: getEnvInt("BOOTSTRAP_MEAN_BLOCK_SIZE", 1),
			Replicates:    getEnvInt("BOOTSTRAP_REPLICATES", 1000),
			Seed:          getEnvUint("BOOTSTRAP_SEED", 0),
			Workers:       getEnvInt("BOOTSTRAP_WORKERS", runtime.GOMAXPROCS(0)),
		},
		DataPath: dataPath,
	}

	return cfg, nil
}

// ResolveSeed returns the configured seed, or a clock-derived one when unset.
func (b BootstrapConfig) ResolveSeed() uint64 {
	if b.Seed != 0 {
		return b.Seed
	}
	return uint64(time.Now().UnixNano())
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer configuration value")
	}
	return fallback
}

func getEnvUint(key string, fallback uint64) uint64 {
	if value, ok := os.LookupEnv(key); ok {
		if uintVal, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric configuration value")
	}
	return fallback
}
