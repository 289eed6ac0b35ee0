package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	vCfg   = viper.New()
	cfgDir string
)

const (
	logLevelKey       = "log_level"
	indexWorkersKey   = "index_workers"
	floatPrecisionKey = "float_precision"
	normalizeKey      = "normalize_output"
)

// Load reads ~/.prefabmerge/config.yaml if present and registers the
// PREFABMERGE_* environment overrides. A missing config file is not an error.
func Load() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	cfgDir = filepath.Join(home, ".prefabmerge")

	vCfg.SetConfigName("config")
	vCfg.SetConfigType("yaml")
	vCfg.AddConfigPath(cfgDir)

	vCfg.SetEnvPrefix("PREFABMERGE")
	vCfg.AutomaticEnv()

	vCfg.SetDefault(logLevelKey, "info")
	vCfg.SetDefault(indexWorkersKey, 0)
	vCfg.SetDefault(floatPrecisionKey, 6)
	vCfg.SetDefault(normalizeKey, true)

	if err := vCfg.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return nil
}

func GetLogLevel() string {
	return vCfg.GetString(logLevelKey)
}

// GetIndexWorkers returns the configured scan concurrency; zero means pick a
// default based on CPU count.
func GetIndexWorkers() int {
	return vCfg.GetInt(indexWorkersKey)
}

func GetFloatPrecision() int {
	return vCfg.GetInt(floatPrecisionKey)
}

func GetNormalizeOutput() bool {
	return vCfg.GetBool(normalizeKey)
}

func SetLogLevel(level string) error {
	vCfg.Set(logLevelKey, level)
	return save()
}

func save() error {
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return err
	}

	if err := vCfg.WriteConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}

		if err := vCfg.SafeWriteConfig(); err != nil {
			return err
		}
	}

	return nil
}
