package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/MrEthical07/goTeam/session"
)

const (
	storageFile   = "file"
	storageRedis  = "redis"
	storageMemory = "memory"
)

// cliConfig is resolved in order: defaults, YAML file, .env file, process
// environment, flags. Later sources win.
type cliConfig struct {
	APIURL      string        `yaml:"api_url"`
	Timeout     time.Duration `yaml:"timeout"`
	Storage     string        `yaml:"storage"`
	StateDir    string        `yaml:"state_dir"`
	RedisURL    string        `yaml:"redis_url"`
	RedisPrefix string        `yaml:"redis_prefix"`
	StorageKey  string        `yaml:"storage_key"`
	LogLevel    string        `yaml:"log_level"`
}

func defaultCLIConfig() cliConfig {
	dir := ".teamctl"
	if base, err := os.UserConfigDir(); err == nil {
		dir = filepath.Join(base, "teamctl")
	}
	return cliConfig{
		APIURL:      "http://localhost:8090",
		Timeout:     10 * time.Second,
		Storage:     storageFile,
		StateDir:    dir,
		RedisPrefix: "teamctl",
		StorageKey:  session.DefaultStorageKey,
		LogLevel:    "warn",
	}
}

type flagValues struct {
	configPath string
	envFile    string
	apiURL     string
	timeout    time.Duration
	storage    string
	stateDir   string
	redisURL   string
	storageKey string
	logLevel   string
}

func (v *flagValues) register(flags *pflag.FlagSet) {
	flags.StringVar(&v.configPath, "config", "teamctl.yaml", "YAML config file (optional)")
	flags.StringVar(&v.envFile, "env-file", ".env", "dotenv file read before the environment (optional)")
	flags.StringVar(&v.apiURL, "api-url", "", "server root, e.g. http://localhost:8090 (env TEAM_API_URL)")
	flags.DurationVar(&v.timeout, "timeout", 0, "per-request timeout")
	flags.StringVar(&v.storage, "storage", "", "token storage: file, redis or memory (env TEAM_STORAGE)")
	flags.StringVar(&v.stateDir, "state-dir", "", "directory for file token storage")
	flags.StringVar(&v.redisURL, "redis-url", "", "redis://host:port/db for redis token storage (env TEAM_REDIS_URL)")
	flags.StringVar(&v.storageKey, "storage-key", "", "name of the persisted token record (env TEAM_STORAGE_KEY)")
	flags.StringVar(&v.logLevel, "log-level", "", "zerolog level (env TEAM_LOG_LEVEL)")
}

func loadConfig(flags *pflag.FlagSet, v flagValues) (cliConfig, error) {
	cfg := defaultCLIConfig()

	raw, err := os.ReadFile(v.configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cliConfig{}, fmt.Errorf("parse %s: %w", v.configPath, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !flags.Changed("config"):
	default:
		return cliConfig{}, fmt.Errorf("read config: %w", err)
	}

	dotenv, err := godotenv.Read(v.envFile)
	if err != nil && !(errors.Is(err, fs.ErrNotExist) && !flags.Changed("env-file")) {
		return cliConfig{}, fmt.Errorf("read env file: %w", err)
	}
	lookup := func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return dotenv[key]
	}
	setIf(&cfg.APIURL, lookup("TEAM_API_URL"))
	setIf(&cfg.Storage, lookup("TEAM_STORAGE"))
	setIf(&cfg.RedisURL, lookup("TEAM_REDIS_URL"))
	setIf(&cfg.StorageKey, lookup("TEAM_STORAGE_KEY"))
	setIf(&cfg.LogLevel, lookup("TEAM_LOG_LEVEL"))

	if flags.Changed("api-url") {
		cfg.APIURL = v.apiURL
	}
	if flags.Changed("timeout") {
		cfg.Timeout = v.timeout
	}
	if flags.Changed("storage") {
		cfg.Storage = v.storage
	}
	if flags.Changed("state-dir") {
		cfg.StateDir = v.stateDir
	}
	if flags.Changed("redis-url") {
		cfg.RedisURL = v.redisURL
	}
	if flags.Changed("storage-key") {
		cfg.StorageKey = v.storageKey
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = v.logLevel
	}
	return cfg, cfg.validate()
}

func setIf(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func (c cliConfig) validate() error {
	if c.StorageKey == "" {
		return errors.New("storage key must not be empty")
	}
	switch c.Storage {
	case storageFile:
		if c.StateDir == "" {
			return errors.New("file storage needs a state dir")
		}
	case storageRedis:
		if c.RedisURL == "" {
			return errors.New("redis storage needs a redis url")
		}
	case storageMemory:
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	return nil
}
