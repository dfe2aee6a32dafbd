package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string `mapstructure:"port" json:"port"`
	MigrationsDir string `mapstructure:"migrationsDir" json:"migrationsDir"`
	ModelsDir     string `mapstructure:"modelsDir" json:"modelsDir"`
	PublicDir     string `mapstructure:"publicDir" json:"publicDir"`

	// optional YAML vocabulary extending the built-in type tables
	VocabularyFile string `mapstructure:"vocabularyFile" json:"vocabularyFile"`

	// Postgres URL for DDL apply; empty disables it
	DBURL string `mapstructure:"dbUrl" json:"dbUrl"`

	LogLevel string `mapstructure:"logLevel" json:"logLevel"`
	LogFile  string `mapstructure:"logFile" json:"logFile"`
}

func def() Config {
	return Config{
		Port:          "3000",
		MigrationsDir: "database/migrations",
		ModelsDir:     "app/Models",
		PublicDir:     "public",
		LogLevel:      "info",
	}
}

type option struct {
	key, flag, usage string
	env              []string
}

var options = []option{
	{"port", "port", "HTTP port", []string{"DBDESIGN_PORT", "PORT"}},
	{"migrationsDir", "migrations-dir", "Directory with migration documents", []string{"DBDESIGN_MIGRATIONS_DIR"}},
	{"modelsDir", "models-dir", "Directory for generated model classes", []string{"DBDESIGN_MODELS_DIR"}},
	{"publicDir", "public-dir", "Directory with static UI files", []string{"DBDESIGN_PUBLIC_DIR"}},
	{"vocabularyFile", "vocabulary", "YAML type vocabulary file", []string{"DBDESIGN_VOCABULARY_FILE"}},
	{"dbUrl", "db", "Postgres URL (empty = apply disabled)", []string{"DBDESIGN_DB_URL"}},
	{"logLevel", "log-level", "Log level (debug/info/warn/error)", []string{"DBDESIGN_LOG_LEVEL"}},
	{"logFile", "log-file", "Also write JSON logs to this file", []string{"DBDESIGN_LOG_FILE"}},
}

func lookup(c Config, key string) string {
	switch key {
	case "port":
		return c.Port
	case "migrationsDir":
		return c.MigrationsDir
	case "modelsDir":
		return c.ModelsDir
	case "publicDir":
		return c.PublicDir
	case "vocabularyFile":
		return c.VocabularyFile
	case "dbUrl":
		return c.DBURL
	case "logLevel":
		return c.LogLevel
	case "logFile":
		return c.LogFile
	}
	return ""
}

// Load layers defaults, the config file (JSON or YAML, if it exists), the
// environment and finally command line flags.
func Load(path string, args []string) (Config, error) {
	d := def()
	v := viper.New()
	fs := pflag.NewFlagSet("dbdesign", pflag.ContinueOnError)
	configPath := fs.String("config", path, "Path to config file (JSON or YAML)")
	for _, o := range options {
		v.SetDefault(o.key, lookup(d, o.key))
		fs.String(o.flag, lookup(d, o.key), o.usage)
	}
	if err := fs.Parse(args); err != nil {
		return d, err
	}

	if p := strings.TrimSpace(*configPath); p != "" {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			v.SetConfigFile(p)
			if err := v.ReadInConfig(); err != nil {
				return d, errors.Wrapf(err, "read config %s", p)
			}
		}
	}

	for _, o := range options {
		if err := v.BindEnv(append([]string{o.key}, o.env...)...); err != nil {
			return d, errors.Wrapf(err, "bind env for %s", o.key)
		}
		// unchanged flags must not mask file or env values
		if f := fs.Lookup(o.flag); f != nil && f.Changed {
			if err := v.BindPFlag(o.key, f); err != nil {
				return d, errors.Wrapf(err, "bind flag %s", o.flag)
			}
		}
	}

	cfg := d
	if err := v.Unmarshal(&cfg); err != nil {
		return d, errors.Wrap(err, "decode config")
	}
	cfg.Port = strings.TrimSpace(cfg.Port)
	cfg.MigrationsDir = strings.TrimSpace(cfg.MigrationsDir)
	cfg.ModelsDir = strings.TrimSpace(cfg.ModelsDir)
	cfg.DBURL = strings.TrimSpace(cfg.DBURL)
	return cfg, nil
}
