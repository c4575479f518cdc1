package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "phono"

type Config struct {
	Roots        []string `koanf:"roots"`         // directories to scan for audio files
	DatabasePath string   `koanf:"database_path"` // index location, defaults to XDG data dir
	LogLevel     string   `koanf:"log_level"`     // "debug", "info", "warn", "error"

	Scan ScanConfig `koanf:"scan"`
}

// ScanConfig holds scan-related configuration.
type ScanConfig struct {
	Workers        int  `koanf:"workers"`         // metadata extraction workers (default: 8)
	FollowSymlinks bool `koanf:"follow_symlinks"` // follow directory symlinks, cycle-safe (default: true)
	IncludeHidden  bool `koanf:"include_hidden"`  // index dotfiles and dot-directories (default: false)
}

func Load() (*Config, error) {
	return loadFrom(getConfigPaths())
}

func loadFrom(paths []string) (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		LogLevel: "info",
		Scan: ScanConfig{
			Workers:        8,
			FollowSymlinks: true,
		},
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Expand ~ in roots
	for i := range cfg.Roots {
		cfg.Roots[i] = expandPath(cfg.Roots[i])
	}

	if cfg.DatabasePath == "" {
		dbPath, err := xdg.DataFile(filepath.Join(appName, appName+".db"))
		if err != nil {
			return nil, err
		}
		cfg.DatabasePath = dbPath
	} else {
		cfg.DatabasePath = expandPath(cfg.DatabasePath)
	}

	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = 8
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/phono/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
