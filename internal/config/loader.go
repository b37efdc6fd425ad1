package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "shadowlet.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "shadowlet.yml"

// Default configuration values.
const (
	DefaultNamespace   = "user"
	DefaultStateFile   = ".shadowlet/state.db"
	DefaultHistoryFile = ".shadowlet/history"
	DefaultPrompt      = "%s=> "
	DefaultOutput      = "table"
)

// maxUpwardSearchLevels limits how far up the directory tree to search for
// config files.
const maxUpwardSearchLevels = 10

func configFileIn(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// FindProjectRoot searches upward from startDir for a shadowlet config file
// and returns the directory holding it, or "" when none is found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configFileIn(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
//
// cfgFile, when non-empty, names the config file explicitly; otherwise the
// file is searched upward from the working directory.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	projectRoot := ""
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			cfgFile = abs
		}
		projectRoot = filepath.Dir(cfgFile)
	} else if cwd, err := os.Getwd(); err == nil {
		if root := FindProjectRoot(cwd); root != "" {
			projectRoot = root
			cfgFile = configFileIn(root)
		} else {
			projectRoot = cwd
		}
	} else {
		projectRoot = "."
	}

	// 1. Defaults.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"namespace":    DefaultNamespace,
		"state_path":   DefaultStateFile,
		"history_file": DefaultHistoryFile,
		"prompt":       DefaultPrompt,
		"output":       DefaultOutput,
		"watch_init":   false,
		"verbose":      false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file, when present.
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment variables: SHADOWLET_STATE_PATH -> state_path.
	if err := k.Load(env.Provider("SHADOWLET_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SHADOWLET_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")

			// The CLI uses --state for brevity; the config key is state_path.
			if key == "state" {
				return "state_path", posflag.FlagVal(flags, f)
			}
			if key == "init" {
				return "init_files", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	// The state path can be :memory: for an in-process database.
	if cfg.StatePath != ":memory:" {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	}
	cfg.HistoryFile = resolvePathRelativeTo(cfg.HistoryFile, projectRoot)
	for i, f := range cfg.InitFiles {
		cfg.InitFiles[i] = resolvePathRelativeTo(f, projectRoot)
	}

	switch cfg.Output {
	case "table", "plain", "json":
	default:
		return nil, fmt.Errorf("invalid output format %q (want table, plain, or json)", cfg.Output)
	}
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("namespace must not be empty")
	}

	return &cfg, nil
}
