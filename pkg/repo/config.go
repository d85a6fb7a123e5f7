package repo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/odvcencio/twig/pkg/object"
)

// ConfigFileName is the repository configuration file inside .twig/.
const ConfigFileName = "config.toml"

// Config stores repository-local settings.
type Config struct {
	User    UserConfig    `toml:"user"`
	Core    CoreConfig    `toml:"core"`
	Reset   ResetConfig   `toml:"reset"`
	Archive ArchiveConfig `toml:"archive"`
}

type UserConfig struct {
	Name string `toml:"name,omitempty"`
}

type CoreConfig struct {
	Ignore []string `toml:"ignore,omitempty"`
}

type ResetConfig struct {
	// AllowNonAncestor lets reset move a branch to a commit that is not in
	// its history.
	AllowNonAncestor bool `toml:"allow_non_ancestor"`
}

type ArchiveConfig struct {
	// Level is a zstd encoder level name: fastest, default, better or best.
	Level string `toml:"level,omitempty"`
}

// ConfigKeys lists the keys accepted by ConfigValue and SetConfigValue.
var ConfigKeys = []string{"user.name", "core.ignore", "reset.allow_non_ancestor", "archive.level"}

func (r *Repo) configPath() string {
	return filepath.Join(r.TwigDir, ConfigFileName)
}

// ReadConfig reads .twig/config.toml. Missing config returns defaults.
// Unknown keys are rejected so typos do not silently change nothing.
func (r *Repo) ReadConfig() (*Config, error) {
	path := r.configPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", object.WrapIO("read", path, err))
	}
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("read config: decode: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("read config: unknown key %q", undecoded[0].String())
	}
	return &cfg, nil
}

// WriteConfig atomically writes .twig/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = &Config{}
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(r.TwigDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: %w", object.WrapIO("tmpfile", r.TwigDir, err))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: %w", object.WrapIO("write", tmpName, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: %w", object.WrapIO("close", tmpName, err))
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: %w", object.WrapIO("rename", r.configPath(), err))
	}
	return nil
}

// ConfigValue returns the string form of a single config key.
func (r *Repo) ConfigValue(key string) (string, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return "", err
	}
	switch key {
	case "user.name":
		return cfg.User.Name, nil
	case "core.ignore":
		return strings.Join(cfg.Core.Ignore, ","), nil
	case "reset.allow_non_ancestor":
		return strconv.FormatBool(cfg.Reset.AllowNonAncestor), nil
	case "archive.level":
		return cfg.Archive.Level, nil
	default:
		return "", fmt.Errorf("config: unknown key %q", key)
	}
}

// SetConfigValue parses value for key and persists it. core.ignore takes a
// comma-separated pattern list.
func (r *Repo) SetConfigValue(key, value string) error {
	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	switch key {
	case "user.name":
		if strings.ContainsAny(value, "\n\r") {
			return fmt.Errorf("config: user.name must be a single line")
		}
		cfg.User.Name = value
	case "core.ignore":
		cfg.Core.Ignore = nil
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Core.Ignore = append(cfg.Core.Ignore, p)
			}
		}
	case "reset.allow_non_ancestor":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("config: reset.allow_non_ancestor: %w", err)
		}
		cfg.Reset.AllowNonAncestor = b
	case "archive.level":
		switch value {
		case "", "fastest", "default", "better", "best":
			cfg.Archive.Level = value
		default:
			return fmt.Errorf("config: archive.level must be fastest, default, better or best")
		}
	default:
		return fmt.Errorf("config: unknown key %q", key)
	}
	return r.WriteConfig(cfg)
}

// AuthorName returns the configured user name, falling back to $USER and
// then "unknown".
func (r *Repo) AuthorName() (string, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return "", err
	}
	if name := strings.TrimSpace(cfg.User.Name); name != "" {
		return name, nil
	}
	if name := strings.TrimSpace(os.Getenv("USER")); name != "" {
		return name, nil
	}
	return "unknown", nil
}

// ignoreChecker builds the IgnoreChecker for the working tree from
// .twigignore and core.ignore.
func (r *Repo) ignoreChecker() (*IgnoreChecker, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return nil, err
	}
	return NewIgnoreChecker(r.RootDir, cfg.Core.Ignore), nil
}
