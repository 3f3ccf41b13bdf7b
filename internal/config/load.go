package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	ferrors "git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

const (
	// FileName is the configuration file looked up when none is given.
	FileName = "sitegen.yaml"
	// FileNameAlt is the alternate spelling.
	FileNameAlt = "sitegen.yml"
	// EnvPrefix selects environment overrides, e.g. SITEGEN_BUILD_CONCURRENCY.
	EnvPrefix = "SITEGEN_"
)

// EnvFiles are tried in order; the first one found is loaded. Variables that
// are already set in the process environment are never overwritten.
var EnvFiles = []string{".env", ".env.local"}

// Load reads configuration with increasing priority from defaults, the
// configuration file and SITEGEN_ environment variables. An explicit path
// must exist; without one sitegen.yaml is used when present. It returns the
// file that was used, or "" when none was.
func Load(path string) (*Config, string, error) {
	loadEnvFile()

	used, err := findFile(path)
	if err != nil {
		return nil, "", err
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, "", ferrors.WrapError(err, ferrors.CategoryInternal, "load defaults").Build()
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, "", ferrors.WrapError(err, ferrors.CategoryConfig, "read configuration file").
				WithContext("path", used).
				Fatal().
				Build()
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, "", ferrors.WrapError(err, ferrors.CategoryConfig, "read environment").
			Fatal().
			Build()
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", ferrors.WrapError(err, ferrors.CategoryConfig, "decode configuration").
			WithContext("path", used).
			Fatal().
			Build()
	}
	if err := Validate(&cfg); err != nil {
		return nil, "", err
	}
	applyDefaults(&cfg)
	return &cfg, used, nil
}

// GlobalsEnvPrefix marks variables that set site globals:
// SITEGEN_SITE_GLOBALS_siteName sets site.globals.siteName.
const GlobalsEnvPrefix = EnvPrefix + "SITE_GLOBALS_"

// envKey maps SITEGEN_MARKDOWN_HARD_WRAPS to markdown.hard_wraps. Only the
// first underscore separates the section from the key. Global names keep
// their case and underscores.
func envKey(s string) string {
	if len(s) > len(GlobalsEnvPrefix) && strings.EqualFold(s[:len(GlobalsEnvPrefix)], GlobalsEnvPrefix) {
		return "site.globals." + s[len(GlobalsEnvPrefix):]
	}
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

func findFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", ferrors.WrapError(err, ferrors.CategoryConfig, "configuration file not found").
				WithContext("path", explicit).
				Build()
		}
		return explicit, nil
	}
	for _, name := range []string{FileName, FileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", nil
}

func loadEnvFile() {
	for _, name := range EnvFiles {
		if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(filepath.Clean(name)); err == nil {
			return
		}
	}
}
