package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mlgudi/chance-man-sub000/internal/eligibility"
)

var (
	cfgMux    sync.RWMutex
	ChanceMan *Cfg
	Profiles  map[string]*ProfileCfg
	Version   = "dev"

	// Dir is the root of all configuration and profile state. Overridable
	// for tests.
	Dir = "config"

	validate = validator.New()
)

// Cfg is the process-level configuration loaded from chanceman.yaml.
type Cfg struct {
	Debug struct {
		Log bool `yaml:"log"`
	} `yaml:"debug"`
	LogSaveDirectory string `yaml:"logSaveDirectory"`
	CatalogPath      string `yaml:"catalogPath"`
	Server           struct {
		Port int `yaml:"port" validate:"gte=0,lte=65535"`
	} `yaml:"server"`
	Discord struct {
		Enabled    bool   `yaml:"enabled"`
		WebhookURL string `yaml:"webhookUrl" validate:"omitempty,url"`
	} `yaml:"discord"`
	Telegram struct {
		Enabled bool   `yaml:"enabled"`
		Token   string `yaml:"token"`
		ChatID  int64  `yaml:"chatId"`
	} `yaml:"telegram"`
}

// ProfileCfg holds the per-profile toggles. Changing any of them triggers an
// eligibility rebuild.
type ProfileCfg struct {
	ProfileFolderName string `yaml:"-"`

	FreeToPlayOnly          bool `yaml:"freeToPlayOnly"`
	IncludeFlatpacks        bool `yaml:"includeFlatpacks"`
	IncludeItemSets         bool `yaml:"includeItemSets"`
	StrictPoisonRequirement bool `yaml:"strictPoisonRequirement"`

	TickIntervalMs int `yaml:"tickIntervalMs" validate:"gte=0,lte=10000"`
}

// Eligibility maps the profile toggles onto index rebuild options.
func (p *ProfileCfg) Eligibility() eligibility.Options {
	return eligibility.Options{
		FreeToPlayOnly:   p.FreeToPlayOnly,
		IncludeFlatpacks: p.IncludeFlatpacks,
		IncludeItemSets:  p.IncludeItemSets,
		StrictPoison:     p.StrictPoisonRequirement,
	}
}

// Load reads chanceman.yaml plus every profile directory under Dir. A
// missing chanceman.yaml is written with defaults on first run.
func Load() error {
	cfgMux.Lock()
	defer cfgMux.Unlock()
	Profiles = make(map[string]*ProfileCfg)

	mainPath := filepath.Join(Dir, "chanceman.yaml")
	r, err := os.Open(mainPath)
	if errors.Is(err, fs.ErrNotExist) {
		ChanceMan = defaultCfg()
		if err := saveYAML(mainPath, ChanceMan); err != nil {
			return fmt.Errorf("writing default chanceman.yaml: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("error loading chanceman.yaml: %w", err)
	} else {
		defer r.Close()
		cfg := &Cfg{}
		if err := yaml.NewDecoder(r).Decode(cfg); err != nil {
			return fmt.Errorf("error reading config %s: %w", mainPath, err)
		}
		ChanceMan = cfg
	}
	if err := validate.Struct(ChanceMan); err != nil {
		return fmt.Errorf("invalid configuration %s: %w", mainPath, err)
	}

	entries, err := os.ReadDir(Dir)
	if err != nil {
		return fmt.Errorf("error reading config directory %s: %w", Dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "backups" {
			continue
		}

		profileCfg := ProfileCfg{}
		profilePath := filepath.Join(Dir, entry.Name(), "config.yaml")
		pr, err := os.Open(profilePath)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("error loading %s: %w", profilePath, err)
		}

		if err := yaml.NewDecoder(pr).Decode(&profileCfg); err != nil {
			_ = pr.Close()
			return fmt.Errorf("error reading %s profile config: %w", profilePath, err)
		}
		_ = pr.Close()

		if err := validate.Struct(&profileCfg); err != nil {
			return fmt.Errorf("invalid profile config %s: %w", profilePath, err)
		}

		profileCfg.ProfileFolderName = entry.Name()
		Profiles[entry.Name()] = &profileCfg
	}

	return nil
}

func defaultCfg() *Cfg {
	cfg := &Cfg{}
	cfg.Server.Port = 8088
	cfg.LogSaveDirectory = "logs"
	return cfg
}

// GetProfile returns the config for one profile, creating a default entry
// for profiles seen for the first time.
func GetProfile(name string) *ProfileCfg {
	cfgMux.Lock()
	defer cfgMux.Unlock()
	if cfg, ok := Profiles[name]; ok {
		return cfg
	}
	cfg := &ProfileCfg{ProfileFolderName: name, IncludeFlatpacks: true, IncludeItemSets: true}
	Profiles[name] = cfg
	return cfg
}

// GetProfiles returns all loaded profile configs.
func GetProfiles() map[string]*ProfileCfg {
	cfgMux.RLock()
	defer cfgMux.RUnlock()
	out := make(map[string]*ProfileCfg, len(Profiles))
	for name, cfg := range Profiles {
		out[name] = cfg
	}
	return out
}

// ValidateAndSave validates the process config and writes it back to disk.
func ValidateAndSave(cfg Cfg) error {
	if err := validate.Struct(&cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfgMux.Lock()
	defer cfgMux.Unlock()
	ChanceMan = &cfg
	return saveYAML(filepath.Join(Dir, "chanceman.yaml"), ChanceMan)
}

// SaveProfile validates a profile config and writes it to the profile
// directory.
func SaveProfile(name string, cfg *ProfileCfg) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid profile config: %w", err)
	}

	cfgMux.Lock()
	defer cfgMux.Unlock()
	cfg.ProfileFolderName = name
	Profiles[name] = cfg
	return saveYAML(filepath.Join(Dir, name, "config.yaml"), cfg)
}

// ProfileDir returns the state directory for a profile.
func ProfileDir(name string) string {
	return filepath.Join(Dir, name)
}

func saveYAML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
