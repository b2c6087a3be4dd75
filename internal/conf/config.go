// Package conf loads and exposes the waves-previewer core settings.
package conf

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaultsFS embed.FS

// LogConfig controls the rotating structured log file.
type LogConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DeviceConfig controls the realtime audio output device.
type DeviceConfig struct {
	OutputDeviceName string
	SampleRate       int
	Channels         int
}

// EditorConfig controls the edit buffer / undo stack.
type EditorConfig struct {
	UndoByteBudget int64
}

// ListPreviewConfig controls list selection auditioning.
type ListPreviewConfig struct {
	CacheMaxEntries      int
	PrefetchInflightMax  int
	PrefixSeconds        float64
	OutSampleRate        int
	Quality              string
	TransientErrorBudget int
}

// MetadataConfig controls background metadata probing.
type MetadataConfig struct {
	WorkerPoolSize       int
	TransientErrorBudget int
	ThumbnailBins        int
}

// SpectrogramConfig controls on-demand tile generation.
type SpectrogramConfig struct {
	TileByteBudget int64
	FFTSize        int
	Overlap        float64
	MaxFrames      int
	Window         string
	Scale          string
	DBFloor        float64
}

// ExportConfig controls default export behavior (per-run overrides live in internal/export).
type ExportConfig struct {
	NameTemplate string
	Conflict     string
	BackupBak    bool
	DestFolder   string
	TempDir      string
}

// DecodeConfig controls the ffmpeg subprocess fallback decode/encode path.
type DecodeConfig struct {
	FfmpegPath    string
	FfmpegTimeout time.Duration
}

// Settings is the root configuration object.
type Settings struct {
	Debug      bool
	Log        LogConfig
	Device     DeviceConfig
	Editor     EditorConfig
	ListPreview ListPreviewConfig
	Metadata   MetadataConfig
	Spectrogram SpectrogramConfig
	Export     ExportConfig
	Decode     DecodeConfig
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads configuration from disk (or the given explicit path) and from
// the environment, falling back to the embedded defaults when nothing is
// found, mirroring the teacher's initViper/Load split.
func Load(explicitPath string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("WAVES")
	v.AutomaticEnv()

	setDefaults(v)

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName("waves-previewer")
		if home, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "waves-previewer"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// No config file on disk: defaults + env only, same as the teacher
		// falling back to its embedded config.yaml.
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	settingsInstance = settings
	return settings, nil
}

func setDefaults(v *viper.Viper) {
	data, err := fs.ReadFile(defaultsFS, "defaults.yaml")
	if err != nil {
		log.Fatalf("reading embedded defaults: %v", err)
	}
	defaultsViper := viper.New()
	defaultsViper.SetConfigType("yaml")
	if err := defaultsViper.ReadConfig(bytes.NewReader(data)); err != nil {
		log.Fatalf("parsing embedded defaults: %v", err)
	}
	for _, key := range defaultsViper.AllKeys() {
		v.SetDefault(key, defaultsViper.Get(key))
	}
}

// GetSettings returns the current settings instance without triggering a load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings, loading defaults-only settings the
// first time it is called if nothing has explicitly called Load yet.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(""); err != nil {
				log.Fatalf("loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}
