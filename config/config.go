package config

import (
	"fmt"
	"io"
	"log"
	"path"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

type Speech struct {
	Command string  `yaml:"Command" env:"COMMAND"`
	Voice   string  `yaml:"Voice" env:"VOICE"`
	Rate    float64 `yaml:"Rate" env:"RATE"`
	Pitch   float64 `yaml:"Pitch" env:"PITCH"`
}

type Practice struct {
	SuccessDelay time.Duration `yaml:"SuccessDelay" env:"SUCCESS_DELAY"`
	ConfirmDelay time.Duration `yaml:"ConfirmDelay" env:"CONFIRM_DELAY"`
}

type Proxy struct {
	Origin           string   `yaml:"Origin" env:"ORIGIN"`
	Listen           string   `yaml:"Listen" env:"LISTEN"`
	CacheVersion     string   `yaml:"CacheVersion" env:"CACHE_VERSION"`
	Manifest         []string `yaml:"Manifest" env:"MANIFEST" envSeparator:","`
	RefreshPerMinute int      `yaml:"RefreshPerMinute" env:"REFRESH_PER_MINUTE"`
}

type Config struct {
	StoragePath string   `yaml:"StoragePath" env:"STORAGE_PATH"`
	LogLevel    string   `yaml:"LogLevel" env:"LOG_LEVEL"`
	Speech      Speech   `yaml:"Speech" envPrefix:"SPEECH_"`
	Practice    Practice `yaml:"Practice" envPrefix:"PRACTICE_"`
	Proxy       Proxy    `yaml:"Proxy" envPrefix:"PROXY_"`
}

const EnvPrefix = "SPELLSTR_"

var DefaultManifest = []string{
	"./",
	"./index.html",
	"./styles.css",
	"./app.js",
	"./manifest.webmanifest",
	"./words.json",
	"./icons/icon-192.svg",
	"./icons/icon-512.svg",
}

var (
	DefaultConfigDir  string
	DefaultConfigPath string
	DefaultStorageDir string
	DefaultLogPath    string
)

func init() {
	var err error
	DefaultConfigPath, err = xdg.ConfigFile("spellstr/spellstr.yaml")
	if err != nil {
		log.Fatal(err)
	}
	DefaultConfigDir = path.Dir(DefaultConfigPath)
	DefaultStorageDir = path.Join(xdg.DataHome, "spellstr")
	DefaultLogPath = path.Join(xdg.StateHome, "spellstr", "spellstr.log")
}

// Default returns the configuration written on first run.
func Default() Config {
	return Config{
		StoragePath: DefaultStorageDir,
		LogLevel:    "info",
		Speech: Speech{
			Command: "espeak-ng",
			Rate:    0.95,
			Pitch:   1.0,
		},
		Practice: Practice{
			SuccessDelay: 900 * time.Millisecond,
			ConfirmDelay: 700 * time.Millisecond,
		},
		Proxy: Proxy{
			Listen:           "127.0.0.1:8080",
			CacheVersion:     "spellstr-v2",
			Manifest:         append([]string(nil), DefaultManifest...),
			RefreshPerMinute: 60,
		},
	}
}

func (c Config) DbFile() string {
	return path.Join(c.StoragePath, "spellstr.db")
}

func (c Config) CacheFile() string {
	return path.Join(c.StoragePath, "cache.db")
}

type initConfigErr struct {
	s string
}

func (e *initConfigErr) Error() string {
	return e.s
}

func newInitConfigErr(err error) error {
	return &initConfigErr{
		s: fmt.Sprintf("Init config error: %s", err.Error()),
	}
}

func createDefaultFile(fs afero.Fs, configPath string) error {
	err := fs.MkdirAll(path.Dir(configPath), 0755)
	if err != nil {
		return err
	}

	exist, err := afero.Exists(fs, configPath)
	if err != nil {
		return err
	}

	if !exist {
		handle, err := fs.Create(configPath)
		if err != nil {
			return err
		}
		defer handle.Close()
		cfg := Default()
		err = yaml.NewEncoder(handle).Encode(&cfg)
		if err != nil {
			return err
		}
	}
	return nil
}

// InitConfig reads the config file, creating the default one when no path is
// given, then applies SPELLSTR_* environment overrides. Fields missing from the
// file keep their default values.
func InitConfig(fs afero.Fs, configPathOption string) (Config, error) {
	return initConfig(fs, configPathOption, DefaultConfigPath)
}

func initConfig(fs afero.Fs, configPathOption, defaultPath string) (Config, error) {
	config := Default()
	var configfile string

	if configPathOption == "" {
		configfile = defaultPath
		if err := createDefaultFile(fs, configfile); err != nil {
			return config, newInitConfigErr(err)
		}
	} else {
		exist, err := afero.Exists(fs, configPathOption)
		if err != nil {
			return config, newInitConfigErr(err)
		}
		if !exist {
			return config, &initConfigErr{
				s: fmt.Sprintf("Init config error: %s not exist", configPathOption),
			}
		}
		configfile = configPathOption
	}

	handle, err := fs.Open(configfile)
	if err != nil {
		return config, newInitConfigErr(err)
	}
	defer handle.Close()
	err = yaml.NewDecoder(handle).Decode(&config)
	if err != nil && err != io.EOF {
		return config, newInitConfigErr(err)
	}

	err = env.ParseWithOptions(&config, env.Options{Prefix: EnvPrefix})
	if err != nil {
		return config, newInitConfigErr(err)
	}
	return config, config.Validate()
}

// Validate checks the values the rest of the program relies on.
func (c Config) Validate() error {
	if c.StoragePath == "" {
		return &initConfigErr{s: "Init config error: StoragePath empty"}
	}
	if c.Speech.Rate <= 0 || c.Speech.Rate > 3 {
		return &initConfigErr{s: fmt.Sprintf("Init config error: Speech.Rate must be in (0, 3], got %.2f", c.Speech.Rate)}
	}
	if c.Speech.Pitch < 0 || c.Speech.Pitch > 2 {
		return &initConfigErr{s: fmt.Sprintf("Init config error: Speech.Pitch must be in [0, 2], got %.2f", c.Speech.Pitch)}
	}
	if c.Practice.SuccessDelay < 0 || c.Practice.ConfirmDelay < 0 {
		return &initConfigErr{s: "Init config error: Practice delays must not be negative"}
	}
	if c.Proxy.CacheVersion == "" {
		return &initConfigErr{s: "Init config error: Proxy.CacheVersion empty"}
	}
	return nil
}

// GetStringOption prefers a non-empty command line value over the config.
func GetStringOption(option, value string) string {
	if option != "" {
		return option
	}
	return value
}
