package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" required:"true"`
	Environment               string        `koanf:"environment" default:"production"`
	Hostname                  string        `koanf:"hostname"`
	JWTSecret                 string        `koanf:"jwt_secret" required:"true"`
	ServerHost                string        `koanf:"server_host" default:"0.0.0.0"`
	ServerPort                int           `koanf:"server_port" default:"3689"`

	// Bibliographic providers.
	GoodReadsBaseURL    string        `koanf:"good_reads_base_url" default:"https://www.goodreads.com"`
	GoodReadsKey        string        `koanf:"good_reads_key"`
	OpenLibraryBaseURL  string        `koanf:"open_library_base_url" default:"https://openlibrary.org"`
	ProviderHTTPTimeout time.Duration `koanf:"provider_http_timeout" default:"15s"`

	// Lexical lookup used by standalone topic creation.
	LexiconBaseURL string `koanf:"lexicon_base_url" default:"https://wordsapiv1.p.mashape.com"`
	LexiconKey     string `koanf:"lexicon_key"`

	// Managed image storage.
	ImageStorageEndpoint      string `koanf:"image_storage_endpoint"`
	ImageStorageRegion        string `koanf:"image_storage_region" default:"us-east-1"`
	ImageStorageBucket        string `koanf:"image_storage_bucket" default:"keenpages-covers"`
	ImageStorageAccessKey     string `koanf:"image_storage_access_key"`
	ImageStorageSecretKey     string `koanf:"image_storage_secret_key"`
	ImageStoragePublicBaseURL string `koanf:"image_storage_public_base_url"`

	NotifyWebhookURL string `koanf:"notify_webhook_url"`
}

const (
	EnvironmentProduction = "production"
	EnvironmentTest       = "test"
)

const configFileENV = "CONFIG_FILE"

const defaultConfigFile = "/config/keenpages.yaml"

// New loads defaults, then the YAML config file (if any), then environment
// variables. Later sources win.
func New() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", configFile)
		}
	}

	known := knownKeys()
	err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, ok := known[key]; !ok {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.WithStack(err)
	}

	if cfg.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		cfg.Hostname = hostname
	}

	if err := validateRequired(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config backed by an in-memory database.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.DatabaseFilePath = ":memory:"
	cfg.JWTSecret = "test-secret"
	cfg.ServerHost = "127.0.0.1"
	cfg.Hostname = "test"
	cfg.Environment = EnvironmentTest
	return cfg
}

func validateRequired(cfg *Config) error {
	var missing []string
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("required") != "true" {
			continue
		}
		if v.Field(i).IsZero() {
			key := toSnakeCase(field.Name)
			missing = append(missing, strings.ToUpper(key)+" (env) / "+key+" (file)")
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

func knownKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		keys[t.Field(i).Tag.Get("koanf")] = struct{}{}
	}
	return keys
}

func toSnakeCase(s string) string {
	return strcase.ToSnake(s)
}
