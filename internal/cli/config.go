package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ralt/wheelhouse/internal/generator"
	"github.com/ralt/wheelhouse/internal/generator/simple"
	"github.com/ralt/wheelhouse/internal/models"
	"github.com/ralt/wheelhouse/internal/signer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultRegistryPath = "packages.json"
	defaultIndexDir     = "index"
	defaultBackend      = models.BackendS3
)

// Configuration keys, also usable as WHEELHOUSE_<KEY> with "." replaced by "_"
const (
	keyRegistry          = "registry"
	keyIndexDir          = "index_dir"
	keyTitle             = "index.title"
	keyDescription       = "index.description"
	keyGzip              = "index.gzip"
	keyBackend           = "storage.backend"
	keyBucket            = "storage.bucket"
	keyPrefix            = "storage.prefix"
	keyRegion            = "storage.region"
	keyEndpoint          = "storage.endpoint"
	keyBaseURL           = "storage.base_url"
	keyRoot              = "storage.root"
	keyGPGKey            = "gpg.key"
	keyGPGPassphrase     = "gpg.passphrase"
	keyRequireRegistered = "upload.require_registered"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyRegistry, defaultRegistryPath)
	v.SetDefault(keyIndexDir, defaultIndexDir)
	v.SetDefault(keyTitle, simple.DefaultTitle)
	v.SetDefault(keyBackend, defaultBackend)

	v.SetEnvPrefix("WHEELHOUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// bindFlags binds flag names to config keys
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			logrus.Errorf("Error binding %s flag: %v", flag, err)
		}
	}
}

// readConfigFile loads --config, or ./wheelhouse.yaml when it exists
func readConfigFile(v *viper.Viper) error {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("wheelhouse")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("failed to read config: %w", err))
	}

	logrus.Debugf("Using config file %s", v.ConfigFileUsed())
	return nil
}

// loadConfig resolves flags, environment and config file into a Config
func loadConfig(v *viper.Viper) (*models.Config, error) {
	config := &models.Config{
		RegistryPath:      v.GetString(keyRegistry),
		IndexDir:          v.GetString(keyIndexDir),
		Title:             v.GetString(keyTitle),
		Description:       v.GetString(keyDescription),
		Gzip:              v.GetBool(keyGzip),
		Backend:           v.GetString(keyBackend),
		Bucket:            v.GetString(keyBucket),
		Prefix:            v.GetString(keyPrefix),
		Region:            v.GetString(keyRegion),
		Endpoint:          v.GetString(keyEndpoint),
		BaseURL:           v.GetString(keyBaseURL),
		Root:              v.GetString(keyRoot),
		GPGKeyPath:        v.GetString(keyGPGKey),
		GPGPassphrase:     v.GetString(keyGPGPassphrase),
		RequireRegistered: v.GetBool(keyRequireRegistered),
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	logrus.Debugf("Configuration: registry=%s index=%s backend=%s bucket=%s prefix=%s",
		config.RegistryPath, config.IndexDir, config.Backend, config.Bucket, config.Prefix)
	return config, nil
}

func validateConfig(config *models.Config) error {
	if config.RegistryPath == "" {
		return &models.WheelhouseError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("registry path is required"),
		}
	}

	if config.IndexDir == "" {
		return &models.WheelhouseError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("index-dir is required"),
		}
	}

	switch config.Backend {
	case models.BackendS3, models.BackendGCS, models.BackendFile:
	default:
		return &models.WheelhouseError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("storage backend must be s3, gcs or file, got %q", config.Backend),
		}
	}

	return nil
}

// newSigner returns the configured GPG signer, or nil when signing is off
func newSigner(config *models.Config) (signer.Signer, error) {
	if config.GPGKeyPath == "" {
		return nil, nil
	}

	s, err := signer.NewGPGSigner(config.GPGKeyPath, config.GPGPassphrase)
	if err != nil {
		return nil, &models.WheelhouseError{
			Type: models.ErrSigning,
			Err:  fmt.Errorf("failed to initialize GPG signer: %w", err),
		}
	}
	logrus.Infof("Signing with GPG key %s", s.Fingerprint())
	return s, nil
}

// environment bundles what every command builds from the config
type environment struct {
	config *models.Config
	signer signer.Signer
	gen    generator.Generator
}

func newEnvironment(v *viper.Viper) (*environment, error) {
	config, err := loadConfig(v)
	if err != nil {
		return nil, err
	}

	s, err := newSigner(config)
	if err != nil {
		return nil, err
	}

	return &environment{
		config: config,
		signer: s,
		gen:    simple.NewGenerator(config, s),
	}, nil
}
