package configuration

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"samfw/pkg/helpers"
	"samfw/pkg/logger"
	"samfw/pkg/model"

	"github.com/creasty/defaults"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

type envVars struct {
	ConfigYAML string `envconfig:"SAMFW_CONFIG_YAML" required:"true"`

	// Path overrides kept for compatibility with existing deployments
	DataDir    string `envconfig:"FIRM_DATA_DIR"`
	DecryptDir string `envconfig:"FIRM_DECRYPT_DIR"`
}

// New parses the config file named by the SAMFW_CONFIG_YAML environment
// variable and applies the FIRM_DATA_DIR / FIRM_DECRYPT_DIR overrides.
func New(ctx context.Context) (*model.Cfg, error) {
	log := logger.NewSimple("Configuration")
	log.Info("Read environmental variable")

	env := envVars{}
	if err := envconfig.Process("", &env); err != nil {
		return nil, err
	}

	configPath := env.ConfigYAML

	cfg := &model.Cfg{}

	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}

	configFile, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, err
	}

	fileInfo, err := os.Stat(configPath)
	if err != nil {
		return nil, err
	}

	if fileInfo.IsDir() {
		return nil, errors.New("config is a folder")
	}

	if err := yaml.Unmarshal(configFile, cfg); err != nil {
		return nil, err
	}

	if env.DataDir != "" {
		cfg.Monitor.DataDir = env.DataDir
	}
	if env.DecryptDir != "" {
		cfg.Monitor.DecryptedDir = env.DecryptDir
	}

	if err := helpers.Check(ctx, cfg, log); err != nil {
		return nil, err
	}

	return cfg, nil
}
