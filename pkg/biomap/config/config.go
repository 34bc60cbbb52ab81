package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/biomap/internal/bioportal"
	"github.com/cognicore/biomap/internal/osdr"
	"github.com/cognicore/biomap/pkg/biomap/batch"
	"github.com/cognicore/biomap/pkg/biomap/internalerr"
	"github.com/cognicore/biomap/pkg/biomap/normalize"
)

// DefaultAPIKeyEnv names the environment variable holding the BioPortal key.
const DefaultAPIKeyEnv = "BIOPORTAL_API_KEY"

// Config represents biomap.yaml
type Config struct {
	BioPortal  BioPortal `yaml:"bioportal"`
	OSDR       OSDR      `yaml:"osdr"`
	Vocabulary string    `yaml:"vocabulary"`
}

// BioPortal configures the ontology recommender.
type BioPortal struct {
	URL       string        `yaml:"url"`
	APIKeyEnv string        `yaml:"api_key_env"`
	BatchSize int           `yaml:"batch_size"`
	Delay     time.Duration `yaml:"delay"`
	Timeout   time.Duration `yaml:"timeout"`
}

// OSDR configures the metadata export.
type OSDR struct {
	BaseURL     string        `yaml:"base_url"`
	MetadataDir string        `yaml:"metadata_dir"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BioPortal: BioPortal{
			URL:       bioportal.DefaultURL,
			APIKeyEnv: DefaultAPIKeyEnv,
			BatchSize: batch.DefaultSize,
			Delay:     bioportal.DefaultDelay,
			Timeout:   30 * time.Second,
		},
		OSDR: OSDR{
			BaseURL:     osdr.DefaultBaseURL,
			MetadataDir: "data/metadata",
			Timeout:     60 * time.Second,
		},
	}
}

// Load reads a YAML config file over the defaults. Keys missing from the
// file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the clients cannot run with.
func (c Config) Validate() error {
	switch {
	case c.BioPortal.URL == "":
		return fmt.Errorf("%w: bioportal.url is empty", internalerr.ErrInvalidConfig)
	case c.BioPortal.BatchSize <= 0:
		return fmt.Errorf("%w: bioportal.batch_size must be positive, got %d", internalerr.ErrInvalidConfig, c.BioPortal.BatchSize)
	case c.BioPortal.Delay < 0:
		return fmt.Errorf("%w: bioportal.delay is negative", internalerr.ErrInvalidConfig)
	case c.BioPortal.Timeout < 0:
		return fmt.Errorf("%w: bioportal.timeout is negative", internalerr.ErrInvalidConfig)
	case c.OSDR.BaseURL == "":
		return fmt.Errorf("%w: osdr.base_url is empty", internalerr.ErrInvalidConfig)
	case c.OSDR.MetadataDir == "":
		return fmt.Errorf("%w: osdr.metadata_dir is empty", internalerr.ErrInvalidConfig)
	case c.OSDR.Timeout < 0:
		return fmt.Errorf("%w: osdr.timeout is negative", internalerr.ErrInvalidConfig)
	}
	return nil
}

// APIKey returns the BioPortal key from the configured environment variable.
func (c Config) APIKey() (string, error) {
	name := c.BioPortal.APIKeyEnv
	if name == "" {
		name = DefaultAPIKeyEnv
	}
	key := os.Getenv(name)
	if key == "" {
		return "", fmt.Errorf("%w: set %s", internalerr.ErrMissingAPIKey, name)
	}
	return key, nil
}

// LoadVocabulary loads normalization rules from a YAML file
func LoadVocabulary(path string) (normalize.Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return normalize.Vocabulary{}, err
	}

	var v normalize.Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return normalize.Vocabulary{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(v.Ontologies) == 0 {
		v.Ontologies = normalize.DefaultVocabulary().Ontologies
	}
	return v, nil
}
