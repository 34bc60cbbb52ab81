package config

import (
	"fmt"
	"net/http"

	"github.com/cognicore/biomap/internal/bioportal"
	"github.com/cognicore/biomap/internal/osdr"
	"github.com/cognicore/biomap/pkg/biomap/mapper"
	"github.com/cognicore/biomap/pkg/biomap/normalize"
)

// Loader loads the config file and constructs the pipeline components
type Loader struct {
	ConfigPath     string // empty means Default()
	VocabularyPath string // overrides Config.Vocabulary
}

// Components holds the configured pipeline parts
type Components struct {
	Config     Config
	Normalizer *normalize.Normalizer
	OSDR       *osdr.Client
}

// Load reads the configuration files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	cfg := Default()
	if l.ConfigPath != "" {
		var err error
		cfg, err = Load(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	vocabPath := cfg.Vocabulary
	if l.VocabularyPath != "" {
		vocabPath = l.VocabularyPath
	}
	vocab := normalize.DefaultVocabulary()
	if vocabPath != "" {
		var err error
		vocab, err = LoadVocabulary(vocabPath)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
	}

	osdrClient := osdr.New()
	osdrClient.BaseURL = cfg.OSDR.BaseURL
	osdrClient.HTTPClient = &http.Client{Timeout: cfg.OSDR.Timeout}

	return &Components{
		Config:     cfg,
		Normalizer: normalize.New(vocab),
		OSDR:       osdrClient,
	}, nil
}

// Recommender builds a BioPortal client. It fails before any request when
// the API key is not set.
func (c *Components) Recommender() (*bioportal.Client, error) {
	key, err := c.Config.APIKey()
	if err != nil {
		return nil, err
	}
	client := bioportal.New(key)
	client.URL = c.Config.BioPortal.URL
	client.Delay = c.Config.BioPortal.Delay
	client.HTTPClient = &http.Client{Timeout: c.Config.BioPortal.Timeout}
	return client, nil
}

// Mapper builds a mapper wired to the configured normalizer and recommender.
func (c *Components) Mapper() (*mapper.Mapper, error) {
	rec, err := c.Recommender()
	if err != nil {
		return nil, err
	}
	m := mapper.New(rec)
	m.Normalizer = c.Normalizer
	m.BatchSize = c.Config.BioPortal.BatchSize
	return m, nil
}
