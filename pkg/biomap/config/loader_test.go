package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/biomap/pkg/biomap/internalerr"
)

func TestLoaderAllEmpty(t *testing.T) {
	loader := Loader{}

	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Empty loader should succeed: %v", err)
	}

	if comp.Normalizer == nil {
		t.Error("Should have normalizer (default vocabulary)")
	}
	if comp.OSDR == nil {
		t.Fatal("Should have OSDR client")
	}
	if comp.OSDR.BaseURL != Default().OSDR.BaseURL {
		t.Errorf("OSDR BaseURL = %q", comp.OSDR.BaseURL)
	}

	// Default vocabulary strips qualifiers for UBERON.
	if got := comp.Normalizer.Lower("Female Liver", "UBERON"); got != "liver" {
		t.Errorf("Lower = %q, want liver", got)
	}
}

func TestLoaderNonExistentConfig(t *testing.T) {
	loader := Loader{ConfigPath: "/nonexistent/biomap.yaml"}
	if _, err := loader.Load(); err == nil {
		t.Error("Should error on nonexistent config")
	}
}

func TestLoaderNonExistentVocabulary(t *testing.T) {
	loader := Loader{VocabularyPath: "/nonexistent/vocab.yaml"}
	if _, err := loader.Load(); err == nil {
		t.Error("Should error on nonexistent vocabulary")
	}
}

func TestLoaderValidFiles(t *testing.T) {
	tmpDir := t.TempDir()

	vocabPath := filepath.Join(tmpDir, "vocab.yaml")
	vocab := `ontologies: [UBERON, CL]
qualifiers:
  - from: rat
positions: []
`
	if err := os.WriteFile(vocabPath, []byte(vocab), 0644); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(tmpDir, "biomap.yaml")
	cfg := `bioportal:
  url: http://localhost:9999/recommender
  batch_size: 10
  delay: 0s
  timeout: 5s
  api_key_env: TEST_BIOPORTAL_KEY
osdr:
  base_url: http://localhost:9998/api
  timeout: 2s
vocabulary: ` + vocabPath + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	comp, err := (&Loader{ConfigPath: cfgPath}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := comp.Normalizer.Lower("Rat Heart", "cl"); got != "heart" {
		t.Errorf("vocabulary not applied: %q", got)
	}
	if got := comp.Normalizer.Lower("Female Heart", "UBERON"); got != "female heart" {
		t.Errorf("default qualifiers should be replaced by the file, got %q", got)
	}
	if comp.OSDR.BaseURL != "http://localhost:9998/api" {
		t.Errorf("OSDR BaseURL = %q", comp.OSDR.BaseURL)
	}
	if comp.OSDR.HTTPClient == nil || comp.OSDR.HTTPClient.Timeout != 2*time.Second {
		t.Errorf("OSDR timeout not applied")
	}

	t.Setenv("TEST_BIOPORTAL_KEY", "k")
	m, err := comp.Mapper()
	if err != nil {
		t.Fatalf("Mapper: %v", err)
	}
	if m.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10", m.BatchSize)
	}
	if m.Normalizer != comp.Normalizer {
		t.Error("mapper should share the configured normalizer")
	}

	rec, err := comp.Recommender()
	if err != nil {
		t.Fatal(err)
	}
	if rec.URL != "http://localhost:9999/recommender" || rec.Delay != 0 || rec.APIKey != "k" {
		t.Errorf("recommender = %+v", rec)
	}
	if rec.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("recommender timeout = %v", rec.HTTPClient.Timeout)
	}
}

func TestLoaderVocabularyFlagOverridesConfig(t *testing.T) {
	tmpDir := t.TempDir()
	vocabPath := filepath.Join(tmpDir, "vocab.yaml")
	if err := os.WriteFile(vocabPath, []byte("qualifiers:\n  - from: porcine\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(tmpDir, "biomap.yaml")
	if err := os.WriteFile(cfgPath, []byte("vocabulary: /nonexistent/vocab.yaml\n"), 0644); err != nil {
		t.Fatal(err)
	}

	comp, err := (&Loader{ConfigPath: cfgPath, VocabularyPath: vocabPath}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := comp.Normalizer.Lower("Porcine Skin", "UBERON"); got != "skin" {
		t.Errorf("Lower = %q, want skin", got)
	}
}

func TestMapperRequiresAPIKey(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnv, "")

	comp, err := (&Loader{}).Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := comp.Mapper(); !errors.Is(err, internalerr.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}
