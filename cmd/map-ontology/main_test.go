package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cognicore/biomap/pkg/biomap/internalerr"
	"github.com/cognicore/biomap/pkg/biomap/store/sqlite"
)

// fakeBioPortal answers recommender requests from a fixed term table.
type fakeBioPortal struct {
	mu     sync.Mutex
	known  map[string]string // lowercased term -> URI
	inputs []string
}

func (f *fakeBioPortal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "apikey token=test-key" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req struct {
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.inputs = append(f.inputs, req.Input)
	f.mu.Unlock()

	type class struct {
		ID string `json:"@id"`
	}
	type annotation struct {
		Text           string `json:"text"`
		AnnotatedClass class  `json:"annotatedClass"`
	}
	var anns []annotation
	for _, term := range strings.Split(req.Input, ",") {
		if uri, ok := f.known[term]; ok {
			anns = append(anns, annotation{Text: strings.ToUpper(term), AnnotatedClass: class{ID: uri}})
		}
	}
	resp := []map[string]any{{"coverageResult": map[string]any{"annotations": anns}}}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func setup(t *testing.T, handler http.Handler) (options, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "biomap.yaml")
	cfg := "bioportal:\n  url: " + srv.URL + "\n  delay: 0s\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	in := filepath.Join(dir, "tissues.csv")
	table := "sample,tissue\ns1,Left lobe of the liver\ns2,Right Kidneys\ns3,zygote\n"
	if err := os.WriteFile(in, []byte(table), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BIOPORTAL_API_KEY", "test-key")
	return options{
		in:         in,
		column:     "tissue",
		ontology:   "UBERON",
		delim:      ",",
		configPath: cfgPath,
	}, dir
}

func TestRunMapsColumn(t *testing.T) {
	bp := &fakeBioPortal{known: map[string]string{
		"liver left lateral lobe": "http://purl.obolibrary.org/obo/UBERON_0001115",
		"kidney":                  "http://purl.obolibrary.org/obo/UBERON_0002113",
	}}
	opts, dir := setup(t, bp)
	opts.out = filepath.Join(dir, "mapped.csv")
	opts.dbPath = filepath.Join(dir, "runs.db")

	var status bytes.Buffer
	if err := run(context.Background(), opts, &bytes.Buffer{}, &status); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := os.ReadFile(opts.out)
	if err != nil {
		t.Fatal(err)
	}
	want := "sample,tissue,tissue_id,tissue_name,tissue_uri\n" +
		"s1,Left lobe of the liver,UBERON:0001115,liver left lateral lobe,http://purl.obolibrary.org/obo/UBERON_0001115\n" +
		"s2,Right Kidneys,UBERON:0002113,kidney,http://purl.obolibrary.org/obo/UBERON_0002113\n" +
		"s3,zygote,,,\n"
	if string(got) != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}
	if !strings.Contains(status.String(), "2/3") {
		t.Errorf("summary missing mapped count: %q", status.String())
	}

	ctx := context.Background()
	ledger, err := sqlite.OpenSQLite(ctx, opts.dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer ledger.Close()
	runs, err := ledger.Runs(ctx)
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs = %v, err = %v", runs, err)
	}
	ms, err := ledger.Mappings(ctx, runs[0].ID)
	if err != nil || len(ms) != 3 {
		t.Fatalf("mappings = %v, err = %v", ms, err)
	}
	if ms[1].Pass != "nopos_singular" || ms[2].Pass != "" {
		t.Errorf("recorded passes = %q, %q", ms[1].Pass, ms[2].Pass)
	}
}

func TestRunWritesStdout(t *testing.T) {
	opts, _ := setup(t, &fakeBioPortal{known: map[string]string{}})
	opts.output = "uberon"

	var stdout bytes.Buffer
	if err := run(context.Background(), opts, &stdout, &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "sample,tissue,uberon_id,uberon_name,uberon_uri\n") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunMissingAPIKey(t *testing.T) {
	bp := &fakeBioPortal{}
	opts, _ := setup(t, bp)
	t.Setenv("BIOPORTAL_API_KEY", "")

	err := run(context.Background(), opts, &bytes.Buffer{}, &bytes.Buffer{})
	if !errors.Is(err, internalerr.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if len(bp.inputs) != 0 {
		t.Errorf("no request should be sent without a key, got %d", len(bp.inputs))
	}
}

func TestRunServiceError(t *testing.T) {
	opts, _ := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))

	err := run(context.Background(), opts, &bytes.Buffer{}, &bytes.Buffer{})
	var rse *internalerr.RemoteServiceError
	if !errors.As(err, &rse) || rse.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected RemoteServiceError 429, got %v", err)
	}
}

func TestRunUnknownColumn(t *testing.T) {
	opts, _ := setup(t, &fakeBioPortal{})
	opts.column = "organ"

	err := run(context.Background(), opts, &bytes.Buffer{}, &bytes.Buffer{})
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestParseDelim(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{",", ',', false},
		{"\\t", '\t', false},
		{"tab", '\t', false},
		{";", ';', false},
		{"", 0, true},
		{"ab", 0, true},
	}

	for _, tt := range tests {
		got, err := parseDelim(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDelim(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDelim(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
