package bioportal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cognicore/biomap/pkg/biomap"
	"github.com/cognicore/biomap/pkg/biomap/internalerr"
)

const (
	// DefaultURL is the BioPortal recommender endpoint.
	DefaultURL = "https://data.bioontology.org/recommender"
	// DefaultDelay keeps request rates under the BioPortal limit.
	DefaultDelay = 500 * time.Millisecond

	service = "bioportal"

	// inputTypeKeywords asks the recommender to treat input as a comma-separated term list.
	inputTypeKeywords = "2"
)

// Client calls the BioPortal recommender. The zero Delay disables throttling.
type Client struct {
	URL    string
	APIKey string
	Delay  time.Duration

	HTTPClient *http.Client
	Logger     *log.Logger
}

// New returns a client with the default endpoint and delay.
func New(apiKey string) *Client {
	return &Client{
		URL:    DefaultURL,
		APIKey: apiKey,
		Delay:  DefaultDelay,
	}
}

type recommendRequest struct {
	Input      string `json:"input"`
	InputType  string `json:"input_type"`
	Ontologies string `json:"ontologies"`
}

type recommendation struct {
	CoverageResult struct {
		Annotations []annotation `json:"annotations"`
	} `json:"coverageResult"`
}

type annotation struct {
	Text           string `json:"text"`
	AnnotatedClass struct {
		ID        string `json:"@id"`
		PrefLabel string `json:"prefLabel"`
	} `json:"annotatedClass"`
}

// Recommend looks up the best concept for each term in one request. The
// result is keyed by the lowercased matched text; terms without a match are
// absent. An empty term list returns an empty map without calling the service.
func (c *Client) Recommend(ctx context.Context, terms []string, ontology string) (map[string]biomap.Concept, error) {
	out := make(map[string]biomap.Concept)
	if len(terms) == 0 {
		return out, nil
	}
	if c.APIKey == "" {
		return nil, internalerr.ErrMissingAPIKey
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	recs, err := c.send(ctx, recommendRequest{
		Input:      strings.Join(terms, ","),
		InputType:  inputTypeKeywords,
		Ontologies: ontology,
	})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return out, nil
	}

	for _, a := range recs[0].CoverageResult.Annotations {
		text := strings.ToLower(a.Text)
		if text == "" || a.AnnotatedClass.ID == "" {
			continue
		}
		if _, dup := out[text]; dup {
			continue
		}
		name := a.AnnotatedClass.PrefLabel
		if name == "" {
			name = text
		}
		out[text] = biomap.Concept{URI: a.AnnotatedClass.ID, Name: name}
	}
	return out, nil
}

func (c *Client) send(ctx context.Context, body recommendRequest) ([]recommendation, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	url := c.url()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "apikey token="+c.APIKey)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, internalerr.Unreachable(service, url, err)
	}
	defer resp.Body.Close()

	if err := internalerr.CheckResponse(service, resp); err != nil {
		c.logger().Printf("ERROR: %v", err)
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, internalerr.Unreachable(service, url, err)
	}
	var recs []recommendation
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, internalerr.Malformed(service, "decode recommendations", err)
	}
	return recs, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) url() string {
	if c.URL != "" {
		return c.URL
	}
	return DefaultURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (c *Client) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}
