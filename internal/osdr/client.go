package osdr

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cognicore/biomap/pkg/biomap/internalerr"
)

// DefaultBaseURL is the OSDR biodata API root.
const DefaultBaseURL = "https://visualization.osdr.nasa.gov/biodata/api/v2/"

const (
	service      = "osdr"
	factorKey    = "study factor name"
	factorPrefix = "study.factor value."
)

// Client reads dataset metadata from the NASA Open Science Data Repository.
type Client struct {
	BaseURL string

	HTTPClient *http.Client
	Logger     *log.Logger
}

// New returns a client for the public OSDR API.
func New() *Client {
	return &Client{BaseURL: DefaultBaseURL}
}

type dataset struct {
	Metadata map[string]json.RawMessage `json:"metadata"`
}

// DatasetURL is the dataset description endpoint for accession.
func (c *Client) DatasetURL(accession string) string {
	return c.base() + "dataset/" + url.PathEscape(accession)
}

// SamplesURL is the metadata query returning one CSV row per sample with a
// column per factor value.
func (c *Client) SamplesURL(accession string, factors []string) string {
	params := make([]string, len(factors))
	for i, f := range factors {
		params[i] = url.QueryEscape(factorPrefix + f)
	}
	return c.base() + "query/metadata/?id.accession=" + url.QueryEscape(accession) + "&" + strings.Join(params, "&")
}

// Factors returns the study factor names of a dataset. A single factor
// reported as a scalar is returned as a one-element list.
func (c *Client) Factors(ctx context.Context, accession string) ([]string, error) {
	u := c.DatasetURL(accession)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	c.logger().Printf("Requested metadata from: %s", u)

	var payload map[string]dataset
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, internalerr.Malformed(service, "decode dataset", err)
	}
	ds, ok := payload[accession]
	if !ok {
		return nil, &internalerr.RemoteServiceError{
			Service: service,
			URL:     u,
			Message: fmt.Sprintf("accession %s not in response", accession),
			Err:     internalerr.ErrNotFound,
		}
	}
	raw, ok := ds.Metadata[factorKey]
	if !ok {
		return nil, internalerr.Malformed(service, fmt.Sprintf("dataset %s has no %q", accession, factorKey), nil)
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, internalerr.Malformed(service, fmt.Sprintf("%q is neither a string nor a list", factorKey), err)
	}
	return []string{single}, nil
}

// Samples returns the sample table as parsed CSV records, header first.
// Data rows are [row-index, sample-id, sample-name, factor values...].
func (c *Client) Samples(ctx context.Context, accession string, factors []string) ([][]string, error) {
	u := c.SamplesURL(accession, factors)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	c.logger().Printf("Requested sample table from: %s", u)

	r := csv.NewReader(strings.NewReader(strings.TrimSpace(string(body))))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, internalerr.Malformed(service, "parse sample table", err)
	}
	if len(records) == 0 {
		return nil, internalerr.Malformed(service, "empty sample table", nil)
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, internalerr.Unreachable(service, u, err)
	}
	defer resp.Body.Close()

	if err := internalerr.CheckResponse(service, resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, internalerr.Unreachable(service, u, err)
	}
	return body, nil
}

func (c *Client) base() string {
	b := c.BaseURL
	if b == "" {
		b = DefaultBaseURL
	}
	if !strings.HasSuffix(b, "/") {
		b += "/"
	}
	return b
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}

func (c *Client) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}
