package bioportal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cognicore/biomap/pkg/biomap/internalerr"
)

type roundTrip func(*http.Request) *http.Response

func (rt roundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt(req), nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func testClient(rt roundTrip) *Client {
	return &Client{
		URL:        "https://api.test/recommender",
		APIKey:     "secret",
		HTTPClient: &http.Client{Transport: rt},
		Logger:     log.New(io.Discard, "", 0),
	}
}

const livers = `[
  {
    "evaluationScore": 0.9,
    "coverageResult": {
      "score": 40,
      "annotations": [
        {"from": 1, "to": 5, "matchType": "PREF", "text": "LIVER",
         "annotatedClass": {"@id": "http://purl.obolibrary.org/obo/UBERON_0002107", "@type": "http://www.w3.org/2002/07/owl#Class"}},
        {"from": 7, "to": 11, "matchType": "PREF", "text": "BRAIN",
         "annotatedClass": {"@id": "http://purl.obolibrary.org/obo/UBERON_0000955", "prefLabel": "brain"}},
        {"from": 7, "to": 11, "matchType": "SYN", "text": "BRAIN",
         "annotatedClass": {"@id": "http://purl.obolibrary.org/obo/UBERON_9999999"}}
      ]
    }
  },
  {
    "coverageResult": {
      "annotations": [
        {"text": "ZYGOTE", "annotatedClass": {"@id": "http://purl.obolibrary.org/obo/CL_0010017"}}
      ]
    }
  }
]`

func TestRecommendSuccess(t *testing.T) {
	client := testClient(func(req *http.Request) *http.Response {
		if req.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", req.Method)
		}
		if got := req.Header.Get("Authorization"); got != "apikey token=secret" {
			t.Errorf("Authorization = %q", got)
		}
		if got := req.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["input"] != "liver,brain,zygote" || body["input_type"] != "2" || body["ontologies"] != "UBERON" {
			t.Errorf("unexpected request body %v", body)
		}
		return jsonResponse(200, livers)
	})

	got, err := client.Recommend(context.Background(), []string{"liver", "brain", "zygote"}, "UBERON")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 mappings from the first recommendation, got %v", got)
	}
	if c := got["liver"]; c.URI != "http://purl.obolibrary.org/obo/UBERON_0002107" || c.Name != "liver" {
		t.Errorf("liver = %+v", c)
	}
	if c := got["brain"]; c.URI != "http://purl.obolibrary.org/obo/UBERON_0000955" || c.Name != "brain" {
		t.Errorf("brain should keep the first annotation, got %+v", c)
	}
	if _, ok := got["zygote"]; ok {
		t.Error("zygote comes from the second recommendation and must be ignored")
	}
}

func TestRecommendEmptyResponse(t *testing.T) {
	client := testClient(func(req *http.Request) *http.Response {
		return jsonResponse(200, `[]`)
	})
	got, err := client.Recommend(context.Background(), []string{"nothing"}, "UBERON")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no mappings, got %v", got)
	}
}

func TestRecommendNoTermsSkipsRequest(t *testing.T) {
	client := testClient(func(req *http.Request) *http.Response {
		t.Fatal("no request expected")
		return nil
	})
	got, err := client.Recommend(context.Background(), nil, "UBERON")
	if err != nil || len(got) != 0 {
		t.Fatalf("Recommend(nil) = %v, %v", got, err)
	}
}

func TestRecommendHTTPError(t *testing.T) {
	client := testClient(func(req *http.Request) *http.Response {
		return jsonResponse(401, `{"errors":["You must provide a valid API Key."],"status":401}`)
	})
	_, err := client.Recommend(context.Background(), []string{"liver"}, "UBERON")
	var rse *internalerr.RemoteServiceError
	if !errors.As(err, &rse) {
		t.Fatalf("expected RemoteServiceError, got %v", err)
	}
	if rse.StatusCode != 401 || !strings.Contains(rse.Message, "valid API Key") {
		t.Errorf("unexpected error %+v", rse)
	}
}

func TestRecommendMalformed(t *testing.T) {
	client := testClient(func(req *http.Request) *http.Response {
		return jsonResponse(200, `{"not":"a list"}`)
	})
	_, err := client.Recommend(context.Background(), []string{"liver"}, "UBERON")
	var mre *internalerr.MalformedResponseError
	if !errors.As(err, &mre) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
}

func TestRecommendMissingKey(t *testing.T) {
	client := testClient(func(req *http.Request) *http.Response {
		t.Fatal("no request expected without a key")
		return nil
	})
	client.APIKey = ""
	if _, err := client.Recommend(context.Background(), []string{"liver"}, "UBERON"); !errors.Is(err, internalerr.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestRecommendDelay(t *testing.T) {
	client := testClient(func(req *http.Request) *http.Response {
		return jsonResponse(200, `[]`)
	})
	client.Delay = 20 * time.Millisecond

	start := time.Now()
	if _, err := client.Recommend(context.Background(), []string{"liver"}, "UBERON"); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if elapsed := time.Since(start); elapsed < client.Delay {
		t.Errorf("request sent after %v, want at least %v", elapsed, client.Delay)
	}
}

func TestRecommendDelayCancelled(t *testing.T) {
	client := testClient(func(req *http.Request) *http.Response {
		t.Fatal("no request expected after cancellation")
		return nil
	})
	client.Delay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Recommend(ctx, []string{"liver"}, "UBERON"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewDefaults(t *testing.T) {
	c := New("k")
	if c.URL != DefaultURL || c.Delay != DefaultDelay || c.APIKey != "k" {
		t.Errorf("unexpected defaults %+v", c)
	}
}
