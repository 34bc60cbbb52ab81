package internalerr

import (
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// maxErrorBody caps how much of a failed response is kept as the message.
const maxErrorBody = 4096

// CheckResponse returns nil for 2xx responses. Otherwise it drains the body
// and returns a *RemoteServiceError carrying the status and a readable
// message. HTML error pages are reduced to their text content.
func CheckResponse(service string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))
	if isHTML(resp.Header.Get("Content-Type"), msg) {
		msg = StripHTML(msg)
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	url := ""
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.String()
	}

	return &RemoteServiceError{
		Service:    service,
		URL:        url,
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}

// Unreachable wraps a transport-level failure.
func Unreachable(service, url string, err error) error {
	return &RemoteServiceError{Service: service, URL: url, Err: err}
}

func isHTML(contentType, body string) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(body), "<!doctype html") || strings.HasPrefix(strings.ToLower(body), "<html")
}

// StripHTML returns the text content of an HTML fragment with whitespace
// runs collapsed. Unparseable input is returned unchanged.
func StripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.Join(strings.Fields(buf.String()), " ")
}
