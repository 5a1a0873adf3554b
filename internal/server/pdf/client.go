// Package pdf talks to the HTML-to-PDF rendering service.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/netx"
)

// ErrEmptyDocument is returned when the service answers without a body.
var ErrEmptyDocument = errors.New("pdf service returned an empty document")

// Stylesheet is sent along with every contract.
const Stylesheet = `body { font-family: "David Libre", "Times New Roman", serif; font-size: 12pt; line-height: 1.5; margin: 2cm; }
p { margin: 0 0 0.8em 0; }
strong { font-weight: 700; }
img { max-height: 3cm; max-width: 7cm; vertical-align: middle; }
h1 { font-size: 16pt; text-align: center; }`

// Client renders HTML documents to PDF. It performs a single attempt per
// call; retries are up to the caller.
type Client struct {
	URL  string
	HTTP *http.Client
}

// New returns a client for the service at url.
func New(url string, timeout time.Duration) *Client {
	return &Client{
		URL:  strings.TrimSpace(url),
		HTTP: &http.Client{Timeout: timeout},
	}
}

type renderRequest struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
}

// Render sends the HTML and CSS to the service and returns the PDF bytes.
func (c *Client) Render(ctx context.Context, htmlDoc, css string) ([]byte, error) {
	out, err := netx.PostJSON(ctx, c.HTTP, c.URL, nil, renderRequest{HTML: htmlDoc, CSS: css})
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrEmptyDocument
	}
	return out, nil
}

// Document wraps an HTML fragment into a complete page with the title set.
func Document(title, body string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title></head><body>\n")
	b.WriteString(body)
	b.WriteString("</body></html>\n")
	return b.String()
}
