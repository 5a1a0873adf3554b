// Package mail sends invitation emails to signers.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	"github.com/dmitrijs2005/leasekeeper/internal/netx"
)

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// HTTPSender posts messages to a transactional email API.
type HTTPSender struct {
	URL    string
	APIKey string
	From   string
	HTTP   *http.Client
}

// NewHTTPSender returns a sender for the provider at url.
func NewHTTPSender(url, apiKey, from string) *HTTPSender {
	return &HTTPSender{
		URL:    strings.TrimSpace(url),
		APIKey: apiKey,
		From:   from,
		HTTP:   &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers msg through the provider.
func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	h := http.Header{}
	if s.APIKey != "" {
		h.Set("Authorization", "Bearer "+s.APIKey)
	}
	_, err := netx.PostJSON(ctx, s.HTTP, s.URL, h, sendRequest{
		From:    s.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender only logs messages. It stands in when no provider is
// configured.
type LogSender struct {
	Logger logging.Logger
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	s.Logger.Info(ctx, "mail not sent, no provider configured", "to", msg.To, "subject", msg.Subject)
	return nil
}

var invitationTmpl = template.Must(template.New("invitation").Parse(`<p>Hello {{.Name}},</p>
<p>You are asked to sign a lease agreement as {{.Label}}.</p>
<p><a href="{{.Link}}">Review and sign the contract</a></p>
<p>The link is valid until {{.Expires}}.</p>`))

// Invitation builds the email asking a signer to sign.
func Invitation(to, name, label, link string, expiresAt time.Time) (Message, error) {
	var buf bytes.Buffer
	err := invitationTmpl.Execute(&buf, struct {
		Name, Label, Link, Expires string
	}{name, label, link, expiresAt.UTC().Format("02/01/2006 15:04 MST")})
	if err != nil {
		return Message{}, fmt.Errorf("render invitation: %w", err)
	}
	return Message{
		To:      to,
		Subject: "Lease agreement waiting for your signature",
		HTML:    buf.String(),
	}, nil
}
