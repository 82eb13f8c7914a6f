// Package email sends transactional mail through the Postmark HTTP API.
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/foodisave/backend/internal/infrastructure/config"
	"github.com/foodisave/backend/internal/ports/outbound"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	subjectPasswordReset = "Återställ ditt lösenord"
	subjectActivation    = "Välkommen till Foodisave – Aktivera ditt konto"
)

type page struct {
	Title  string
	Link   string
	Button string
}

// Client implements outbound.EmailService
type Client struct {
	serverToken   string
	fromEmail     string
	apiURL        string
	messageStream string
	frontendURL   string
	httpClient    *http.Client
	templates     map[string]*template.Template
	logger        *zap.Logger
	observe       func(template string, err error)
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithObserver is told about every send, for metrics.
func WithObserver(fn func(template string, err error)) Option {
	return func(cl *Client) {
		cl.observe = fn
	}
}

// NewClient parses the embedded templates and builds the client.
func NewClient(cfg config.EmailConfig, logger *zap.Logger, opts ...Option) (*Client, error) {
	templates := make(map[string]*template.Template, 2)
	for _, name := range []string{"password_reset", "activation"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		templates[name] = t
	}

	c := &Client{
		serverToken:   cfg.PostmarkToken,
		fromEmail:     cfg.FromAddress,
		apiURL:        cfg.APIURL,
		messageStream: cfg.MessageStream,
		frontendURL:   strings.TrimRight(cfg.FrontendBaseURL, "/"),
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		templates:     templates,
		logger:        logger.Named("email"),
		observe:       func(string, error) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ outbound.EmailService = (*Client)(nil)

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	HtmlBody      string `json:"HtmlBody"`
	MessageStream string `json:"MessageStream"`
}

// SendPasswordReset mails the reset link for token.
func (c *Client) SendPasswordReset(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", c.frontendURL, url.QueryEscape(token))
	err := c.send(ctx, "password_reset", to, subjectPasswordReset, page{
		Title:  "Återställ ditt lösenord",
		Link:   link,
		Button: "Återställ lösenord",
	})
	c.observe("password_reset", err)
	return err
}

// SendActivation mails the account activation link for token.
func (c *Client) SendActivation(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/activate-account?token=%s", c.frontendURL, url.QueryEscape(token))
	err := c.send(ctx, "activation", to, subjectActivation, page{
		Title:  "Aktivera ditt konto",
		Link:   link,
		Button: "Aktivera ditt konto",
	})
	c.observe("activation", err)
	return err
}

func (c *Client) send(ctx context.Context, name, to, subject string, data page) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	var html bytes.Buffer
	if err := c.templates[name].ExecuteTemplate(&html, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	body, err := json.Marshal(postmarkEmail{
		From:          c.fromEmail,
		To:            to,
		Subject:       subject,
		HtmlBody:      html.String(),
		MessageStream: c.messageStream,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("postmark API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	c.logger.Info("Email sent", zap.String("template", name))
	return nil
}
