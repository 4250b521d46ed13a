package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PhantomStrikers/sanguoxianhua/internals/summary"
)

type Notifier interface {
	Notify(ctx context.Context, title, content string) error
}

// Console prints notifications.
type Console struct {
	Out io.Writer
}

func (c Console) Notify(ctx context.Context, title, content string) error {
	return summary.Print(c.Out, title, content)
}

// Webhook posts {"title", "content"} as JSON to URL. When delivery fails the
// notification goes to Fallback instead and the delivery error is only
// logged.
type Webhook struct {
	URL      string
	Client   *http.Client
	Fallback Notifier
	Logger   *slog.Logger
}

type payload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (w *Webhook) Notify(ctx context.Context, title, content string) error {
	err := w.post(ctx, title, content)
	if err == nil {
		return nil
	}
	if w.Logger != nil {
		w.Logger.Warn("webhook delivery failed, printing instead", slog.String("error", err.Error()))
	}
	if w.Fallback == nil {
		return err
	}
	return w.Fallback.Notify(ctx, title, content)
}

func (w *Webhook) post(ctx context.Context, title, content string) error {
	data, err := json.Marshal(payload{Title: title, Content: content})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

// New returns a webhook notifier falling back to out when webhookURL is
// set, and a console notifier on out otherwise.
func New(webhookURL string, out io.Writer, logger *slog.Logger) Notifier {
	console := Console{Out: out}
	if webhookURL == "" {
		return console
	}
	return &Webhook{URL: webhookURL, Fallback: console, Logger: logger}
}
