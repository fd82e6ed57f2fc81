package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type payload struct {
	Message string `json:"message"`
}

// Webhook posts short notification texts to user-provided URLs.
// Delivery is best-effort: the caller logs failures and moves on.
type Webhook struct {
	http *http.Client
}

func NewWebhook() *Webhook {
	return &Webhook{http: &http.Client{Timeout: 10 * time.Second}}
}

// Post sends {"message": "..."} as JSON to the given URL.
func (w *Webhook) Post(ctx context.Context, url, message string) error {
	body, err := json.Marshal(payload{Message: message})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
