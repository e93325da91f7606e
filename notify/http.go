package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"text/template"
	"time"
)

const (
	DefaultTelegramURL = "https://api.telegram.org"
	defaultTimeout     = 10 * time.Second
)

var defaultClient = &http.Client{Timeout: defaultTimeout}

func postJSON(ctx context.Context, client *http.Client, endpoint string, body any) ([]byte, error) {
	if client == nil {
		client = defaultClient
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		// The URL may embed credentials, so report only the underlying cause
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return respBody, fmt.Errorf("%w: %s", ErrDeliveryFailed, resp.Status)
	}
	return respBody, nil
}

// Webhook POSTs the notification as JSON, with the rendered message in a "message" field.
type Webhook struct {
	URL      string
	Client   *http.Client
	Template *template.Template
}

type webhookPayload struct {
	Notification
	Message string `json:"message"`
}

func (w *Webhook) Notify(ctx context.Context, n Notification) error {
	message, err := Render(w.Template, n)
	if err != nil {
		return err
	}
	_, err = postJSON(ctx, w.Client, w.URL, webhookPayload{Notification: n, Message: message})
	return err
}

// Telegram sends the rendered message to a chat through the Bot API.
type Telegram struct {
	Token  string
	ChatID string
	// API root; DefaultTelegramURL if empty.
	BaseURL  string
	Client   *http.Client
	Template *template.Template
}

type telegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) Notify(ctx context.Context, n Notification) error {
	text, err := Render(t.Template, n)
	if err != nil {
		return err
	}
	base := t.BaseURL
	if base == "" {
		base = DefaultTelegramURL
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", base, t.Token)
	body, err := postJSON(ctx, t.Client, endpoint, telegramMessage{ChatID: t.ChatID, Text: text})
	var resp telegramResponse
	if body != nil && json.Unmarshal(body, &resp) == nil && !resp.OK && resp.Description != "" {
		return fmt.Errorf("%w: telegram: %s", ErrDeliveryFailed, resp.Description)
	}
	return err
}
