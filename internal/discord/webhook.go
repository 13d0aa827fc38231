package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// WebHook posts run summaries and errors to a Discord channel. A disabled
// webhook silently drops every message.
type WebHook struct {
	URL     string
	Enabled bool
}

type webhookMessage struct {
	Content string `json:"content"`
}

func (w *WebHook) SendText(text string) error {
	if !w.Enabled || w.URL == "" {
		return nil
	}

	b, err := json.Marshal(webhookMessage{Content: text})
	if err != nil {
		return err
	}

	resp, err := http.Post(w.URL, "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("failed to post Discord webhook: %s", resp.Status)
	}

	return nil
}

func (w *WebHook) SendError(text string) error {
	return w.SendText("ERROR: " + text)
}
