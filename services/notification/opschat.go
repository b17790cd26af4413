package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"trailbound/config"
)

// OpsChatClient posts operational alerts to an incoming-webhook chat channel.
type OpsChatClient struct {
	WebhookURL string
	HTTPClient *http.Client
}

// NewOpsChatClient builds a client from the loaded configuration, or nil when
// no webhook URL is configured.
func NewOpsChatClient() *OpsChatClient {
	if config.AppConfig.OpsChatWebhookURL == "" {
		return nil
	}
	return &OpsChatClient{
		WebhookURL: config.AppConfig.OpsChatWebhookURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Post sends the message text to the channel.
func (c *OpsChatClient) Post(ctx context.Context, text string) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebhookURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("ops chat webhook returned %d", resp.StatusCode)
	}
	return nil
}
