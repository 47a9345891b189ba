package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTwilioBaseURL is the Twilio REST API root.
const DefaultTwilioBaseURL = "https://api.twilio.com"

// TwilioClient sends WhatsApp messages through the Twilio Messages API.
type TwilioClient struct {
	AccountSID string
	AuthToken  string
	// From is the Twilio WhatsApp number, e.g. "whatsapp:+14155238886".
	From string

	BaseURL    string
	HTTPClient *http.Client
}

// NewTwilioClient returns a client with a 30 second timeout.
func NewTwilioClient(accountSID, authToken, from string) *TwilioClient {
	return &TwilioClient{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		BaseURL:    DefaultTwilioBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send posts body to the recipient.
func (c *TwilioClient) Send(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.From)
	form.Set("Body", body)

	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultTwilioBaseURL
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", base, url.PathEscape(c.AccountSID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &SendError{To: to, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.AccountSID, c.AuthToken)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return &SendError{To: to, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &SendError{To: to, StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr twilioError
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return &SendError{To: to, StatusCode: resp.StatusCode, Code: apiErr.Code, Message: apiErr.Message}
	}

	var msg twilioMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return &SendError{To: to, StatusCode: resp.StatusCode, Message: "failed to decode response", Cause: err}
	}
	log.Printf("[messaging] message sent to %s (sid %s, status %s)", DisplayNumber(to), msg.SID, msg.Status)
	return nil
}

// MediaCredentials returns the basic auth pair Twilio media URLs require.
func (c *TwilioClient) MediaCredentials() (username, password string) {
	return c.AccountSID, c.AuthToken
}
