package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwilioClient_Send(t *testing.T) {
	var got url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token", pass)

		assert.NoError(t, r.ParseForm())
		got = r.PostForm
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer server.Close()

	c := NewTwilioClient("AC123", "token", "whatsapp:+14155238886")
	c.BaseURL = server.URL

	err := c.Send(context.Background(), "whatsapp:+919876543210", "hello")
	require.NoError(t, err)
	assert.Equal(t, "whatsapp:+919876543210", got.Get("To"))
	assert.Equal(t, "whatsapp:+14155238886", got.Get("From"))
	assert.Equal(t, "hello", got.Get("Body"))
}

func TestTwilioClient_SendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	}))
	defer server.Close()

	c := NewTwilioClient("AC123", "token", "whatsapp:+1")
	c.BaseURL = server.URL

	err := c.Send(context.Background(), "whatsapp:+0", "hello")
	require.Error(t, err)

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, http.StatusBadRequest, sendErr.StatusCode)
	assert.Equal(t, 21211, sendErr.Code)
	assert.Contains(t, err.Error(), "Invalid 'To' Phone Number")
}

func TestTwilioClient_MediaCredentials(t *testing.T) {
	c := NewTwilioClient("AC123", "token", "whatsapp:+1")
	user, pass := c.MediaCredentials()
	assert.Equal(t, "AC123", user)
	assert.Equal(t, "token", pass)
}

func TestValidateTwilioSignature(t *testing.T) {
	params := url.Values{
		"From":     {"whatsapp:+919876543210"},
		"Body":     {"Name: Asha Rao"},
		"NumMedia": {"0"},
	}
	const fullURL = "https://cv.example.com/webhook"
	sig := ComputeTwilioSignature("secret", fullURL, params)

	tests := []struct {
		name   string
		token  string
		url    string
		params url.Values
		sig    string
		want   bool
	}{
		{name: "valid", token: "secret", url: fullURL, params: params, sig: sig, want: true},
		{name: "wrong token", token: "other", url: fullURL, params: params, sig: sig},
		{name: "different url", token: "secret", url: fullURL + "?x=1", params: params, sig: sig},
		{name: "tampered body", token: "secret", url: fullURL, params: url.Values{"From": {"whatsapp:+1"}}, sig: sig},
		{name: "missing signature", token: "secret", url: fullURL, params: params},
		{name: "missing token", url: fullURL, params: params, sig: sig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateTwilioSignature(tt.token, tt.url, tt.params, tt.sig))
		})
	}
}
