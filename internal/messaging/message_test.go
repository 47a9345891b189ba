package messaging

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTwilioForm(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.FixedZone("IST", 19800))

	tests := []struct {
		name    string
		form    url.Values
		wantErr bool
		check   func(t *testing.T, m *InboundMessage)
	}{
		{
			name: "text only",
			form: url.Values{"From": {"whatsapp:+919876543210"}, "Body": {"Name: Asha Rao"}, "NumMedia": {"0"}},
			check: func(t *testing.T, m *InboundMessage) {
				assert.Equal(t, "whatsapp:+919876543210", m.From)
				assert.Equal(t, "Name: Asha Rao", m.Body)
				assert.False(t, m.HasAttachment())
				assert.Equal(t, now.UTC(), m.Timestamp)
			},
		},
		{
			name: "first media item only",
			form: url.Values{
				"From":              {"whatsapp:+919876543210"},
				"NumMedia":          {"2"},
				"MediaUrl0":         {"https://api.twilio.com/media/ME1"},
				"MediaContentType0": {"application/pdf"},
				"MediaUrl1":         {"https://api.twilio.com/media/ME2"},
			},
			check: func(t *testing.T, m *InboundMessage) {
				require.True(t, m.HasAttachment())
				assert.Equal(t, 2, m.NumMedia)
				assert.Equal(t, "https://api.twilio.com/media/ME1", m.Attachment.URL)
				assert.Equal(t, "application/pdf", m.Attachment.ContentType)
			},
		},
		{
			name: "missing NumMedia means no media",
			form: url.Values{"From": {"whatsapp:+1"}, "MediaUrl0": {"https://x.test/a"}},
			check: func(t *testing.T, m *InboundMessage) {
				assert.False(t, m.HasAttachment())
			},
		},
		{name: "missing sender", form: url.Values{"Body": {"hi"}}, wantErr: true},
		{name: "bad NumMedia", form: url.Values{"From": {"whatsapp:+1"}, "NumMedia": {"many"}}, wantErr: true},
		{name: "media without URL", form: url.Values{"From": {"whatsapp:+1"}, "NumMedia": {"1"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseTwilioForm(tt.form, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMessage)
				return
			}
			require.NoError(t, err)
			tt.check(t, m)
		})
	}
}

func TestDisplayNumber(t *testing.T) {
	assert.Equal(t, "+919876543210", DisplayNumber("whatsapp:+919876543210"))
	assert.Equal(t, "+919876543210", DisplayNumber("+919876543210"))
}
