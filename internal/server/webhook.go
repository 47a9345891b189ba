package server

import (
	"context"
	"encoding/xml"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/cv-intake/internal/messaging"
	"github.com/jonathan/cv-intake/internal/server/ratelimit"
)

// maxWebhookBody bounds the form Twilio posts; media arrives by URL.
const maxWebhookBody = 1 << 20

// twimlResponse is an empty TwiML document. Replies go out through the REST
// API, so the webhook never answers inline.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
}

// handleWebhook accepts one Twilio WhatsApp message and processes it before
// answering.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	if err := r.ParseForm(); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid form body")
		return
	}

	if s.opts.Server.ValidateSignature {
		fullURL := webhookURL(r, s.opts.Server.PublicURL)
		sig := r.Header.Get(messaging.SignatureHeader)
		if !messaging.ValidateTwilioSignature(s.opts.Twilio.AuthToken, fullURL, r.PostForm, sig) {
			log.Printf("[server] rejected webhook with bad signature for %s", fullURL)
			err := &ErrSignature{}
			errorResponse(w, HTTPStatus(err), err.Error())
			return
		}
	}

	msg, err := messaging.ParseTwilioForm(r.PostForm, time.Now())
	if err != nil {
		errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	allowed, info := s.rateLimiter.Allow(msg.From, ratelimit.WebhookPath, r.Method)
	setRateLimitHeaders(w, info)
	if !allowed {
		s.replyThrottled(r.Context(), msg)
		writeTwiML(w)
		return
	}

	// Twilio may hang up before a slow extraction finishes; the reply still
	// has to go out, so processing outlives the request.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.opts.ProcessTimeout)
	defer cancel()

	outcome, err := s.opts.Handler.Handle(ctx, msg)
	if err != nil {
		log.Printf("[server] webhook from %s: %v", messaging.DisplayNumber(msg.From), err)
	} else if outcome != nil {
		log.Printf("[server] webhook %s handled: %s", outcome.SubmissionID, outcome.Stage)
	}

	writeTwiML(w)
}

// replyThrottled tells a rate-limited sender to slow down. The message itself
// is not extracted or stored.
func (s *Server) replyThrottled(ctx context.Context, msg *messaging.InboundMessage) {
	log.Printf("[server] rate limited webhook from %s", messaging.DisplayNumber(msg.From))
	if s.opts.Sender == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := s.opts.Sender.Send(ctx, msg.From, messaging.ReplyRateLimited); err != nil {
		log.Printf("[server] error sending throttle notice to %s: %v", messaging.DisplayNumber(msg.From), err)
	}
}

func writeTwiML(w http.ResponseWriter) {
	body, err := xml.Marshal(twimlResponse{})
	if err != nil {
		log.Printf("[server] error encoding TwiML: %v", err)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(body)
}

// webhookURL is the URL Twilio signed. Behind a proxy the request host is not
// the public one, so a configured public URL takes precedence.
func webhookURL(r *http.Request, publicURL string) string {
	if publicURL != "" {
		return strings.TrimRight(publicURL, "/") + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
