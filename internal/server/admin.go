package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/cv-intake/internal/server/middleware"
	"github.com/jonathan/cv-intake/internal/store"
)

// maxListLimit caps GET /api/v1/candidates.
const maxListLimit = 500

// TokenRequest is the admin login body.
type TokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries an issued admin token.
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CandidateList is the body of GET /api/v1/candidates.
type CandidateList struct {
	Count      int                     `json:"count"`
	Candidates []store.StoredCandidate `json:"candidates"`
}

var requestValidator = validator.New()

// handleToken exchanges admin credentials for a bearer token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := requestValidator.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	if !s.admin.Verify(req.Username, req.Password) {
		log.Printf("[server] failed admin login for %q", req.Username)
		err := &ErrInvalidCredentials{}
		errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	token, err := s.jwtService.GenerateToken(req.Username)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	jsonResponse(w, http.StatusOK, TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: time.Now().Add(s.jwtService.TTL()).UTC(),
	})
}

// handleListCandidates lists stored candidates, newest first, or looks one up
// by ?email=.
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	subject, _ := middleware.Subject(r)
	q := r.URL.Query()

	if email := q.Get("email"); email != "" {
		c, err := s.opts.Candidates.SearchByEmail(r.Context(), email)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Printf("[server] %s: search failed: %v", subject, err)
			}
			errorResponse(w, HTTPStatus(err), "candidate not found")
			return
		}
		jsonResponse(w, http.StatusOK, CandidateList{Count: 1, Candidates: []store.StoredCandidate{*c}})
		return
	}

	limit := 50
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			err := &ErrValidation{Field: "limit", Message: "must be between 1 and 500"}
			errorResponse(w, HTTPStatus(err), err.Error())
			return
		}
		limit = n
	}

	list, err := s.opts.Candidates.List(r.Context(), limit)
	if err != nil {
		log.Printf("[server] %s: list failed: %v", subject, err)
		errorResponse(w, http.StatusInternalServerError, "failed to read candidates")
		return
	}
	if list == nil {
		list = []store.StoredCandidate{}
	}
	jsonResponse(w, http.StatusOK, CandidateList{Count: len(list), Candidates: list})
}

// handleStats returns row counts.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.opts.Candidates.Stats(r.Context())
	if err != nil {
		log.Printf("[server] stats failed: %v", err)
		errorResponse(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	jsonResponse(w, http.StatusOK, st)
}

// extractValidationErrors returns the first validation error as text.
func extractValidationErrors(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return (&ErrValidation{Field: verrs[0].Field(), Message: verrs[0].Tag()}).Error()
	}
	return "validation error: invalid request"
}
