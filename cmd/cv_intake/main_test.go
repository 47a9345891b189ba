package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-intake/internal/config"
	"github.com/jonathan/cv-intake/internal/server"
	"github.com/jonathan/cv-intake/internal/store"
	"github.com/jonathan/cv-intake/internal/types"
)

// execute runs the root command in process with a clean environment for the
// settings that would otherwise leak in from a developer's .env.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{
		"LLM_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY",
		"GOOGLE_SHEET_ID", "DATABASE_URL", "TWILIO_VALIDATE_SIGNATURE", "VERBOSE",
	} {
		t.Setenv(key, "")
	}
	if os.Getenv("STORE_BACKEND") == "" || os.Getenv("STORE_BACKEND") == config.BackendSheets ||
		os.Getenv("STORE_BACKEND") == config.BackendPostgres {
		t.Setenv("STORE_BACKEND", config.BackendMemory)
	}

	configPath, verbose = "", false
	extractNoLLM, extractShowText = false, false
	messageText, messageNoLLM = "", false
	statsList, statsEmail = 0, ""
	tokenSubject, hashPassword, hashCost = "", "", config.DefaultBcryptCost

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseMessage_JSON(t *testing.T) {
	out, err := execute(t, "", "parse-message", "--no-llm",
		"--text", "Name: Asha Rao\nEmail: asha.rao@example.com\nSkills: Python, SQL, Communication")
	require.NoError(t, err)

	var report extractReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "labelled", report.Strategy)
	assert.Equal(t, "Asha Rao", report.Record.Name)
	assert.Equal(t, "asha.rao@example.com", report.Record.Email)
	assert.Equal(t, "Python, SQL, Communication", report.Record.Skills)
	assert.True(t, report.Validation.Valid)
	assert.Equal(t, []string{"experience", "education", "location"}, report.Validation.MissingOptional)
}

func TestParseMessage_StdinVerbose(t *testing.T) {
	out, err := execute(t, "Name: Ravi Kumar\nPhone: +91 98765 43210\n", "parse-message", "--no-llm", "--verbose")
	require.NoError(t, err)

	assert.Contains(t, out, "EXTRACTED CANDIDATE")
	assert.Contains(t, out, "Ravi Kumar")
	assert.Contains(t, out, "+919876543210")
	assert.Contains(t, out, "Ready to store")
}

func TestParseMessage_Empty(t *testing.T) {
	_, err := execute(t, "   \n", "parse-message", "--no-llm")
	assert.ErrorContains(t, err, "empty")
}

func TestExtract_Errors(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(txt, []byte("Asha Rao"), 0o644))

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no file", args: []string{"extract"}, wantErr: "accepts 1 arg"},
		{name: "unsupported extension", args: []string{"extract", txt}, wantErr: "unsupported file extension"},
		{name: "missing file", args: []string{"extract", filepath.Join(dir, "gone.pdf")}, wantErr: "failed to read file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStats_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "candidates.db")
	ctx := context.Background()

	s, err := store.OpenSQLite(ctx, dbPath)
	require.NoError(t, err)
	reg := store.NewRegistry(s)
	for i, email := range []string{"asha.rao@example.com", "ravi@example.com", "ASHA.RAO@example.com"} {
		rec := types.NewCandidateRecord()
		rec.Name = "Candidate"
		rec.Email = email
		_, err := reg.Save(ctx, types.NewSubmissionEnvelope("whatsapp:+919876543210",
			time.Date(2025, 3, 4, 10, i, 0, 0, time.UTC), rec))
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	t.Setenv("STORE_BACKEND", config.BackendSQLite)
	t.Setenv("SQLITE_PATH", dbPath)

	out, err := execute(t, "", "stats", "--list", "1")
	require.NoError(t, err)

	var report statsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.NotNil(t, report.Stats)
	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.ByStatus["Updated"])
	require.Len(t, report.Candidates, 1)
	assert.Equal(t, "ASHA.RAO@example.com", report.Candidates[0].Record.Email)

	out, err = execute(t, "", "stats", "--email", "ravi@EXAMPLE.com", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "ravi@example.com")

	_, err = execute(t, "", "stats", "--email", "nobody@example.com")
	assert.ErrorContains(t, err, "no candidate")
}

func TestHashPasswordAndIssueToken(t *testing.T) {
	t.Setenv("PASSWORD_PEPPER", "pepper")
	out, err := execute(t, "s3cret\n", "hash-password", "--cost", "10")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)

	admin := config.AuthConfig{AdminUsername: "admin", AdminPasswordHash: hash, PasswordPepper: "pepper"}.Admin()
	assert.True(t, admin.Verify("admin", "s3cret"))

	t.Setenv("JWT_SECRET", "test-secret-key-0123456789")
	out, err = execute(t, "", "issue-token", "--subject", "ops")
	require.NoError(t, err)

	jwtConfig, err := config.AuthConfig{JWTSecret: "test-secret-key-0123456789"}.JWT()
	require.NoError(t, err)
	claims, err := server.NewJWTService(jwtConfig).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
}

func TestIssueToken_NoSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := execute(t, "", "issue-token")
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestServe_RequiresTwilio(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	_, err := execute(t, "", "serve")
	assert.ErrorContains(t, err, "TWILIO_ACCOUNT_SID")
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, closeStore, err := openStore(ctx, config.StoreConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &store.Memory{}, s)

	_, _, err = openStore(ctx, config.StoreConfig{Backend: "excel"})
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestSheetsCredentials(t *testing.T) {
	opts, err := sheetsCredentials(config.StoreConfig{})
	require.NoError(t, err)
	assert.Empty(t, opts)

	opts, err = sheetsCredentials(config.StoreConfig{CredentialsBase64: base64.StdEncoding.EncodeToString([]byte(`{"type":"service_account"}`))})
	require.NoError(t, err)
	assert.Len(t, opts, 1)

	_, err = sheetsCredentials(config.StoreConfig{CredentialsBase64: "%%%"})
	assert.ErrorContains(t, err, "base64")

	_, err = sheetsCredentials(config.StoreConfig{CredentialsPath: "/nonexistent/sa.json"})
	assert.Error(t, err)
}
