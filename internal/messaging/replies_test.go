package messaging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/cv-intake/internal/types"
)

func TestConfirmation(t *testing.T) {
	rec := types.NewCandidateRecord()
	rec.Name = "Asha Rao"
	rec.Email = "asha.rao@example.com"
	rec.Skills = strings.Repeat("Go, ", 30)

	msg := Confirmation(rec, false)
	assert.True(t, strings.HasPrefix(msg, "✅ Resume received successfully!"))
	assert.Contains(t, msg, "Name: Asha Rao\n")
	assert.Contains(t, msg, "Email: asha.rao@example.com\n")
	assert.Contains(t, msg, "Experience: N/A\n")
	assert.Contains(t, msg, "Skills: "+strings.Repeat("Go, ", 20)+"...\n")

	updated := Confirmation(rec, true)
	assert.True(t, strings.HasPrefix(updated, "✅ Resume updated successfully!"))
	assert.Contains(t, updated, "earlier submission has been replaced")
}

func TestPreviewSkills(t *testing.T) {
	short := "Python, SQL, Communication"
	assert.Equal(t, short, previewSkills(short))

	exact := strings.Repeat("é", SkillsPreviewChars)
	assert.Equal(t, exact, previewSkills(exact))
	assert.Equal(t, exact+"...", previewSkills(exact+"x"))
}

func TestCorrectiveFormat(t *testing.T) {
	msg := CorrectiveFormat([]string{"name", "email or phone"})
	assert.Contains(t, msg, "missing: name, email or phone.")
	assert.Contains(t, msg, "Name: Your Full Name")
	assert.Contains(t, msg, "PDF or DOCX")
}
