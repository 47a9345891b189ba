package messaging

import (
	"fmt"
	"strings"

	"github.com/jonathan/cv-intake/internal/types"
)

// SkillsPreviewChars is the longest skills value echoed back in a confirmation.
const SkillsPreviewChars = 80

// Fixed replies.
const (
	ReplyDownloadFailed  = "Sorry, I couldn't download your resume. Please try again."
	ReplyCouldNotRead    = "Sorry, I couldn't read your resume. Please ensure it's a PDF or DOCX file."
	ReplyParseFailed     = "Sorry, I couldn't extract information from your resume. Please ensure it contains clear details."
	ReplySaveFailed      = "Your resume was processed but there was an issue saving it. Please contact support."
	ReplyUnsupportedFile = "Sorry, that file type isn't supported. Please send your resume as a PDF or DOCX file."
	ReplyRateLimited     = "You're sending messages too quickly. Please wait a minute and send your resume again."
	ReplyWelcome         = "👋 Welcome to CV Management System!\n\n" +
		"Please send your resume as a PDF or DOCX file to get started.\n\n" +
		"You can also type your details, one per line:\n" + detailsExample
)

const detailsExample = "Name: Your Full Name\n" +
	"Email: you@example.com\n" +
	"Phone: +91 98765 43210\n" +
	"Skills: Skill 1, Skill 2\n" +
	"Experience: Company - Role (Jan 2020 - Present)\n" +
	"Education: Degree, Institution, Year\n" +
	"Location: City, State"

// Confirmation acknowledges a stored record. updated selects the wording for
// a submission that replaced an earlier one.
func Confirmation(rec types.CandidateRecord, updated bool) string {
	var sb strings.Builder
	if updated {
		sb.WriteString("✅ Resume updated successfully!\n\n")
	} else {
		sb.WriteString("✅ Resume received successfully!\n\n")
	}
	fmt.Fprintf(&sb, "Name: %s\n", rec.Name)
	fmt.Fprintf(&sb, "Email: %s\n", rec.Email)
	fmt.Fprintf(&sb, "Experience: %s\n", rec.Experience)
	fmt.Fprintf(&sb, "Skills: %s\n\n", previewSkills(rec.Skills))
	if updated {
		sb.WriteString("We already had your details, so your earlier submission has been replaced. We'll contact you soon!")
	} else {
		sb.WriteString("Your application has been recorded. We'll contact you soon!")
	}
	return sb.String()
}

// CorrectiveFormat asks the sender to resubmit with the missing fields.
func CorrectiveFormat(missing []string) string {
	return "⚠️ Some required details are missing: " + strings.Join(missing, ", ") + ".\n\n" +
		"Please send your details in this format:\n" + detailsExample + "\n\n" +
		"Or send your resume as a PDF or DOCX file."
}

func previewSkills(skills string) string {
	r := []rune(skills)
	if len(r) <= SkillsPreviewChars {
		return skills
	}
	return string(r[:SkillsPreviewChars]) + "..."
}
