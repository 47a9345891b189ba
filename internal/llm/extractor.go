// Package llm - extractor.go builds structured-extraction prompts from a field schema.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "CandidateRecord")
	Description string        // Preamble describing the extraction task
	Missing     string        // Literal the model must use for fields it cannot find
	Fields      []SchemaField // Expected output fields, in output order
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint shown to the model
	Description string // Formatting rule for the model
	Example     string // Example value
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("FIELD RULES:\n")
	for i, field := range schema.Fields {
		sb.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, strings.ToUpper(field.Name), field.Description))
	}
	sb.WriteString("\n")

	sb.WriteString("Return ONLY valid JSON with exactly these keys:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		sb.WriteString(fmt.Sprintf("  %q: %q", field.Name, field.Example))
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString(fmt.Sprintf(" // %s\n", typeHint))
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	if schema.Missing != "" {
		sb.WriteString(fmt.Sprintf("- If a field is not found, use %q.\n", schema.Missing))
	}
	sb.WriteString("- Extract information directly from the text, do not invent values.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// CandidateRecordSchema returns the extraction schema for the seven candidate fields.
func CandidateRecordSchema(missing string) ExtractionSchema {
	return ExtractionSchema{
		Name: "CandidateRecord",
		Description: `You are an expert resume parser. Read the ENTIRE resume and extract the candidate's details.
Skills can appear in skills sections, project descriptions and experience bullets; collect all of them.`,
		Missing: missing,
		Fields: []SchemaField{
			{
				Name:        "name",
				Type:        "string",
				Description: "Candidate's full name only, 2 to 4 words, Title Case. Never a company or a place.",
				Example:     "Asha Rao",
			},
			{
				Name:        "email",
				Type:        "string",
				Description: "Email address exactly as written (local@domain.tld).",
				Example:     "asha.rao@example.com",
			},
			{
				Name:        "phone",
				Type:        "string",
				Description: "Candidate's phone number with country code if present; digits and a leading + only.",
				Example:     "+919876543210",
			},
			{
				Name:        "location",
				Type:        "string",
				Description: "Candidate's current location as \"City, State\" or \"City, State, Country\" from the contact section. Not a company office, not the candidate's name.",
				Example:     "Bangalore, Karnataka, India",
			},
			{
				Name:        "skills",
				Type:        "string",
				Description: "Every skill mentioned (languages, frameworks, databases, cloud, tools, soft skills, spoken languages) as one comma-separated list without duplicates.",
				Example:     "Python, SQL, Docker, Communication",
			},
			{
				Name:        "experience",
				Type:        "string",
				Description: "Each job as \"Company - Title (Mon YYYY - Mon YYYY)\" or \"(Mon YYYY - Present)\", jobs separated by commas. Use \"Fresher\" when the candidate has no work experience.",
				Example:     "Acme Corp - Backend Engineer (Jan 2021 - Present), Beta Labs - Intern (Jun 2020 - Aug 2020)",
			},
			{
				Name:        "education",
				Type:        "string",
				Description: "Highest or latest degree only, as \"Degree, Institution, Year\".",
				Example:     "B.Tech Computer Science, IIT Bombay, 2020",
			},
		},
	}
}

// FieldNames returns the JSON keys of the schema in order.
func (s ExtractionSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}
