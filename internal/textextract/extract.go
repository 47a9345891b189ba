// Package textextract converts PDF and DOCX resumes into plain text.
package textextract

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Format is a supported document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Content types accepted as resume attachments.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var contentTypeExt = map[string]string{
	ContentTypePDF:  ".pdf",
	ContentTypeDOCX: ".docx",
}

// ExtensionForContentType maps an attachment content type to a file extension.
// Parameters such as "; charset=..." are ignored.
func ExtensionForContentType(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	ext, ok := contentTypeExt[ct]
	return ext, ok
}

// FormatForFilename selects the document format from a file extension.
func FormatForFilename(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF, true
	case ".docx":
		return FormatDOCX, true
	default:
		return "", false
	}
}

// Extractor reads resume documents. The zero value is ready to use.
type Extractor struct {
	// MaxBytes rejects larger documents when positive.
	MaxBytes int64
}

// New returns an Extractor with the given size limit (0 for none).
func New(maxBytes int64) *Extractor {
	return &Extractor{MaxBytes: maxBytes}
}

// ExtractFile reads a document from disk.
func (e *Extractor) ExtractFile(path string) (string, error) {
	if _, ok := FormatForFilename(path); !ok {
		return "", notExtractable(path, "unsupported file extension", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", notExtractable(path, "failed to read file", err)
	}
	return e.Extract(filepath.Base(path), data)
}

// Extract returns the plain text of data, choosing the reader by the extension
// of name. Every failure, including a document with no text, is reported as
// an error matching ErrNotExtractable.
func (e *Extractor) Extract(name string, data []byte) (text string, err error) {
	format, ok := FormatForFilename(name)
	if !ok {
		return "", notExtractable(name, "unsupported file extension", nil)
	}
	if e != nil && e.MaxBytes > 0 && int64(len(data)) > e.MaxBytes {
		return "", notExtractable(name, fmt.Sprintf("document larger than %d bytes", e.MaxBytes), nil)
	}
	if len(data) == 0 {
		return "", notExtractable(name, "empty document", nil)
	}

	// Third-party readers panic on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = notExtractable(name, "reader panicked", fmt.Errorf("%v", r))
		}
	}()

	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	}
	if err != nil {
		return "", notExtractable(name, "failed to parse "+string(format), err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", notExtractable(name, "no text found", nil)
	}
	log.Printf("[textextract] %s: extracted %d characters", name, len(text))
	return text, nil
}
