package textextract

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF reads text row by row in layout order. When that yields nothing
// it falls back to the plain text of each page.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	pages := safeNumPage(reader)
	if pages <= 0 {
		return "", fmt.Errorf("pdf has no pages")
	}

	text := layoutText(reader, pages)
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	log.Printf("[textextract] layout extraction empty, falling back to page text")
	return pageText(reader, pages), nil
}

func safeNumPage(reader *pdf.Reader) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	return reader.NumPage()
}

// layoutText groups glyph runs into rows by vertical position.
func layoutText(reader *pdf.Reader, pages int) string {
	out := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		func() {
			defer func() { _ = recover() }()
			page := reader.Page(i)
			if page.V.IsNull() {
				return
			}
			rows, err := page.GetTextByRow()
			if err != nil {
				return
			}
			lines := make([]string, 0, len(rows))
			for _, row := range rows {
				if line := joinRow(row.Content); strings.TrimSpace(line) != "" {
					lines = append(lines, line)
				}
			}
			out = append(out, strings.Join(lines, "\n"))
		}()
	}
	return strings.Join(out, "\n")
}

// joinRow concatenates the runs of one row, inserting a space where the gap
// between runs is wider than a fraction of the font size.
func joinRow(runs pdf.TextHorizontal) string {
	var sb strings.Builder
	var prevEnd float64
	for i, t := range runs {
		if i > 0 {
			gap := t.X - prevEnd
			last := sb.String()
			if gap > t.FontSize*0.2 && !strings.HasSuffix(last, " ") && !strings.HasPrefix(t.S, " ") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return strings.TrimSpace(sb.String())
}

// pageText is the simpler page-by-page reader.
func pageText(reader *pdf.Reader, pages int) string {
	out := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		func() {
			defer func() { _ = recover() }()
			page := reader.Page(i)
			if page.V.IsNull() {
				return
			}
			text, err := page.GetPlainText(nil)
			if err != nil {
				return
			}
			out = append(out, text)
		}()
	}
	return strings.Join(out, "\n")
}
