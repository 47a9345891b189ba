package textextract

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"strings"

	"code.sajari.com/docconv"
	"github.com/nguyenthenguyen/docx"
)

// extractDOCX joins the document's paragraphs with newlines. If the body
// XML cannot be walked, docconv is used instead.
func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	defer doc.Close()

	text, err := paragraphsFromXML(doc.Editable().GetContent())
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}

	log.Printf("[textextract] docx paragraph walk failed (%v), trying docconv", err)
	text, _, convErr := docconv.ConvertDocx(bytes.NewReader(data))
	if convErr != nil {
		return "", fmt.Errorf("docconv: %w", convErr)
	}
	return text, nil
}

// paragraphsFromXML walks word/document.xml collecting w:t runs. Each w:p
// ends a line; w:tab and w:br become a space and a newline.
func paragraphsFromXML(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var (
		lines  []string
		cur    strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte(' ')
			case "br", "cr":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				lines = append(lines, strings.TrimRight(cur.String(), " "))
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return strings.Join(lines, "\n"), nil
}
