package intake

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-intake/internal/archive"
	"github.com/jonathan/cv-intake/internal/events"
	"github.com/jonathan/cv-intake/internal/fetch"
	"github.com/jonathan/cv-intake/internal/types"
)

type sentMessage struct {
	to   string
	body string
}

// fakeSender records replies.
type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{to: to, body: body})
	return f.err
}

func (f *fakeSender) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

// fakeDownloader serves fixed bytes for any URL.
type fakeDownloader struct {
	data []byte
	err  error
	urls []string
}

func (f *fakeDownloader) Download(_ context.Context, url string) (*fetch.Result, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return &fetch.Result{URL: url, Data: f.data, StatusCode: 200}, nil
}

type fakeArchiver struct {
	files []archive.File
	err   error
}

func (f *fakeArchiver) Archive(_ context.Context, file archive.File) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.files = append(f.files, file)
	return "resumes/" + file.SubmissionID.String() + file.Extension, nil
}

type fakePublisher struct {
	events []events.CandidateSaved
}

func (f *fakePublisher) PublishCandidateSaved(_ context.Context, ev events.CandidateSaved) error {
	f.events = append(f.events, ev)
	return nil
}

// failingStrategy never produces a record.
type failingStrategy struct{}

func (failingStrategy) Name() string { return "failing" }

func (failingStrategy) Extract(context.Context, string) (types.CandidateRecord, error) {
	return types.CandidateRecord{}, errors.New("boom")
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

// buildDocx writes one paragraph per line.
func buildDocx(t *testing.T, lines ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, l := range lines {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">` + l + `</w:t></w:r></w:p>`)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml": contentTypesXML,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body.String() + `</w:body></w:document>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
