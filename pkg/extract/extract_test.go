package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const sampleDocumentXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Digital Strategy</w:t></w:r></w:p>
    <w:p><w:r><w:t>The agency modernizes its services.</w:t></w:r></w:p>
    <w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>Goals</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestPlainTextFormats(t *testing.T) {
	for _, name := range []string{"notes.txt", "readme.md", "data.csv"} {
		got, err := Text(name, []byte("hello world"))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != "hello world" {
			t.Errorf("%s: got %q, want %q", name, got, "hello world")
		}
	}
}

func TestUnknownExtensionFallsBackToText(t *testing.T) {
	got, err := Text("notes.unknown", []byte("still text"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "still text" {
		t.Errorf("Got %q, want %q", got, "still text")
	}
}

func TestBinaryContentRejected(t *testing.T) {
	if _, err := Text("image.bin", []byte{0xff, 0xfe, 0x00, 0x80}); err == nil {
		t.Error("Binary content should not pass the text fallback")
	}
}

func TestDocxExtraction(t *testing.T) {
	data := buildDocx(t, map[string]string{
		"word/document.xml": sampleDocumentXML,
		"word/styles.xml":   "<styles/>",
	})

	got, err := Text("strategy.docx", data)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}

	// Headings come out with Markdown prefixes, paragraphs as plain text
	if !strings.Contains(got, "# Digital Strategy") {
		t.Errorf("Missing H1, got %q", got)
	}
	if !strings.Contains(got, "## Goals") {
		t.Errorf("Missing H2, got %q", got)
	}
	if !strings.Contains(got, "The agency modernizes its services.") {
		t.Errorf("Missing body text, got %q", got)
	}
}

func TestDocxMissingDocumentXML(t *testing.T) {
	data := buildDocx(t, map[string]string{"word/styles.xml": "<styles/>"})
	_, err := Text("broken.docx", data)
	if err == nil || !strings.Contains(err.Error(), "word/document.xml") {
		t.Errorf("Got %v, want missing document.xml error", err)
	}
}

func TestDocxNotAZip(t *testing.T) {
	if _, err := Text("broken.docx", []byte("not a zip archive")); err == nil {
		t.Error("Garbage bytes should fail docx extraction")
	}
}

func TestPdfInvalid(t *testing.T) {
	if _, err := Text("broken.pdf", []byte("not a pdf")); err == nil {
		t.Error("Garbage bytes should fail PDF extraction")
	}
}
