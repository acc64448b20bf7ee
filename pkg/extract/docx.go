package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// docxText extracts text from a .docx file preserving basic structure:
// heading paragraphs come out with Markdown-style prefixes.
func docxText(data []byte) (string, error) {
	// 1. Open the .docx file as a ZIP archive
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx zip: %w", err)
	}

	// 2. Find "word/document.xml"
	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}

	if docFile == nil {
		return "", fmt.Errorf("invalid docx: word/document.xml not found")
	}

	// 3. Open the XML file
	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	// 4. Parse XML manually to extract text and styles
	return parseDocxXML(rc)
}

// parseDocxXML streams the XML and converts Paragraphs to Markdown-like text
func parseDocxXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var result strings.Builder

	// State variables
	var currentParaText strings.Builder
	var currentStyle string

	inParagraph := false
	inTextNode := false // Are we inside a <w:t> tag?

	for {
		t, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch se := t.(type) {
		case xml.StartElement:
			if se.Name.Local == "p" {
				// Paragraph Start
				inParagraph = true
				currentParaText.Reset()
				currentStyle = ""
			} else if se.Name.Local == "pStyle" {
				// Style (e.g. Heading1)
				for _, attr := range se.Attr {
					if attr.Name.Local == "val" {
						currentStyle = attr.Value
					}
				}
			} else if se.Name.Local == "t" {
				// Text Start
				inTextNode = true
			}

		case xml.CharData:
			// Text Content
			if inParagraph && inTextNode {
				currentParaText.Write(se)
			}

		case xml.EndElement:
			if se.Name.Local == "t" {
				inTextNode = false
			} else if se.Name.Local == "p" {
				// Paragraph End: Flush
				if inParagraph {
					text := currentParaText.String()
					if strings.TrimSpace(text) != "" {
						prefix := ""
						// Word often uses "Heading1", "Heading 2", etc.
						if strings.Contains(currentStyle, "Heading") || strings.Contains(currentStyle, "heading") {
							if strings.Contains(currentStyle, "1") {
								prefix = "# "
							} else if strings.Contains(currentStyle, "2") {
								prefix = "## "
							} else if strings.Contains(currentStyle, "3") {
								prefix = "### "
							}
						}
						result.WriteString(prefix + text + "\n\n")
					}
				}
				inParagraph = false
			}
		}
	}

	finalText := result.String()
	slog.Debug("extracted docx text", "chars", len(finalText))
	return finalText, nil
}
