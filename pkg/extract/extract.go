// Package extract pulls plain text out of uploaded documents so their
// content can be turned into graph nodes. It works on in-memory bytes
// rather than paths because documents arrive over HTTP.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Text extracts the text content of a document, selecting the decoder
// from the filename extension.
func Text(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".pdf":
		return pdfText(data)
	case ".docx":
		return docxText(data)
	case ".txt", ".md", ".markdown", ".csv", ".json", ".yaml", ".yml", ".html":
		return plainText(data)
	default:
		// Fallback: try to read it as text. Binary junk is caught by
		// the UTF-8 check below instead of being passed downstream.
		return plainText(data)
	}
}

func plainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8 text")
	}
	return string(data), nil
}
