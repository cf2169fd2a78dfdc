// Package loader reads resumes and job descriptions from TXT, PDF and DOCX
// files into a single UTF-8 text blob.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// ErrUnsupportedFormat is returned for file extensions no reader exists for.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var (
	docxParagraphPattern = regexp.MustCompile(`</w:p>|<w:br/>|<w:cr/>`)
	docxTabPattern       = regexp.MustCompile(`<w:tab/>`)
	xmlTagPattern        = regexp.MustCompile(`<[^>]*>`)
)

// LoadFile reads path and converts it to text based on its extension.
func LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	text, err := LoadBytes(filepath.Ext(path), data)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return text, nil
}

// LoadBytes converts data to text. ext is a file extension such as ".pdf".
func LoadBytes(ext string, data []byte) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")) {
	case "txt", "text", "md":
		return plainText(data), nil
	case "pdf":
		return pdfText(data)
	case "docx":
		return docxText(data)
	default:
		if ext == "" {
			ext = "(none)"
		}
		return "", fmt.Errorf("%w: %s, use txt, pdf or docx", ErrUnsupportedFormat, ext)
	}
}

func plainText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	return strings.ToValidUTF8(string(data), "")
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return strings.TrimSpace(builder.String()), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	content = docxParagraphPattern.ReplaceAllString(content, "\n")
	content = docxTabPattern.ReplaceAllString(content, "\t")
	content = xmlTagPattern.ReplaceAllString(content, "")

	return strings.TrimSpace(html.UnescapeString(content)), nil
}
