package loader

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.TXT")
	if err := os.WriteFile(path, []byte("\xef\xbb\xbfJordan Price\nGo engineer\xff"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	text, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Jordan Price\nGo engineer" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestLoadBytesUnsupported(t *testing.T) {
	for _, ext := range []string{".odt", "", ".doc"} {
		_, err := LoadBytes(ext, []byte("data"))
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat for %q, got %v", ext, err)
		}
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadBytesCorruptDocuments(t *testing.T) {
	if _, err := LoadBytes(".pdf", []byte("definitely not a pdf")); err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
	if _, err := LoadBytes(".docx", []byte("definitely not a zip")); err == nil {
		t.Fatal("expected error for corrupt docx")
	}
}

func TestLoadBytesDocx(t *testing.T) {
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Jordan Price</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Go</w:t></w:r><w:r><w:tab/><w:t>R&amp;D engineer</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	rels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`
	contentTypes := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range map[string]string{
		"[Content_Types].xml":          contentTypes,
		"word/document.xml":            document,
		"word/_rels/document.xml.rels": rels,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	text, err := LoadBytes("DOCX", buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Jordan Price\nGo\tR&D engineer" {
		t.Fatalf("unexpected text: %q", text)
	}
}
