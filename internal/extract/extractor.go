// Package extract turns note files into a title and plain text body.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MaxFileSize is the largest file Extract will read.
const MaxFileSize = 20 << 20

// Document is the text pulled out of one file.
type Document struct {
	// Title defaults to the file name without extension; markdown front matter may override it.
	Title string
	Text  string
}

type extractFunc func(content []byte) (string, error)

// Extractor extracts note text from files by extension.
type Extractor struct {
	formats map[string]extractFunc
}

// NewExtractor returns an Extractor for plain text, markdown, PDF, DOCX, and XLSX files.
func NewExtractor() *Extractor {
	return &Extractor{formats: map[string]extractFunc{
		".txt":      extractPlain,
		".text":     extractPlain,
		".rst":      extractPlain,
		".org":      extractPlain,
		".md":       extractPlain,
		".markdown": extractPlain,
		".pdf":      extractPDF,
		".docx":     extractDOCX,
		".xlsx":     extractExcel,
	}}
}

// Supported reports whether ext (with leading dot, any case) has an extractor.
func (e *Extractor) Supported(ext string) bool {
	_, ok := e.formats[strings.ToLower(ext)]
	return ok
}

// Extensions returns the supported extensions in sorted order.
func (e *Extractor) Extensions() []string {
	exts := make([]string, 0, len(e.formats))
	for ext := range e.formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract reads the file at path and returns its title and text. Markdown front matter
// is removed from the text and its title field, when present, becomes the title.
func (e *Extractor) Extract(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), MaxFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	doc := &Document{Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
	if ext == ".md" || ext == ".markdown" {
		fm, body, err := splitFrontMatter(content)
		if err != nil {
			return nil, err
		}
		if fm.Title != "" {
			doc.Title = fm.Title
		}
		content = body
	}

	text, err := e.ExtractBytes(content, ext)
	if err != nil {
		return nil, err
	}
	doc.Text = text
	return doc, nil
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Unknown extensions are read as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	fn, ok := e.formats[strings.ToLower(ext)]
	if !ok {
		fn = extractPlain
	}
	text, err := fn(content)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
