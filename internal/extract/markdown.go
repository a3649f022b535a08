package extract

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// frontMatter holds the fields read from a markdown file's leading YAML block.
type frontMatter struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

var fmDelim = []byte("---")

// splitFrontMatter separates a leading "---" YAML block from the markdown body.
// Content without front matter is returned unchanged.
func splitFrontMatter(content []byte) (frontMatter, []byte, error) {
	var fm frontMatter
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, append(fmDelim, '\n')) {
		return fm, content, nil
	}
	rest := normalized[len(fmDelim)+1:]
	end := bytes.Index(rest, append([]byte("\n"), fmDelim...))
	if end < 0 {
		return fm, content, nil
	}
	block := rest[:end]
	body := rest[end+1+len(fmDelim):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 && len(bytes.TrimSpace(body[:i])) == 0 {
		body = body[i+1:]
	}
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return fm, nil, fmt.Errorf("parse front matter: %w", err)
	}
	return fm, body, nil
}
