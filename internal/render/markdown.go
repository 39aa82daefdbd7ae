// Package render writes an episode summary to disk as Markdown with YAML
// front matter and as a Word document.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Doc is one rendered summary.
type Doc struct {
	Title       string    `yaml:"title"`
	Date        string    `yaml:"date,omitempty"`
	Source      string    `yaml:"source,omitempty"`
	RunID       string    `yaml:"run_id,omitempty"`
	Players     []string  `yaml:"players,omitempty"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Summary     string    `yaml:"-"`
}

// Markdown renders d as front matter followed by the summary body.
func Markdown(d Doc) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("---\n\n")
	buf.WriteString(strings.TrimSpace(d.Summary))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// ParseMarkdown reads back a file written by Markdown.
func ParseMarkdown(data []byte) (Doc, error) {
	s := string(data)
	if !strings.HasPrefix(s, "---\n") {
		return Doc{}, fmt.Errorf("missing front matter")
	}
	end := strings.Index(s[4:], "\n---\n")
	if end < 0 {
		return Doc{}, fmt.Errorf("unterminated front matter")
	}
	var d Doc
	if err := yaml.Unmarshal([]byte(s[4:4+end+1]), &d); err != nil {
		return Doc{}, fmt.Errorf("decode front matter: %w", err)
	}
	d.Summary = strings.TrimSpace(s[4+end+5:])
	return d, nil
}

var reSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug makes a file name stem from a title. Empty titles become "episode".
func Slug(title string) string {
	s := strings.Trim(reSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(s) > 80 {
		s = strings.TrimRight(s[:80], "-")
	}
	if s == "" {
		return "episode"
	}
	return s
}
