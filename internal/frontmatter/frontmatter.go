// Package frontmatter splits a content file into its metadata header and body.
//
// Two header shapes are accepted. The key/value shape is a block of `key: value`
// lines ending at the first blank line or at a `-----` separator line; it
// counts as a header only when it sets at least one key Decode reads. The
// YAML shape is a `---` delimited block at the very start of the file.
package frontmatter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// Separator is the optional line that closes a key/value header block.
const Separator = "-----"

// Document is a parsed content blob.
type Document struct {
	Metadata map[string]any
	Body     string
}

var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// Parse extracts metadata and body from a raw content blob. Keys it cannot
// read are left out of Metadata; only a malformed YAML header is an error.
func Parse(raw string) (*Document, error) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	if strings.HasPrefix(raw, "---\n") {
		return parseYAML(raw)
	}
	return parseKeyValue(raw), nil
}

func parseYAML(raw string) (*Document, error) {
	meta := map[string]any{}
	body, err := frontmatter.MustParse(strings.NewReader(raw), &meta, yamlFormat)
	if err != nil {
		if errors.Is(err, frontmatter.ErrNotFound) {
			return &Document{Metadata: map[string]any{}, Body: raw}, nil
		}
		return nil, fmt.Errorf("failed to parse yaml front matter: %w", err)
	}
	return &Document{Metadata: meta, Body: strings.TrimLeft(string(body), "\n")}, nil
}

func parseKeyValue(raw string) *Document {
	meta := map[string]any{}

	consumed := 0
	for i, line := range strings.SplitAfter(raw, "\n") {
		n := len(line)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			consumed += n
			break
		}
		if trimmed == Separator {
			break
		}
		line = strings.TrimRight(line, "\n")
		if i == 0 && !hasKeyShape(line) {
			// no header at all
			return &Document{Metadata: meta, Body: raw}
		}
		if key, value, ok := parseLine(line); ok {
			meta[key] = value
		}
		consumed += n
	}

	if !hasKnownKey(meta) {
		// a leading "Note: ..." line is prose, not a header
		return &Document{Metadata: map[string]any{}, Body: raw}
	}
	return &Document{Metadata: meta, Body: stripSeparator(raw[consumed:])}
}

func hasKnownKey(meta map[string]any) bool {
	for k := range meta {
		if knownKeys[k] {
			return true
		}
	}
	return false
}

// stripSeparator drops leading blank lines and a single separator line.
func stripSeparator(body string) string {
	rest := strings.TrimLeft(body, "\n")
	line, after, _ := strings.Cut(rest, "\n")
	if strings.TrimSpace(line) == Separator {
		return strings.TrimLeft(after, "\n")
	}
	return rest
}

func parseLine(line string) (string, any, bool) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", nil, false
	}
	key = strings.TrimSpace(key)
	if !isKey(key) {
		return "", nil, false
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil, false
	}

	switch value[0] {
	case '\'', '"':
		end := strings.LastIndexByte(value, value[0])
		if end <= 0 {
			return "", nil, false
		}
		return key, value[1:end], true
	case '[':
		end := strings.LastIndexByte(value, ']')
		if end < 0 {
			return "", nil, false
		}
		return key, splitList(value[1:end]), true
	}

	token, _, _ := strings.Cut(value, " ")
	token, _, _ = strings.Cut(token, "\t")
	return key, token, true
}

func splitList(inner string) []string {
	parts := strings.Split(inner, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, `'"`)
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hasKeyShape(line string) bool {
	key, _, ok := strings.Cut(line, ":")
	return ok && isKey(strings.TrimSpace(key))
}

func isKey(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r == '_':
		case (r >= '0' && r <= '9') || r == '-':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
