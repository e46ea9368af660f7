package frontmatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Fields is the typed view of the metadata keys the content pipeline reads.
type Fields struct {
	Title           string
	Excerpt         string
	Category        string
	Tags            []string
	Pillars         []string
	PublishedAt     *time.Time
	Status          string
	Listed          *bool
	HeroImage       string
	InteractiveSlug string
	InteractiveHTML string
}

var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var (
	titleKeys       = []string{"title"}
	excerptKeys     = []string{"excerpt", "description", "summary"}
	categoryKeys    = []string{"category"}
	tagKeys         = []string{"tags"}
	pillarKeys      = []string{"pillars"}
	statusKeys      = []string{"status"}
	heroKeys        = []string{"heroImage", "hero_image", "hero"}
	interactiveKeys = []string{"interactiveSlug", "interactive_slug", "interactive"}
	inlineHTMLKeys  = []string{"interactiveHtml", "interactive_html"}
	dateKeys        = []string{"publishedAt", "published_at", "date"}
	listedKeys      = []string{"isListed", "is_listed", "listed"}
)

// knownKeys holds every key Decode reads.
var knownKeys = func() map[string]bool {
	m := map[string]bool{}
	for _, group := range [][]string{
		titleKeys, excerptKeys, categoryKeys, tagKeys, pillarKeys, statusKeys,
		heroKeys, interactiveKeys, inlineHTMLKeys, dateKeys, listedKeys,
	} {
		for _, k := range group {
			m[k] = true
		}
	}
	return m
}()

// Decode maps known keys onto Fields. Aliases are checked in order and the
// first present key wins. Values of the wrong shape are ignored.
func Decode(meta map[string]any) Fields {
	var f Fields
	f.Title = firstString(meta, titleKeys...)
	f.Excerpt = firstString(meta, excerptKeys...)
	f.Category = firstString(meta, categoryKeys...)
	f.Tags = firstList(meta, tagKeys...)
	f.Pillars = firstList(meta, pillarKeys...)
	f.Status = firstString(meta, statusKeys...)
	f.HeroImage = firstString(meta, heroKeys...)
	f.InteractiveSlug = firstString(meta, interactiveKeys...)
	f.InteractiveHTML = firstString(meta, inlineHTMLKeys...)

	for _, key := range dateKeys {
		if t, ok := timeValue(meta[key]); ok {
			f.PublishedAt = &t
			break
		}
	}
	for _, key := range listedKeys {
		if b, ok := boolValue(meta[key]); ok {
			f.Listed = &b
			break
		}
	}
	return f
}

func firstString(meta map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := stringValue(meta[k]); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstList(meta map[string]any, keys ...string) []string {
	for _, k := range keys {
		if l, ok := listValue(meta[k]); ok {
			return l
		}
	}
	return nil
}

func stringValue(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case time.Time:
		return x.Format(time.RFC3339), true
	case int, int64, float64, bool:
		return fmt.Sprint(x), true
	}
	return "", false
}

func listValue(v any) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return x, true
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := stringValue(item); ok && s != "" {
				out = append(out, s)
			}
		}
		return out, true
	case string:
		if x == "" {
			return nil, false
		}
		return splitList(x), true
	}
	return nil, false
}

func boolValue(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(x) {
		case "yes", "on":
			return true, true
		case "no", "off":
			return false, true
		}
		b, err := strconv.ParseBool(x)
		return b, err == nil
	}
	return false, false
}

func timeValue(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case string:
		for _, layout := range dateFormats {
			if t, err := time.Parse(layout, x); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}
