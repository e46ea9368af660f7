package domain

import (
	"fmt"
	"regexp"
	"time"
)

// Kind is a content namespace. Slugs are unique within a kind.
type Kind string

const (
	KindArticle  Kind = "article"
	KindResource Kind = "resource"
	KindCourse   Kind = "course"
)

// Kinds lists every content kind in routing order.
var Kinds = []Kind{KindArticle, KindResource, KindCourse}

// ParseKind accepts the singular or plural form of a kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "article", "articles", "content":
		return KindArticle, nil
	case "resource", "resources":
		return KindResource, nil
	case "course", "courses":
		return KindCourse, nil
	}
	return "", ErrInvalidKind
}

// Plural is the directory name used by file-backed content.
func (k Kind) Plural() string {
	return string(k) + "s"
}

// BasePath is the public route prefix of the kind's pages and listing.
func (k Kind) BasePath() string {
	switch k {
	case KindArticle:
		return "/content"
	case KindResource:
		return "/resources"
	case KindCourse:
		return "/courses"
	}
	return "/" + k.Plural()
}

// ContentStatus is the editorial state of a content item
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPublished ContentStatus = "published"
)

// SourceKind records which store produced a content item.
type SourceKind string

const (
	SourceRelational SourceKind = "relational"
	SourceFile       SourceKind = "file"
)

// InteractiveRef points at an auxiliary interactive asset: either trusted
// inline HTML or the slug of an externally hosted interactive.
type InteractiveRef struct {
	HTML string `json:"html,omitempty"`
	Slug string `json:"slug,omitempty"`
}

// Empty reports whether the reference carries nothing.
func (r *InteractiveRef) Empty() bool {
	return r == nil || (r.HTML == "" && r.Slug == "")
}

// ContentItem is an article, resource or course as stored in either source.
type ContentItem struct {
	ID          string
	Kind        Kind
	Slug        string
	Title       string
	Excerpt     string
	Category    string
	Tags        []string
	PublishedAt *time.Time
	Status      ContentStatus
	IsListed    *bool // nil means unset, which counts as listed
	HeroImage   string
	BodySource  string
	Pillars     []string
	Interactive *InteractiveRef
	Source      SourceKind
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Visible reports whether the public pipeline may serve the item.
func (c *ContentItem) Visible() bool {
	if c == nil {
		return false
	}
	if c.Status != ContentStatusPublished {
		return false
	}
	return c.IsListed == nil || *c.IsListed
}

// Listed returns the effective listing flag.
func (c *ContentItem) Listed() bool {
	return c.IsListed == nil || *c.IsListed
}

// BoolPtr is a small helper for optional flags.
func BoolPtr(b bool) *bool {
	return &b
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// IsValidSlug reports whether s is a lower-case, hyphen-separated URL slug.
func IsValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// ValidateContentItem validates a ContentItem before it is written.
func ValidateContentItem(c *ContentItem) error {
	if c == nil {
		return fmt.Errorf("content item cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("content item ID is required")
	}

	if !isValidKind(c.Kind) {
		return fmt.Errorf("content item Kind is invalid: %s", c.Kind)
	}

	if c.Title == "" {
		return fmt.Errorf("content item Title is required")
	}

	if !IsValidSlug(c.Slug) {
		return fmt.Errorf("content item Slug is invalid: %q", c.Slug)
	}

	if c.BodySource == "" {
		return fmt.Errorf("content item BodySource is required")
	}

	if !IsValidStatus(c.Status) {
		return fmt.Errorf("content item Status is invalid: %s", c.Status)
	}

	for _, p := range c.Pillars {
		if !IsKnownPillar(p) {
			return fmt.Errorf("content item Pillar is unknown: %s", p)
		}
	}

	return nil
}

// IsValidStatus checks if a ContentStatus is valid
func IsValidStatus(s ContentStatus) bool {
	switch s {
	case ContentStatusDraft, ContentStatusPublished:
		return true
	}
	return false
}

func isValidKind(k Kind) bool {
	switch k {
	case KindArticle, KindResource, KindCourse:
		return true
	}
	return false
}
