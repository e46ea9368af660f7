package domain

// Pillar is a topic tag from the fixed catalog.
type Pillar struct {
	ID        string
	Slug      string
	Name      string
	SortOrder int
}

// ContentPillarLink is one row of the content/pillar association table.
type ContentPillarLink struct {
	ContentItemID string
	PillarID      string
}

// PillarCatalog is the canonical pillar vocabulary. The pillars table is
// seeded from the same list.
var PillarCatalog = []Pillar{
	{ID: "p-focus", Slug: "focus", Name: "Focus", SortOrder: 1},
	{ID: "p-habits", Slug: "habits", Name: "Habits", SortOrder: 2},
	{ID: "p-systems", Slug: "systems", Name: "Systems", SortOrder: 3},
	{ID: "p-learning", Slug: "learning", Name: "Learning", SortOrder: 4},
	{ID: "p-wellbeing", Slug: "wellbeing", Name: "Wellbeing", SortOrder: 5},
	{ID: "p-productivity", Slug: "productivity", Name: "Productivity", SortOrder: 6},
	{ID: "p-creativity", Slug: "creativity", Name: "Creativity", SortOrder: 7},
	{ID: "p-career", Slug: "career", Name: "Career", SortOrder: 8},
	{ID: "p-mindset", Slug: "mindset", Name: "Mindset", SortOrder: 9},
}

var pillarsBySlug = func() map[string]Pillar {
	m := make(map[string]Pillar, len(PillarCatalog))
	for _, p := range PillarCatalog {
		m[p.Slug] = p
	}
	return m
}()

// IsKnownPillar reports whether slug belongs to the catalog.
func IsKnownPillar(slug string) bool {
	_, ok := pillarsBySlug[slug]
	return ok
}

// PillarBySlug looks up a catalog entry.
func PillarBySlug(slug string) (Pillar, bool) {
	p, ok := pillarsBySlug[slug]
	return p, ok
}

// FilterPillars keeps catalog slugs only, drops duplicates and orders the
// result by catalog order.
func FilterPillars(slugs []string) []string {
	seen := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		if IsKnownPillar(s) {
			seen[s] = true
		}
	}
	out := make([]string, 0, len(seen))
	for _, p := range PillarCatalog {
		if seen[p.Slug] {
			out = append(out, p.Slug)
		}
	}
	return out
}
