// Package invalidate computes and announces the public paths made stale by
// content changes.
package invalidate

import (
	"github.com/cloo-solutions/pillarpress/internal/domain"
)

// PathsFor returns the pages made stale by a change to an item of kind:
// the old page, the new page and the kind's listing, in that order. Either
// slug may be empty; duplicates are dropped.
func PathsFor(kind domain.Kind, oldSlug, newSlug string) []string {
	base := kind.BasePath()
	paths := make([]string, 0, 3)
	seen := make(map[string]bool, 3)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	if oldSlug != "" {
		add(base + "/" + oldSlug)
	}
	if newSlug != "" {
		add(base + "/" + newSlug)
	}
	add(base)
	return paths
}
