// Package feed derives the exact ordered sequence of reports to render from
// a mirror snapshot and the current filter controls. Derive is a pure
// function: it never mutates the snapshot and identical inputs always yield
// identical output.
package feed

import (
	"sort"
	"strings"

	"pickmeup-backend/models"
)

type SortOrder string

const (
	Newest SortOrder = "newest"
	Oldest SortOrder = "oldest"
)

// Params are the user-controlled feed settings. Zero values disable the
// corresponding filter.
type Params struct {
	Query    string
	Category string
	Sort     SortOrder
	OwnerID  string
	Status   models.Status
}

// Active reports whether the user has any narrowing filter switched on,
// which decides between the "no matching items" and "nothing reported yet"
// empty states.
func (p Params) Active() bool {
	return p.Query != "" || p.Category != ""
}

func matchesQuery(item models.ItemReport, query string) bool {
	return strings.Contains(strings.ToLower(item.Title), query) ||
		strings.Contains(strings.ToLower(item.Description), query) ||
		strings.Contains(strings.ToLower(item.Location), query)
}

// Derive filters the snapshot by status, owner, free-text query and category,
// then sorts by creation time. The sort is stable, so items with equal
// timestamps keep their snapshot order; a missing createdAt sorts as the
// oldest possible value rather than failing.
func Derive(snapshot []models.ItemReport, p Params) []models.ItemReport {
	query := strings.ToLower(p.Query)

	items := make([]models.ItemReport, 0, len(snapshot))
	for _, item := range snapshot {
		if p.Status != "" && item.Status != p.Status {
			continue
		}
		if p.OwnerID != "" && item.UserID != p.OwnerID {
			continue
		}
		if query != "" && !matchesQuery(item, query) {
			continue
		}
		if p.Category != "" && item.Category != p.Category {
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if p.Sort == Oldest {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[j].CreatedAt.Before(items[i].CreatedAt)
	})
	return items
}
