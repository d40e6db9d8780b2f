package validate

import (
	"context"
	"database/sql"
	"log"
	"sort"

	"jobfinder-engine/internal/platform"
	"jobfinder-engine/internal/store"
)

// RemoveDuplicates collapses jobs that normalize to the same URL. The oldest
// record wins, everything newer goes, and the kept record's link is rewritten
// to the normalized form so future inserts dedupe against it directly.
func RemoveDuplicates(ctx context.Context, db *sql.DB) (int, error) {
	jobs, err := store.ListAll(ctx, db)
	if err != nil {
		return 0, err
	}

	groups := make(map[string][]store.Job)
	for _, j := range jobs {
		key := platform.NormalizeURL(j.Link)
		groups[key] = append(groups[key], j)
	}

	type rewrite struct {
		id   int64
		link string
	}

	var toDelete []int64
	var rewrites []rewrite
	removed := 0
	for normalized, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, k int) bool {
			if group[i].CreatedAt.Equal(group[k].CreatedAt) {
				return group[i].ID < group[k].ID
			}
			return group[i].CreatedAt.Before(group[k].CreatedAt)
		})

		keep := group[0]
		if keep.Link != normalized {
			rewrites = append(rewrites, rewrite{id: keep.ID, link: normalized})
		}
		for _, dup := range group[1:] {
			toDelete = append(toDelete, dup.ID)
			removed++
			log.Printf("[validate] removing duplicate id=%d title=%q", dup.ID, dup.Title)
		}
	}

	// Deletes go first: a discarded duplicate may already hold the normalized
	// link the kept record is about to take.
	if _, err := store.DeleteByIDs(ctx, db, toDelete); err != nil {
		return 0, err
	}
	for _, rw := range rewrites {
		if err := store.UpdateLink(ctx, db, rw.id, rw.link); err != nil {
			return removed, err
		}
		log.Printf("[validate] rewrote link for kept duplicate id=%d link=%s", rw.id, rw.link)
	}
	return removed, nil
}
