// Package ingest discovers new job listings and feeds them into the store.
// Two sources share one insert pipeline: Serper web searches and IMAP job
// alert emails. Every candidate link is shape-checked, probed for liveness,
// normalized, and inserted with dedupe on the link.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"time"

	"jobfinder-engine/internal/fetch"
	"jobfinder-engine/internal/platform"
	"jobfinder-engine/internal/store"
	"jobfinder-engine/internal/validate/greenhouse"
	"jobfinder-engine/internal/validate/lever"
)

type Pipeline struct {
	db      *sql.DB
	serper  *SerperClient
	fetcher *fetch.Client
	timeout time.Duration
}

func NewPipeline(db *sql.DB, serper *SerperClient, fetcher *fetch.Client, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = fetch.DefaultTimeout
	}
	return &Pipeline{db: db, serper: serper, fetcher: fetcher, timeout: timeout}
}

// Report is the summary returned to the cron caller.
type Report struct {
	QueriesRun int      `json:"queriesRun"`
	JobsAdded  int      `json:"jobsAdded"`
	Errors     []string `json:"errors"`
}

// Run processes every configured search query. A failing query is recorded
// and the rest still run.
func (p *Pipeline) Run(ctx context.Context, queries []string) Report {
	rep := Report{Errors: []string{}}
	for _, q := range queries {
		rep.QueriesRun++
		added, errs := p.processQuery(ctx, q)
		rep.JobsAdded += added
		rep.Errors = append(rep.Errors, errs...)
	}
	log.Printf("[ingest] search done queries=%d added=%d errors=%d",
		rep.QueriesRun, rep.JobsAdded, len(rep.Errors))
	return rep
}

func (p *Pipeline) processQuery(ctx context.Context, query string) (int, []string) {
	log.Printf("[ingest] query=%q", query)

	results, err := p.serper.Search(ctx, query)
	if err != nil {
		return 0, []string{fmt.Sprintf("query %q: %v", query, err)}
	}

	added := 0
	for _, res := range results {
		inserted, err := p.Submit(ctx, res.Title, res.Link, res.Snippet, query)
		if err != nil {
			log.Printf("[ingest] insert failed link=%s err=%v", res.Link, err)
			continue
		}
		if inserted {
			added++
		}
	}
	return added, nil
}

// Submit takes one candidate listing through the full pipeline: permalink
// shape check, liveness probe, normalization, insert. Returns whether a new
// row was added; skips (dead or off-platform links, duplicates) are not
// errors.
func (p *Pipeline) Submit(ctx context.Context, rawTitle, link, snippet, query string) (bool, error) {
	if !platform.IsValidJobLink(link) {
		log.Printf("[ingest] skipping non-job link=%s", link)
		return false, nil
	}
	if !p.probe(ctx, link) {
		log.Printf("[ingest] skipping dead link=%s", link)
		return false, nil
	}

	title := platform.NormalizeTitle(rawTitle, link)
	added, err := store.InsertJobIgnore(ctx, p.db, store.Job{
		Title:       title,
		Company:     platform.ExtractCompany(title, link),
		Link:        platform.NormalizeURL(link),
		Snippet:     snippet,
		Source:      platform.Source(link),
		SearchQuery: query,
	})
	if err != nil {
		return false, err
	}
	if added {
		log.Printf("[ingest] inserted title=%q link=%s", title, link)
	}
	return added, nil
}

// probe checks the link is alive before it enters the store. Lever and
// Greenhouse serve parseable pages over plain HTTP, so those get a content
// check too; client-rendered platforms pass on HTTP status alone and the
// validation cron catches the rest later.
func (p *Pipeline) probe(ctx context.Context, link string) bool {
	res, err := p.fetcher.Get(ctx, link, p.timeout)
	if err != nil || res.StatusCode >= 400 {
		return false
	}

	switch platform.Classify(link) {
	case platform.Lever:
		return lever.Parse(res.Body).Valid()
	case platform.Greenhouse:
		u, err := url.Parse(link)
		if err != nil {
			return false
		}
		return greenhouse.Parse(res.Body).Valid(u)
	}
	return true
}
