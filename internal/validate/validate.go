// Package validate re-checks every stored job against its platform and
// removes listings that are confidently dead or out of region. Transient
// failures never delete: a flaky fetch today should not cost a listing that
// is fine tomorrow.
package validate

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"jobfinder-engine/internal/fetch"
	"jobfinder-engine/internal/platform"
	"jobfinder-engine/internal/store"
	"jobfinder-engine/internal/validate/ashby"
	"jobfinder-engine/internal/validate/gem"
	"jobfinder-engine/internal/validate/greenhouse"
	"jobfinder-engine/internal/validate/lever"
	"jobfinder-engine/internal/validate/rippling"
	"jobfinder-engine/internal/validate/workday"
)

type Options struct {
	// Timeout bounds the first fetch attempt; RetryTimeout bounds the single
	// retry that jobs failing only on timeout get.
	Timeout      time.Duration
	RetryTimeout time.Duration

	// FetchDelay paces sequential page fetches, BatchDelay separates batches
	// of rendered fetches, BoardDelay separates Workday board index pulls.
	FetchDelay time.Duration
	BatchDelay time.Duration
	BoardDelay time.Duration

	// BatchSize is how many rendered pages are loaded concurrently.
	BatchSize int
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = fetch.DefaultTimeout
	}
	if o.RetryTimeout <= 0 {
		o.RetryTimeout = fetch.RetryTimeout
	}
	if o.FetchDelay < 0 {
		o.FetchDelay = 0
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 5
	}
	return o
}

// Report is the summary returned to the cron caller.
type Report struct {
	JobsChecked       int      `json:"jobsChecked"`
	JobsRemoved       int      `json:"jobsRemoved"`
	DuplicatesRemoved int      `json:"duplicatesRemoved"`
	Errors            []string `json:"errors"`
}

type Runner struct {
	db       *sql.DB
	fetcher  *fetch.Client
	renderer fetch.Renderer
	boards   *workday.Client
	opts     Options
}

func NewRunner(db *sql.DB, fetcher *fetch.Client, renderer fetch.Renderer, boards *workday.Client, opts Options) *Runner {
	return &Runner{
		db:       db,
		fetcher:  fetcher,
		renderer: renderer,
		boards:   boards,
		opts:     opts.withDefaults(),
	}
}

// Run collapses duplicates, then validates every remaining job. Jobs that
// time out on the first pass get one retry with the longer timeout before
// being written off as unreachable (and kept).
func (r *Runner) Run(ctx context.Context) (Report, error) {
	rep := Report{Errors: []string{}}

	dups, err := RemoveDuplicates(ctx, r.db)
	if err != nil {
		return rep, fmt.Errorf("remove duplicates: %w", err)
	}
	rep.DuplicatesRemoved = dups

	jobs, err := store.ListAll(ctx, r.db)
	if err != nil {
		return rep, fmt.Errorf("list jobs: %w", err)
	}
	rep.JobsChecked = len(jobs)

	var plain, rendered, boardJobs []store.Job
	var verdicts []Verdict
	for _, j := range jobs {
		p := platform.Classify(j.Link)
		switch {
		case p == platform.Other:
			verdicts = append(verdicts, Verdict{Job: j, Reason: ReasonNonTarget})
		case p == platform.Invalid || !platform.IsValidJobLink(j.Link):
			log.Printf("[validate] invalid link id=%d link=%s", j.ID, j.Link)
			verdicts = append(verdicts, Verdict{Job: j, Reason: ReasonInvalidURL, Remove: true})
		case p == platform.Workday:
			boardJobs = append(boardJobs, j)
		case p.RequiresRenderer():
			rendered = append(rendered, j)
		default:
			plain = append(plain, j)
		}
	}

	verdicts = append(verdicts, r.checkPlainAll(ctx, plain, &rep)...)
	verdicts = append(verdicts, r.checkRenderedAll(ctx, rendered, &rep)...)
	verdicts = append(verdicts, r.checkBoards(ctx, boardJobs, &rep)...)

	// Retry pass: timeouts only, one attempt with the longer deadline.
	for i, v := range verdicts {
		if v.Reason != ReasonTimeout {
			continue
		}
		log.Printf("[validate] retrying after timeout id=%d link=%s", v.Job.ID, v.Job.Link)
		var nv Verdict
		var errStr string
		if platform.Classify(v.Job.Link).RequiresRenderer() {
			nv, errStr = r.checkRendered(ctx, v.Job, r.opts.RetryTimeout)
		} else {
			nv, errStr = r.checkPlain(ctx, v.Job, r.opts.RetryTimeout)
		}
		if errStr != "" {
			rep.Errors = append(rep.Errors, errStr)
		}
		verdicts[i] = nv
		sleep(ctx, r.opts.FetchDelay)
	}

	var removeIDs []int64
	for _, v := range verdicts {
		if v.Remove {
			log.Printf("[validate] removing id=%d reason=%s title=%q", v.Job.ID, v.Reason, v.Job.Title)
			removeIDs = append(removeIDs, v.Job.ID)
		}
	}
	n, err := store.DeleteByIDs(ctx, r.db, removeIDs)
	if err != nil {
		return rep, fmt.Errorf("delete invalid jobs: %w", err)
	}
	rep.JobsRemoved = int(n)

	log.Printf("[validate] done checked=%d removed=%d duplicates=%d errors=%d",
		rep.JobsChecked, rep.JobsRemoved, rep.DuplicatesRemoved, len(rep.Errors))
	return rep, nil
}

func (r *Runner) checkPlainAll(ctx context.Context, jobs []store.Job, rep *Report) []Verdict {
	verdicts := make([]Verdict, 0, len(jobs))
	for i, j := range jobs {
		if i > 0 {
			sleep(ctx, r.opts.FetchDelay)
		}
		v, errStr := r.checkPlain(ctx, j, r.opts.Timeout)
		if errStr != "" {
			rep.Errors = append(rep.Errors, errStr)
		}
		verdicts = append(verdicts, v)
	}
	return verdicts
}

// checkRenderedAll loads client-rendered pages in small concurrent batches.
// Renderer workers hold a real browser page each, so the batch size stays
// modest and batches are spaced out.
func (r *Runner) checkRenderedAll(ctx context.Context, jobs []store.Job, rep *Report) []Verdict {
	verdicts := make([]Verdict, len(jobs))
	errStrs := make([]string, len(jobs))
	for start := 0; start < len(jobs); start += r.opts.BatchSize {
		if start > 0 {
			sleep(ctx, r.opts.BatchDelay)
		}
		end := min(start+r.opts.BatchSize, len(jobs))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				verdicts[i], errStrs[i] = r.checkRendered(gctx, jobs[i], r.opts.Timeout)
				return nil
			})
		}
		_ = g.Wait()
	}
	for _, e := range errStrs {
		if e != "" {
			rep.Errors = append(rep.Errors, e)
		}
	}
	return verdicts
}

func (r *Runner) checkPlain(ctx context.Context, j store.Job, timeout time.Duration) (Verdict, string) {
	res, err := r.fetcher.Get(ctx, j.Link, timeout)
	if v, errStr, ok := fetchVerdict(j, res, err); !ok {
		return v, errStr
	}

	p := platform.Classify(j.Link)
	var valid bool
	switch p {
	case platform.Greenhouse:
		requested, err := url.Parse(j.Link)
		if err != nil {
			return Verdict{Job: j, Reason: ReasonInvalidURL, Remove: true}, ""
		}
		valid = greenhouse.Parse(res.Body).Valid(requested)
	case platform.Lever:
		valid = lever.Parse(res.Body).Valid()
	case platform.Rippling:
		valid = rippling.PageValid(res.Body)
	default:
		return Verdict{Job: j, Reason: ReasonNonTarget}, ""
	}

	if !valid {
		return Verdict{Job: j, Reason: ContentInvalid(p), Remove: true}, ""
	}
	return Verdict{Job: j, Reason: ReasonValidated}, ""
}

func (r *Runner) checkRendered(ctx context.Context, j store.Job, timeout time.Duration) (Verdict, string) {
	p := platform.Classify(j.Link)
	selector := ashby.WaitSelector
	if p == platform.Gem {
		selector = gem.WaitSelector
	}

	res, err := r.renderer.Render(ctx, j.Link, selector, timeout)
	if v, errStr, ok := fetchVerdict(j, res, err); !ok {
		return v, errStr
	}

	switch p {
	case platform.Ashby:
		if ashby.HasErrorCopy(res.Body) {
			return Verdict{Job: j, Reason: ContentInvalid(p), Remove: true}, ""
		}
		info := ashby.ExtractLocation(res.Body)
		if info.Location == "" {
			log.Printf("[validate] unknown location, keeping id=%d link=%s", j.ID, j.Link)
			return Verdict{Job: j, Reason: ReasonValidated}, ""
		}
		if !info.Valid() {
			return Verdict{Job: j, Reason: ContentInvalid(p), Remove: true}, ""
		}
	case platform.Gem:
		if gem.HasErrorCopy(res.Body) {
			return Verdict{Job: j, Reason: ContentInvalid(p), Remove: true}, ""
		}
		info := gem.ExtractLocation(res.Body)
		if info.Location == "" {
			log.Printf("[validate] unknown location, keeping id=%d link=%s", j.ID, j.Link)
			return Verdict{Job: j, Reason: ReasonValidated}, ""
		}
		if !info.Valid() {
			return Verdict{Job: j, Reason: ContentInvalid(p), Remove: true}, ""
		}
	default:
		return Verdict{Job: j, Reason: ReasonNonTarget}, ""
	}
	return Verdict{Job: j, Reason: ReasonValidated}, ""
}

// fetchVerdict folds fetch failures and HTTP error statuses into verdicts.
// ok is true when the caller should go on to inspect the body; the string is
// a non-empty error summary for the report when the fetch itself failed.
func fetchVerdict(j store.Job, res fetch.Result, err error) (Verdict, string, bool) {
	if err != nil {
		if fetch.IsTimeout(err) {
			return Verdict{Job: j, Reason: ReasonTimeout}, "", false
		}
		return Verdict{Job: j, Reason: ReasonNetworkError}, fmt.Sprintf("job %d: %v", j.ID, err), false
	}
	if res.StatusCode >= 400 {
		return Verdict{Job: j, Reason: ReasonHTTPError, Remove: true}, "", false
	}
	return Verdict{}, "", true
}

// checkBoards validates Workday jobs board by board: one index pull covers
// every job on that board, with the detail endpoint as a fallback for links
// the index does not list.
func (r *Runner) checkBoards(ctx context.Context, jobs []store.Job, rep *Report) []Verdict {
	type group struct {
		board workday.Board
		jobs  []store.Job
	}

	var verdicts []Verdict
	parsed := make(map[int64]workday.Parsed, len(jobs))
	groups := make(map[string]*group)
	var order []string

	for _, j := range jobs {
		p, ok := workday.ParseBoard(j.Link)
		if !ok {
			log.Printf("[validate] unsupported workday link, keeping id=%d link=%s", j.ID, j.Link)
			verdicts = append(verdicts, Verdict{Job: j, Reason: ReasonValidated})
			continue
		}
		parsed[j.ID] = p

		key := p.Board.Key()
		g, ok := groups[key]
		if !ok {
			g = &group{board: p.Board}
			groups[key] = g
			order = append(order, key)
		}
		g.jobs = append(g.jobs, j)
	}

	for i, key := range order {
		if i > 0 {
			sleep(ctx, r.opts.BoardDelay)
		}
		g := groups[key]

		postings, err := r.boards.BoardPostings(ctx, g.board)
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("board %s/%s: %v", g.board.Tenant, g.board.Site, err))
			for _, j := range g.jobs {
				verdicts = append(verdicts, Verdict{Job: j, Reason: ReasonNetworkError})
			}
			continue
		}
		if postings == nil {
			log.Printf("[validate] board index unavailable, keeping %d jobs board=%s/%s",
				len(g.jobs), g.board.Tenant, g.board.Site)
			for _, j := range g.jobs {
				verdicts = append(verdicts, Verdict{Job: j, Reason: ReasonNetworkError})
			}
			continue
		}

		idx := workday.BuildIndex(postings)
		log.Printf("[validate] board index board=%s/%s entries=%d jobs=%d",
			g.board.Tenant, g.board.Site, idx.Size(), len(g.jobs))
		for _, j := range g.jobs {
			verdicts = append(verdicts, r.checkBoardJob(ctx, idx, parsed[j.ID], j, rep))
		}
	}
	return verdicts
}

func (r *Runner) checkBoardJob(ctx context.Context, idx *workday.Index, parsed workday.Parsed, j store.Job, rep *Report) Verdict {
	if posting, ok := idx.Match(parsed); ok {
		info, ok := workday.LocationFromPosting(posting)
		if !ok {
			log.Printf("[validate] unknown location, keeping id=%d link=%s", j.ID, j.Link)
			return Verdict{Job: j, Reason: ReasonValidated}
		}
		if !info.Valid() {
			return Verdict{Job: j, Reason: ContentInvalid(platform.Workday), Remove: true}
		}
		return Verdict{Job: j, Reason: ReasonValidated}
	}

	detail, err := r.boards.Detail(ctx, parsed)
	if err != nil {
		rep.Errors = append(rep.Errors, fmt.Sprintf("job %d: %v", j.ID, err))
		return Verdict{Job: j, Reason: ReasonNetworkError}
	}
	if detail != nil && detail.JobPostingInfo != nil {
		if p := detail.JobPostingInfo.Posted; p != nil && !*p {
			return Verdict{Job: j, Reason: ContentInvalid(platform.Workday), Remove: true}
		}
		info, ok := workday.LocationFromDetail(detail)
		if !ok {
			return Verdict{Job: j, Reason: ReasonValidated}
		}
		if !info.Valid() {
			return Verdict{Job: j, Reason: ContentInvalid(platform.Workday), Remove: true}
		}
		return Verdict{Job: j, Reason: ReasonValidated}
	}

	// Not in the index and the detail endpoint has nothing either.
	return Verdict{Job: j, Reason: ContentInvalid(platform.Workday), Remove: true}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
