package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"jobfinder-engine/internal/config"
	"jobfinder-engine/internal/events"
	"jobfinder-engine/internal/fetch"
	"jobfinder-engine/internal/httpapi"
	"jobfinder-engine/internal/ingest"
	"jobfinder-engine/internal/scheduler"
	"jobfinder-engine/internal/secrets"
	"jobfinder-engine/internal/store"
	"jobfinder-engine/internal/trigger"
	"jobfinder-engine/internal/validate"
	"jobfinder-engine/internal/validate/workday"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Engine data dir: use env if provided, else local folder.
	dataDir := os.Getenv("JOBFINDER_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// One engine per data dir. A second instance would race the sqlite file
	// and double-run crons.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire data dir lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another engine instance holds %s", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		return fmt.Errorf("config bootstrap failed: %w", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return config.Load(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", userCfgPath, err)
	}
	normalized, vr := config.NormalizeAndValidate(cfg)
	if !vr.OK() {
		return fmt.Errorf("config invalid (%s): %v", userCfgPath, vr.Errors)
	}
	cfg = normalized
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "jobfinder.db")
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(db); err != nil {
		return err
	}

	hub := events.NewHub()

	var statusVal atomic.Value
	statusVal.Store(httpapi.CronStatus{})

	limiter := fetch.NewHostLimiter(cfg.RateLimit.PerHostRPS, cfg.RateLimit.Burst)
	fetcher := fetch.NewClient(limiter)
	renderer := fetch.PlainRenderer{Client: fetcher}
	boards := workday.NewClient(nil, fetch.DefaultTimeout)

	dispatcher := func(ctx context.Context) {
		cur := cfgVal.Load().(config.Config)
		token, err := secrets.Get(secrets.GitHubToken)
		if err != nil {
			log.Printf("[trigger] github token lookup: %v", err)
			return
		}
		gh := trigger.NewGitHub(nil, token, cur.GitHub.Repo)
		if !gh.Configured() {
			return
		}
		if err := gh.DispatchValidation(ctx); err != nil {
			log.Printf("[trigger] workflow dispatch: %v", err)
		}
	}

	runSearch := func(ctx context.Context, queries []string) ingest.Report {
		key, err := secrets.Get(secrets.SerperAPIKey)
		if err != nil || key == "" {
			return ingest.Report{Errors: []string{"serper api key not configured"}}
		}
		p := ingest.NewPipeline(db, ingest.NewSerperClient(nil, key), fetcher, fetch.DefaultTimeout)
		rep := p.Run(ctx, queries)
		if rep.JobsAdded > 0 {
			// New listings on rendered boards need the browser workers.
			dispatcher(ctx)
		}
		return rep
	}

	runValidation := func(ctx context.Context) (validate.Report, error) {
		cur := cfgVal.Load().(config.Config)
		r := validate.NewRunner(db, fetcher, renderer, boards, validate.Options{
			Timeout:      time.Duration(cur.Validation.TimeoutSeconds) * time.Second,
			RetryTimeout: time.Duration(cur.Validation.RetryTimeoutSeconds) * time.Second,
			FetchDelay:   time.Duration(cur.Validation.FetchDelayMillis) * time.Millisecond,
			BatchDelay:   time.Duration(cur.Validation.BatchDelayMillis) * time.Millisecond,
			BoardDelay:   time.Duration(cur.Validation.BoardDelayMillis) * time.Millisecond,
			BatchSize:    cur.Validation.BatchSize,
		})
		return r.Run(ctx)
	}

	runMailScan := func(ctx context.Context) (ingest.MailReport, error) {
		cur := cfgVal.Load().(config.Config)
		pw, err := secrets.GetIMAPPassword(cur)
		if err != nil {
			return ingest.MailReport{}, err
		}
		key, _ := secrets.Get(secrets.SerperAPIKey)
		p := ingest.NewPipeline(db, ingest.NewSerperClient(nil, key), fetcher, fetch.DefaultTimeout)
		return p.RunMail(ctx, ingest.MailConfig{
			Addr:        net.JoinHostPort(cur.Email.IMAPHost, fmt.Sprint(cur.Email.IMAPPort)),
			Username:    cur.Email.Username,
			Password:    pw,
			Mailbox:     cur.Email.Mailbox,
			MaxMessages: cur.Email.MaxMessages,
		})
	}

	mux := httpapi.NewMux(httpapi.Deps{
		DB:          db,
		Hub:         hub,
		CfgVal:      &cfgVal,
		StatusVal:   &statusVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		CronSecret: func() string {
			s, err := secrets.Get(secrets.CronSecret)
			if err != nil {
				log.Printf("[secrets] cron secret lookup: %v", err)
				return ""
			}
			return s
		},
		RunSearch:     runSearch,
		RunValidation: runValidation,
		RunMailScan:   runMailScan,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go scheduler.Every(ctx, cfg.SearchInterval(), "search", func(ctx context.Context) error {
		rep := runSearch(ctx, cfgVal.Load().(config.Config).Search.Queries)
		log.Printf("[search] queries=%d added=%d errors=%d", rep.QueriesRun, rep.JobsAdded, len(rep.Errors))
		hub.Publish(events.MakeEvent("", events.TypeSearchDone, 1, rep))
		return nil
	})

	go scheduler.Every(ctx, cfg.ValidationInterval(), "validate", func(ctx context.Context) error {
		rep, err := runValidation(ctx)
		if err != nil {
			return err
		}
		log.Printf("[validate] checked=%d removed=%d dups=%d errors=%d",
			rep.JobsChecked, rep.JobsRemoved, rep.DuplicatesRemoved, len(rep.Errors))
		hub.Publish(events.MakeEvent("", events.TypeValidateDone, 1, rep))
		return nil
	})

	if cfg.Email.Enabled {
		go scheduler.Every(ctx, cfg.EmailInterval(), "email", func(ctx context.Context) error {
			rep, err := runMailScan(ctx)
			if err != nil {
				return err
			}
			log.Printf("[email] scanned=%d added=%d errors=%d", rep.MessagesScanned, rep.JobsAdded, len(rep.Errors))
			hub.Publish(events.MakeEvent("", events.TypeEmailDone, 1, rep))
			return nil
		})
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("engine listening on http://%s (db=%s)", addr, dbPath)

	srv := &http.Server{
		Handler:           httpapi.Chain(mux, httpapi.RequestID, httpapi.Recover, httpapi.AccessLog, httpapi.Cors),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
