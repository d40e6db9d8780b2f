package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"

	"jobfinder-engine/internal/config"
	"jobfinder-engine/internal/events"
	"jobfinder-engine/internal/ingest"
	"jobfinder-engine/internal/validate"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic stores
	CfgVal    *atomic.Value // stores config.Config
	StatusVal *atomic.Value // stores httpapi.CronStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// CronSecret guards the /cron endpoints. Resolved at request time so a
	// secret set after startup takes effect without a restart.
	CronSecret func() string

	// Cron entrypoints (injected for testability)
	RunSearch     func(ctx context.Context, queries []string) ingest.Report
	RunValidation func(ctx context.Context) (validate.Report, error)
	RunMailScan   func(ctx context.Context) (ingest.MailReport, error)
}
