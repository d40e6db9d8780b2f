package httpapi

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"jobfinder-engine/internal/config"
	"jobfinder-engine/internal/events"
	"jobfinder-engine/internal/ingest"
	"jobfinder-engine/internal/validate"
)

type CronHandler struct {
	CfgVal    *atomic.Value // stores config.Config
	StatusVal *atomic.Value // stores httpapi.CronStatus
	Hub       *events.Hub

	RunSearch     func(ctx context.Context, queries []string) ingest.Report
	RunValidation func(ctx context.Context) (validate.Report, error)
	RunMailScan   func(ctx context.Context) (ingest.MailReport, error)
}

// cronErrorResponse is the failure shape for /cron/* routes. Schedulers key
// off the success flag, so cron failures never use the APIError envelope.
type cronErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeCronError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, cronErrorResponse{Error: msg})
}

type searchResponse struct {
	Success    bool     `json:"success"`
	QueriesRun int      `json:"queriesRun"`
	JobsAdded  int      `json:"jobsAdded"`
	Errors     []string `json:"errors"`
	Timestamp  string   `json:"timestamp"`
}

type validateResponse struct {
	Success           bool     `json:"success"`
	JobsChecked       int      `json:"jobsChecked"`
	JobsRemoved       int      `json:"jobsRemoved"`
	DuplicatesRemoved int      `json:"duplicatesRemoved"`
	Errors            []string `json:"errors"`
	Timestamp         string   `json:"timestamp"`
}

type mailResponse struct {
	Success         bool     `json:"success"`
	MessagesScanned int      `json:"messagesScanned"`
	JobsAdded       int      `json:"jobsAdded"`
	Errors          []string `json:"errors"`
	Timestamp       string   `json:"timestamp"`
}

func (h CronHandler) SearchJobs(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)

	h.updateStatus(func(s *CronStatus) { markStart(&s.Search) })
	rep := h.RunSearch(r.Context(), cfg.Search.Queries)
	h.updateStatus(func(s *CronStatus) { markDone(&s.Search, firstError(rep.Errors)) })

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeSearchDone, 1, rep))

	WriteJSON(w, http.StatusOK, searchResponse{
		Success:    true,
		QueriesRun: rep.QueriesRun,
		JobsAdded:  rep.JobsAdded,
		Errors:     rep.Errors,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

func (h CronHandler) ValidateJobs(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(func(s *CronStatus) { markStart(&s.Validate) })
	rep, err := h.RunValidation(r.Context())
	if err != nil {
		h.updateStatus(func(s *CronStatus) { markDone(&s.Validate, err.Error()) })
		writeCronError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.updateStatus(func(s *CronStatus) { markDone(&s.Validate, firstError(rep.Errors)) })

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeValidateDone, 1, rep))

	WriteJSON(w, http.StatusOK, validateResponse{
		Success:           true,
		JobsChecked:       rep.JobsChecked,
		JobsRemoved:       rep.JobsRemoved,
		DuplicatesRemoved: rep.DuplicatesRemoved,
		Errors:            rep.Errors,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
	})
}

func (h CronHandler) ScanEmail(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)
	if !cfg.Email.Enabled {
		writeCronError(w, http.StatusConflict, "email ingestion is disabled in config")
		return
	}

	h.updateStatus(func(s *CronStatus) { markStart(&s.Email) })
	rep, err := h.RunMailScan(r.Context())
	if err != nil {
		h.updateStatus(func(s *CronStatus) { markDone(&s.Email, err.Error()) })
		writeCronError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.updateStatus(func(s *CronStatus) { markDone(&s.Email, firstError(rep.Errors)) })

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeEmailDone, 1, rep))

	WriteJSON(w, http.StatusOK, mailResponse{
		Success:         true,
		MessagesScanned: rep.MessagesScanned,
		JobsAdded:       rep.JobsAdded,
		Errors:          rep.Errors,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	})
}

func (h CronHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.StatusVal.Load().(CronStatus))
}

func (h CronHandler) updateStatus(f func(*CronStatus)) {
	s := h.StatusVal.Load().(CronStatus)
	f(&s)
	h.StatusVal.Store(s)
}

func markStart(rs *RunStatus) {
	rs.Running = true
	rs.LastRunAt = time.Now().UTC().Format(time.RFC3339)
}

func markDone(rs *RunStatus, errStr string) {
	rs.Running = false
	rs.LastError = errStr
	if errStr == "" {
		rs.LastOkAt = time.Now().UTC().Format(time.RFC3339)
	}
}

func firstError(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	return errs[0]
}
