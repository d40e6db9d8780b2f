package httpapi

import "net/http"

// NewMux returns the raw mux so main() can attach anything that needs the
// server handle itself.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	auth := BearerAuth(d.CronSecret)
	cronAuth := CronAuth(d.CronSecret)

	// Cron entrypoints. GitHub Actions and local schedulers hit these with
	// the shared bearer secret.
	cron := CronHandler{
		CfgVal:        d.CfgVal,
		StatusVal:     d.StatusVal,
		Hub:           d.Hub,
		RunSearch:     d.RunSearch,
		RunValidation: d.RunValidation,
		RunMailScan:   d.RunMailScan,
	}
	mux.HandleFunc("/cron/search-jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cronAuth(cron.SearchJobs),
	}))
	mux.HandleFunc("/cron/validate-jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cronAuth(cron.ValidateJobs),
	}))
	mux.HandleFunc("/cron/scan-email", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cronAuth(cron.ScanEmail),
	}))
	mux.HandleFunc("/cron/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: cron.Status,
	}))

	// Jobs
	jh := JobsHandler{DB: d.DB, Hub: d.Hub}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.List,
	}))
	mux.HandleFunc("/jobs/platform/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.ListByPlatform,
	}))
	mux.HandleFunc("/jobs/invalid", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: auth(jh.DeleteInvalid),
	}))
	mux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		// /jobs/{id} and /jobs/{id}/applied share the prefix.
		switch {
		case r.Method == http.MethodDelete:
			jh.DeleteByPath(w, r)
		case r.Method == http.MethodPost:
			jh.SetApplied(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetIMAPPassword,
	}))
	mux.HandleFunc("/secrets/", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetByPath,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Maintenance
	dbh := DBHandler{DB: d.DB}
	mux.HandleFunc("/db/checkpoint", dbh.Checkpoint)

	hh := HealthHandler{}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	return mux
}
