package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate trims and dedupes list fields and checks the config
// for values that would break the engine (errors) or just look like mistakes
// (warnings).
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Search.Queries = trimList(out.Search.Queries)

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Search.IntervalSeconds <= 0 {
		res.addErr("search.interval_seconds must be > 0")
	} else if out.Search.IntervalSeconds < 600 {
		res.addWarn("search.interval_seconds is very low (%d); each cycle spends Serper quota.", out.Search.IntervalSeconds)
	}
	if len(out.Search.Queries) == 0 {
		res.addWarn("search.queries is empty; the search cron will find nothing.")
	}

	if out.Validation.IntervalSeconds <= 0 {
		res.addErr("validation.interval_seconds must be > 0")
	}
	if out.Validation.TimeoutSeconds < 0 || out.Validation.RetryTimeoutSeconds < 0 {
		res.addErr("validation timeouts must be >= 0")
	}
	if out.Validation.RetryTimeoutSeconds > 0 &&
		out.Validation.RetryTimeoutSeconds < out.Validation.TimeoutSeconds {
		res.addWarn("validation.retry_timeout_seconds is below timeout_seconds; the retry pass will not help.")
	}
	if out.Validation.BatchSize < 0 {
		res.addErr("validation.batch_size must be >= 0")
	}

	if out.Email.Enabled {
		if strings.TrimSpace(out.Email.IMAPHost) == "" {
			res.addErr("email.imap_host is required when email.enabled=true")
		}
		if out.Email.IMAPPort == 0 {
			res.addErr("email.imap_port is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Username) == "" {
			res.addErr("email.username is required when email.enabled=true")
		}
		if out.Email.IntervalSeconds <= 0 {
			res.addErr("email.interval_seconds must be > 0 when email.enabled=true")
		}
	}

	if out.GitHub.Repo != "" && !strings.Contains(out.GitHub.Repo, "/") {
		res.addErr("github.repo must be \"owner/name\"")
	}

	if out.RateLimit.PerHostRPS < 0 {
		res.addErr("rate_limit.per_host_rps must be >= 0")
	}

	return out, res
}

func trimList(xs []string) []string {
	seen := map[string]bool{}
	var ys []string
	for _, x := range xs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		key := strings.ToLower(x)
		if seen[key] {
			continue
		}
		seen[key] = true
		ys = append(ys, x)
	}
	return ys
}
