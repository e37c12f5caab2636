package goTeam

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"time"
)

// LintWarning is a configuration that validates but is probably a mistake.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// Lint returns advisory warnings for c. It never fails; call Validate for
// hard errors.
func (c Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if u, err := url.Parse(c.HTTP.BaseURL); err == nil && u.Scheme == "http" && !isLoopback(u.Hostname()) {
		add("insecure_base_url", "bearer tokens travel in clear text to %s", u.Host)
	}
	if c.HTTP.Timeout > time.Minute {
		add("timeout_long", "HTTP Timeout %s keeps failed calls pending for a long time", c.HTTP.Timeout)
	}
	if c.Cache.QueryRetry == 0 {
		add("retry_disabled", "reads fail on the first transient error")
	}
	if c.Cache.GCInterval == 0 {
		add("gc_disabled", "unused cache entries are never evicted")
	}

	var longest time.Duration
	var longestRes []string
	for r, p := range c.Cache.Policies {
		if p.StaleTime > c.Cache.GCTime {
			longestRes = append(longestRes, r.String())
			if p.StaleTime > longest {
				longest = p.StaleTime
			}
		}
	}
	if len(longestRes) > 0 {
		sort.Strings(longestRes)
		add("gc_shorter_than_stale", "GCTime %s evicts %v before they go stale (up to %s)", c.Cache.GCTime, longestRes, longest)
	}

	if c.Search.Debounce == 0 {
		add("debounce_disabled", "every keystroke issues a search request")
	}
	if !c.Notify.Enabled {
		add("notify_disabled", "failed mutations are not reported to the user")
	}
	return ws
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
