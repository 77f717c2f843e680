package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status is the aggregated health of the service.
type Status string

// Aggregated statuses. A failing component degrades the service; a failing store breaks it.
const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded"
	Unhealthy Status = "error"
)

// CheckResult is the outcome of one check.
type CheckResult string

// Check outcomes.
const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// storeCheck is the check name of the store ping.
const storeCheck = "database"

// DefaultCheckTimeout bounds each check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service runs the store ping and component checks concurrently.
type Service struct {
	db         DBPinger
	components map[string]Checker
	timeout    time.Duration
}

// New creates a Service. Components map a check name to its checker; nil checkers are skipped.
func New(db DBPinger, components map[string]Checker) *Service {
	c := make(map[string]Checker, len(components))
	for name, chk := range components {
		if chk != nil {
			c[name] = chk
		}
	}
	return &Service{db: db, components: c, timeout: DefaultCheckTimeout}
}

// Check runs every check and aggregates the results.
func (s *Service) Check(ctx context.Context) Report {
	fns := make(map[string]func(context.Context) error, len(s.components)+1)
	fns[storeCheck] = s.db.Ping
	for name, chk := range s.components {
		fns[name] = chk.HealthCheck
	}

	names := make([]string, 0, len(fns))
	results := make([]CheckResult, len(fns))
	var g errgroup.Group
	for name, fn := range fns {
		i := len(names)
		names = append(names, name)
		// Failures are recorded, not returned, so every check runs to completion.
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			results[i] = CheckOK
			if err := fn(pctx); err != nil {
				results[i] = CheckError
			}
			return nil
		})
	}
	_ = g.Wait()

	checks := make(map[string]CheckResult, len(fns))
	for i, name := range names {
		checks[name] = results[i]
	}

	status := Healthy
	for name, res := range checks {
		if res == CheckOK {
			continue
		}
		if name == storeCheck {
			status = Unhealthy
			break
		}
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}
