package health

import "context"

// DBPinger is the store ping. Its failure makes the service unhealthy.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Checker is a component check (records, assistant). Its failure only degrades the service.
type Checker interface {
	HealthCheck(ctx context.Context) error
}
