package vecrank

import (
	"context"
	"net/http"
	"time"
)

// HealthStatus represents the aggregated service health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded"
	Checks map[string]string `json:"checks"` // component -> "ok"/"error"
}

// Health fetches the readiness report. A degraded service (503) is
// reported through Status, not as an error.
func (c *Client) Health(ctx context.Context) (hs HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("health", start, err) }()

	err = c.do(ctx, http.MethodGet, "/health", nil, &hs, http.StatusServiceUnavailable)
	return hs, err
}
