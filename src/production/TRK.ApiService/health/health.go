package health

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// HealthChecker reports readiness of the document store connection.
type HealthChecker struct {
	client *mongo.Client
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(client *mongo.Client) *HealthChecker {
	return &HealthChecker{client: client}
}

// Ping checks store connectivity
func (h *HealthChecker) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return h.client.Ping(ctx, readpref.Primary())
}

// GetHealthStatus returns an overall health summary
func (h *HealthChecker) GetHealthStatus(ctx context.Context) map[string]interface{} {
	storeOK := h.Ping(ctx) == nil

	status := "ready"
	if !storeOK {
		status = "unhealthy"
	}

	return map[string]interface{}{
		"status":    status,
		"store":     storeOK,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}
