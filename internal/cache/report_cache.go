package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"auditapi/internal/model"

	"github.com/redis/go-redis/v9"
)

// ReportCache keeps the last report generated in each browser session
type ReportCache interface {
	Set(ctx context.Context, sessionID string, report *model.AuditReport) error
	Get(ctx context.Context, sessionID string) (*model.AuditReport, error)
	Touch(ctx context.Context, sessionID string) error
}

type reportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a report cache; entries expire ttl after last use
func NewReportCache(client *redis.Client, ttl time.Duration) ReportCache {
	return &reportCache{
		client: client,
		ttl:    ttl,
	}
}

func reportKey(sessionID string) string {
	return fmt.Sprintf("session:%s:report", sessionID)
}

func (c *reportCache) Set(ctx context.Context, sessionID string, report *model.AuditReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, reportKey(sessionID), data, c.ttl).Err()
}

func (c *reportCache) Get(ctx context.Context, sessionID string) (*model.AuditReport, error) {
	data, err := c.client.Get(ctx, reportKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report model.AuditReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Touch extends the entry's lifetime; a missing entry is not an error
func (c *reportCache) Touch(ctx context.Context, sessionID string) error {
	return c.client.Expire(ctx, reportKey(sessionID), c.ttl).Err()
}
