package rest

import (
	"context"
	"sync"

	"auditapi/internal/model"
)

type stubGenerator struct {
	enabled bool
	reply   string
	err     error
}

func (g *stubGenerator) IsEnabled() bool { return g.enabled }

func (g *stubGenerator) Generate(context.Context, string) (string, error) {
	return g.reply, g.err
}

type memorySubmissions struct {
	mu   sync.Mutex
	subs map[string]model.Submission
}

func (m *memorySubmissions) Save(_ context.Context, sub *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.ID] = *sub
	return nil
}

func (m *memorySubmissions) GetByID(_ context.Context, id string) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[id]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (m *memorySubmissions) ListBySession(_ context.Context, sessionID string, limit int64) ([]*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Submission{}
	for _, sub := range m.subs {
		if sub.SessionID == sessionID && int64(len(out)) < limit {
			sub := sub
			out = append(out, &sub)
		}
	}
	return out, nil
}

type memoryReports struct {
	mu      sync.Mutex
	reports map[string]*model.AuditReport
}

func (m *memoryReports) Set(_ context.Context, sessionID string, report *model.AuditReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[sessionID] = report
	return nil
}

func (m *memoryReports) Get(_ context.Context, sessionID string) (*model.AuditReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reports[sessionID], nil
}

func (m *memoryReports) Touch(context.Context, string) error { return nil }
