package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"auditapi/internal/cache"
	"auditapi/internal/model"
	"auditapi/internal/repository"
)

var (
	_ Generator                 = (*fakeGenerator)(nil)
	_ repository.SubmissionRepo = (*fakeSubmissionRepo)(nil)
	_ cache.ReportCache         = (*fakeReportCache)(nil)
	_ Broadcaster               = (*fakeBroadcaster)(nil)
)

type fakeGenerator struct {
	enabled bool
	reply   string
	err     error
	delay   time.Duration // replies after delay even if ctx expired

	mu      sync.Mutex
	prompts []string
}

func (f *fakeGenerator) IsEnabled() bool { return f.enabled }

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type fakeSubmissionRepo struct {
	mu   sync.Mutex
	subs map[string]model.Submission
	err  error
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{subs: map[string]model.Submission{}}
}

func (f *fakeSubmissionRepo) Save(ctx context.Context, sub *model.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.err != nil {
		return f.err
	}
	f.subs[sub.ID] = *sub
	return nil
}

func (f *fakeSubmissionRepo) GetByID(_ context.Context, id string) (*model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[id]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (f *fakeSubmissionRepo) ListBySession(_ context.Context, sessionID string, limit int64) ([]*model.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Submission{}
	for _, sub := range f.subs {
		if sub.SessionID == sessionID {
			sub := sub
			out = append(out, &sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSubmissionRepo) all() []model.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Submission, 0, len(f.subs))
	for _, sub := range f.subs {
		out = append(out, sub)
	}
	return out
}

type fakeReportCache struct {
	mu      sync.Mutex
	reports map[string]*model.AuditReport
	touched []string
	err     error
}

func newFakeReportCache() *fakeReportCache {
	return &fakeReportCache{reports: map[string]*model.AuditReport{}}
}

func (f *fakeReportCache) Set(_ context.Context, sessionID string, report *model.AuditReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.reports[sessionID] = report
	return nil
}

func (f *fakeReportCache) Get(_ context.Context, sessionID string) (*model.AuditReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reports[sessionID], nil
}

func (f *fakeReportCache) Touch(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, sessionID)
	return nil
}

type broadcast struct {
	submissionID string
	msgType      string
	payload      interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	sent   []broadcast
	closed []string
}

func (f *fakeBroadcaster) BroadcastSubmission(submissionID string, msgType string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, broadcast{submissionID, msgType, payload})
}

func (f *fakeBroadcaster) CloseSubmission(submissionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, submissionID)
}
