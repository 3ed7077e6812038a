package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"auditapi/internal/audit"
	"auditapi/internal/cache"
	"auditapi/internal/model"
	"auditapi/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidInput  = errors.New("invalid audit request")
	ErrAIUnavailable = errors.New("API service unavailable")
	ErrGeneration    = errors.New("report generation failed")
	ErrReportFailed  = errors.New("could not generate audit report")
	ErrNotFound      = errors.New("not found")
)

const (
	defaultAsyncTimeout = 2 * time.Minute
	persistTimeout      = 10 * time.Second
	sessionHistoryLimit = 20
)

// InputError describes a rejected audit request
type InputError struct {
	Reason  string
	Missing []string
}

func (e *InputError) Error() string {
	if len(e.Missing) > 0 {
		return e.Reason + ": " + strings.Join(e.Missing, ", ")
	}
	return e.Reason
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// AuditService turns audit requests into validated reports
type AuditService struct {
	generator       Generator
	pipeline        *audit.Pipeline
	declarationName string
	submissions     repository.SubmissionRepo
	reports         cache.ReportCache
	broadcaster     Broadcaster
	logger          *zap.Logger
	asyncTimeout    time.Duration
	now             func() time.Time
	wg              sync.WaitGroup
}

// NewAuditService creates a new audit service
func NewAuditService(
	generator Generator,
	pipeline *audit.Pipeline,
	declarationName string,
	submissions repository.SubmissionRepo,
	reports cache.ReportCache,
	logger *zap.Logger,
) *AuditService {
	return &AuditService{
		generator:       generator,
		pipeline:        pipeline,
		declarationName: declarationName,
		submissions:     submissions,
		reports:         reports,
		logger:          logger.Named("audit_service"),
		asyncTimeout:    defaultAsyncTimeout,
		now:             time.Now,
	}
}

// SetBroadcaster sets the broadcaster for submission updates
func (s *AuditService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Submit generates a report synchronously. The report is kept in the
// session and recorded as a submission; storage failures are logged only.
func (s *AuditService) Submit(ctx context.Context, sessionID string, req *model.AuditRequest) (*model.AuditReport, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	result, err := s.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sub := &model.Submission{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Status:     model.SubmissionReady,
		InputData:  *req,
		ReportData: result.Report,
		Matcher:    result.Matcher,
		Warnings:   result.Warnings,
		CreatedAt:  now,
		ReadyAt:    &now,
	}
	s.storeSessionReport(ctx, sessionID, result.Report)
	if err := s.submissions.Save(ctx, sub); err != nil {
		s.logger.Error("failed to store submission", zap.String("submission", sub.ID), zap.Error(err))
	}

	s.logger.Info("audit report generated",
		zap.String("submission", sub.ID),
		zap.String("client", result.Report.Client),
		zap.String("matcher", result.Matcher),
		zap.Int("warnings", len(result.Warnings)))
	return result.Report, nil
}

// SubmitAsync records a pending submission and generates its report in the
// background. Subscribers are notified through the broadcaster when the
// submission becomes ready or fails.
func (s *AuditService) SubmitAsync(ctx context.Context, sessionID string, req *model.AuditRequest) (*model.Submission, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if !s.generator.IsEnabled() {
		return nil, ErrAIUnavailable
	}

	sub := &model.Submission{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Status:    model.SubmissionGenerating,
		InputData: *req,
		CreatedAt: s.now(),
	}
	if err := s.submissions.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("save submission: %w", err)
	}

	pending := *sub
	s.wg.Add(1)
	go s.complete(&pending)

	return sub, nil
}

func (s *AuditService) complete(sub *model.Submission) {
	defer s.wg.Done()

	genCtx, cancelGen := context.WithTimeout(context.Background(), s.asyncTimeout)
	result, err := s.generate(genCtx, &sub.InputData)
	cancelGen()

	// the outcome is stored even when generation used up its deadline
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	msgType := MsgAuditReady
	if err != nil {
		msgType = MsgAuditFailed
		sub.Status = model.SubmissionFailed
		sub.Error = publicMessage(err)
	} else {
		now := s.now()
		sub.Status = model.SubmissionReady
		sub.ReportData = result.Report
		sub.Matcher = result.Matcher
		sub.Warnings = result.Warnings
		sub.ReadyAt = &now
		s.storeSessionReport(ctx, sub.SessionID, result.Report)
	}

	if err := s.submissions.Save(ctx, sub); err != nil {
		s.logger.Error("failed to store submission", zap.String("submission", sub.ID), zap.Error(err))
	}
	s.logger.Info("async audit finished", zap.String("submission", sub.ID), zap.String("status", string(sub.Status)))

	if s.broadcaster != nil {
		s.broadcaster.BroadcastSubmission(sub.ID, msgType, sub)
		s.broadcaster.CloseSubmission(sub.ID)
	}
}

// Wait blocks until background generations have finished
func (s *AuditService) Wait() {
	s.wg.Wait()
}

// GetSubmission returns a submission made from the given session
func (s *AuditService) GetSubmission(ctx context.Context, sessionID, id string) (*model.Submission, error) {
	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.SessionID != sessionID {
		return nil, ErrNotFound
	}
	return sub, nil
}

// ListSubmissions returns the session's most recent submissions
func (s *AuditService) ListSubmissions(ctx context.Context, sessionID string) ([]*model.Submission, error) {
	return s.submissions.ListBySession(ctx, sessionID, sessionHistoryLimit)
}

// GetSessionReport returns the last report generated in the session
func (s *AuditService) GetSessionReport(ctx context.Context, sessionID string) (*model.AuditReport, error) {
	report, err := s.reports.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrNotFound
	}
	return report, nil
}

func (s *AuditService) generate(ctx context.Context, req *model.AuditRequest) (*audit.Result, error) {
	if !s.generator.IsEnabled() {
		s.logger.Error("Gemini API key not configured")
		return nil, ErrAIUnavailable
	}

	prompt := BuildAuditPrompt(req, s.pipeline.Variant(), s.declarationName)
	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("Gemini API error", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	result, err := s.pipeline.Process(raw)
	if err != nil {
		s.logger.Error("failed to extract report data", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrReportFailed, err)
	}
	return result, nil
}

func (s *AuditService) storeSessionReport(ctx context.Context, sessionID string, report *model.AuditReport) {
	if sessionID == "" {
		return
	}
	if err := s.reports.Set(ctx, sessionID, report); err != nil {
		s.logger.Error("failed to store session report", zap.String("session", sessionID), zap.Error(err))
	}
}

func validateRequest(req *model.AuditRequest) error {
	if req == nil {
		return &InputError{Reason: "No data received"}
	}
	if missing := req.MissingFields(); len(missing) > 0 {
		return &InputError{Reason: "Missing required fields", Missing: missing}
	}
	if !isValidURL(req.Website) {
		return &InputError{Reason: "Invalid business URL"}
	}
	return nil
}

func isValidURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && u.Scheme != "" && u.Host != ""
}

// publicMessage is the error text stored on failed submissions
func publicMessage(err error) string {
	switch {
	case errors.Is(err, ErrAIUnavailable):
		return ErrAIUnavailable.Error()
	case errors.Is(err, ErrReportFailed):
		return "Could not generate audit report"
	default:
		return err.Error()
	}
}
