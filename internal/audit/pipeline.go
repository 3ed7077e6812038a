package audit

import (
	"fmt"
	"math"

	"auditapi/internal/model"

	"go.uber.org/zap"
)

// Result is an accepted report plus diagnostics about how it was found
type Result struct {
	Report   *model.AuditReport
	Matcher  string
	Warnings []string
}

// Pipeline runs extraction, normalization and validation over model output
type Pipeline struct {
	cfg        Config
	extractor  *Extractor
	normalizer *Normalizer
	logger     *zap.Logger
}

// New creates a pipeline. A nil logger disables diagnostics.
func New(cfg Config, logger *zap.Logger) *Pipeline {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		extractor:  NewExtractor(cfg.DeclarationName),
		normalizer: NewNormalizer(cfg.LenientRepair),
		logger:     logger.Named("audit"),
	}
}

// Variant returns the schema variant reports are validated against
func (p *Pipeline) Variant() SchemaVariant {
	return p.cfg.Variant
}

// Process returns the first candidate in raw that normalizes and validates.
// When every candidate fails the error is a *FailureError.
func (p *Pipeline) Process(raw string) (*Result, error) {
	var attempts []Attempt
	for c := range p.extractor.Candidates(raw) {
		report, err := p.evaluate(c)
		if err != nil {
			attempts = append(attempts, Attempt{Matcher: c.Matcher, Err: err})
			p.logger.Debug("candidate rejected",
				zap.String("matcher", c.Matcher),
				zap.Int("length", len(c.Text)),
				zap.Error(err))
			continue
		}

		result := &Result{Report: report, Matcher: c.Matcher}
		if w := p.checkWeighting(report); w != "" {
			result.Warnings = append(result.Warnings, w)
			p.logger.Warn("overall score deviates from weighted channel scores", zap.String("detail", w))
		}
		p.logger.Debug("candidate accepted", zap.String("matcher", c.Matcher), zap.Int("rejected", len(attempts)))
		return result, nil
	}

	failure := &FailureError{Attempts: attempts}
	p.logger.Warn("no valid report in model output",
		zap.Int("candidates", len(attempts)),
		zap.Int("length", len(raw)),
		zap.Error(failure))
	return nil, failure
}

func (p *Pipeline) evaluate(c Candidate) (*model.AuditReport, error) {
	var (
		normalized *NormalizedText
		err        error
	)
	if c.Strict {
		normalized, err = p.normalizer.Parse(c.Text)
	} else {
		normalized, err = p.normalizer.Normalize(c.Text)
	}
	if err != nil {
		return nil, err
	}
	return Validate(normalized.Value, p.cfg.Variant)
}

// checkWeighting returns a warning when the reported overall score is
// further than the tolerance from the weighted channel scores
func (p *Pipeline) checkWeighting(r *model.AuditReport) string {
	if p.cfg.ScoreTolerance <= 0 || !p.cfg.Variant.WebsiteScore {
		return ""
	}
	expected := ExpectedOverall(r)
	if math.Abs(r.OverallScore-expected) <= p.cfg.ScoreTolerance {
		return ""
	}
	return fmt.Sprintf("overallScore %g differs from weighted %.1f by more than %g", r.OverallScore, expected, p.cfg.ScoreTolerance)
}
