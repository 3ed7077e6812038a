package config

import (
	"fmt"
	"strconv"

	"auditapi/internal/audit"
)

// ReportConfig controls how model output is turned into reports
type ReportConfig struct {
	SchemaVariant   string
	DeclarationName string
	LenientRepair   bool
	ScoreTolerance  float64
}

// DefaultReportConfig reads REPORT_* variables
func DefaultReportConfig() (ReportConfig, error) {
	lenient, err := strconv.ParseBool(getEnvOrDefault("REPORT_LENIENT_REPAIR", "false"))
	if err != nil {
		return ReportConfig{}, fmt.Errorf("REPORT_LENIENT_REPAIR: %w", err)
	}
	tolerance, err := strconv.ParseFloat(getEnvOrDefault("REPORT_SCORE_TOLERANCE", "10"), 64)
	if err != nil {
		return ReportConfig{}, fmt.Errorf("REPORT_SCORE_TOLERANCE: %w", err)
	}
	rc := ReportConfig{
		SchemaVariant:   getEnvOrDefault("REPORT_SCHEMA_VARIANT", audit.VariantWebsite.Name),
		DeclarationName: getEnvOrDefault("REPORT_DECLARATION_NAME", audit.DefaultDeclarationName),
		LenientRepair:   lenient,
		ScoreTolerance:  tolerance,
	}
	if _, err := audit.VariantByName(rc.SchemaVariant); err != nil {
		return ReportConfig{}, fmt.Errorf("REPORT_SCHEMA_VARIANT: %w", err)
	}
	return rc, nil
}

// PipelineConfig converts the settings into an audit.Config
func (c ReportConfig) PipelineConfig() (audit.Config, error) {
	variant, err := audit.VariantByName(c.SchemaVariant)
	if err != nil {
		return audit.Config{}, err
	}
	return audit.Config{
		Variant:         variant,
		DeclarationName: c.DeclarationName,
		LenientRepair:   c.LenientRepair,
		ScoreTolerance:  c.ScoreTolerance,
	}, nil
}
