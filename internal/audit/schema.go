package audit

import "fmt"

// Score bounds shared by every schema variant
const (
	ChannelScoreMin = 60.0
	ScoreMax        = 100.0
	OverallScoreMin = 0.0
)

// DefaultDeclarationName is the variable the prompt asks the model to assign
const DefaultDeclarationName = "reportData"

// DefaultScoreTolerance is how far overallScore may drift from the weighted
// channel scores before a warning is recorded
const DefaultScoreTolerance = 10.0

// SchemaVariant describes one accepted AuditReport shape
type SchemaVariant struct {
	Name         string
	WebsiteScore bool // websiteScore is part of the schema (optional, may be null)
	MinListItems int  // minimum length of insights and tips
}

var (
	// VariantWebsite is the current prompt contract
	VariantWebsite = SchemaVariant{Name: "website", WebsiteScore: true, MinListItems: 3}

	// VariantLegacy is the original contract without a website score
	VariantLegacy = SchemaVariant{Name: "legacy", WebsiteScore: false, MinListItems: 2}
)

// VariantByName resolves a configured variant name
func VariantByName(name string) (SchemaVariant, error) {
	switch name {
	case "", VariantWebsite.Name:
		return VariantWebsite, nil
	case VariantLegacy.Name:
		return VariantLegacy, nil
	default:
		return SchemaVariant{}, fmt.Errorf("unknown schema variant %q", name)
	}
}

// Config is passed to New; the pipeline never reads process environment
type Config struct {
	Variant         SchemaVariant
	DeclarationName string  // variable name matched by the declaration matcher
	LenientRepair   bool    // retry failed candidates through jsonrepair
	ScoreTolerance  float64 // <= 0 disables the weighting check
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		Variant:         VariantWebsite,
		DeclarationName: DefaultDeclarationName,
		ScoreTolerance:  DefaultScoreTolerance,
	}
}

func (c Config) withDefaults() Config {
	if c.Variant.MinListItems == 0 && c.Variant.Name == "" {
		c.Variant = VariantWebsite
	}
	if c.DeclarationName == "" {
		c.DeclarationName = DefaultDeclarationName
	}
	return c
}
