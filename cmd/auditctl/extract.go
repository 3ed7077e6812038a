package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"auditapi/internal/audit"
	"auditapi/internal/logging"
	"auditapi/internal/model"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type extractOptions struct {
	format          string
	variant         string
	declarationName string
	lenient         bool
	tolerance       float64
}

// extractOutput is what extract prints for an accepted report
type extractOutput struct {
	Matcher  string             `json:"matcher" yaml:"matcher"`
	Warnings []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Report   *model.AuditReport `json:"report" yaml:"report"`
}

func newExtractCmd() *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract and validate a report from raw model output",
		Long: `Reads raw model output from a file, or stdin when no file is given,
and prints the first candidate that normalizes and validates.
Exits non-zero when no candidate survives.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVar(&opts.variant, "variant", audit.VariantWebsite.Name, "Schema variant: website or legacy")
	cmd.Flags().StringVar(&opts.declarationName, "declaration", audit.DefaultDeclarationName, "Variable name of the declared report")
	cmd.Flags().BoolVar(&opts.lenient, "lenient", false, "Retry failed candidates with jsonrepair")
	cmd.Flags().Float64Var(&opts.tolerance, "tolerance", audit.DefaultScoreTolerance, "Allowed overallScore drift, 0 disables the check")
	return cmd
}

func runExtract(cmd *cobra.Command, args []string, opts *extractOptions) error {
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("unknown format %q", opts.format)
	}
	variant, err := audit.VariantByName(opts.variant)
	if err != nil {
		return err
	}

	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return err
	}
	logger, err := logging.NewConsole(debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	raw, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	p := audit.New(audit.Config{
		Variant:         variant,
		DeclarationName: opts.declarationName,
		LenientRepair:   opts.lenient,
		ScoreTolerance:  opts.tolerance,
	}, logger)

	res, err := p.Process(raw)
	if err != nil {
		var failure *audit.FailureError
		if errors.As(err, &failure) {
			for _, a := range failure.Attempts {
				logger.Warn("candidate rejected", zap.String("matcher", a.Matcher), zap.Error(a.Err))
			}
		}
		return err
	}

	out := extractOutput{Matcher: res.Matcher, Warnings: res.Warnings, Report: res.Report}
	w := cmd.OutOrStdout()
	if opts.format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(out)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}
