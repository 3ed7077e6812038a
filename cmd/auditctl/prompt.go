package main

import (
	"fmt"

	"auditapi/internal/audit"
	"auditapi/internal/model"
	"auditapi/internal/service"

	"github.com/spf13/cobra"
)

func newPromptCmd() *cobra.Command {
	var (
		req             model.AuditRequest
		variant         string
		declarationName string
	)
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the generation prompt for a business profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := audit.VariantByName(variant)
			if err != nil {
				return err
			}
			if missing := req.MissingFields(); len(missing) > 0 {
				return fmt.Errorf("missing required flags: %v", missing)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), service.BuildAuditPrompt(&req, v, declarationName))
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Website, "website", "", "Business website URL")
	f.StringVar(&req.Email, "email", "", "Contact email")
	f.StringVar(&req.ContactNumber, "contact-number", "", "Contact phone number")
	f.StringVar(&req.BusinessCategory, "category", "", "Business category")
	f.StringVar(&req.CategoryHint, "category-hint", "", "Free-text category hint")
	f.StringVar(&req.OwnerName, "owner", "", "Owner name")
	f.StringVar(&req.Instagram, "instagram", "", "Instagram handle")
	f.StringVar(&req.Facebook, "facebook", "", "Facebook page")
	f.StringVar(&variant, "variant", audit.VariantWebsite.Name, "Schema variant: website or legacy")
	f.StringVar(&declarationName, "declaration", audit.DefaultDeclarationName, "Variable name the model is asked to declare")
	return cmd
}
