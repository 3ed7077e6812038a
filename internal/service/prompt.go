package service

import (
	"fmt"
	"strings"

	"auditapi/internal/audit"
	"auditapi/internal/model"
)

// BuildAuditPrompt renders the audit prompt for a request. The score lines
// and the reply template follow the schema variant reports are checked
// against.
func BuildAuditPrompt(req *model.AuditRequest, variant audit.SchemaVariant, declarationName string) string {
	if declarationName == "" {
		declarationName = audit.DefaultDeclarationName
	}

	var extra strings.Builder
	for _, line := range []struct{ label, value string }{
		{"Business Category", req.BusinessCategory},
		{"Category Hint", req.CategoryHint},
		{"Owner Name", req.OwnerName},
		{"Instagram Handle", req.Instagram},
		{"Facebook Page", req.Facebook},
	} {
		if v := strings.TrimSpace(line.value); v != "" {
			fmt.Fprintf(&extra, "- %s: %s\n", line.label, v)
		}
	}

	scoreLines := "  instagramScore: <number>,\n  facebookScore: <number>,\n  overallScore: <average>,"
	jsonScores := "  \"instagramScore\": 0,\n  \"facebookScore\": 0,\n  \"overallScore\": 0,"
	weighting := "overallScore is the average of the channel scores."
	if variant.WebsiteScore {
		scoreLines = "  instagramScore: <number>,\n  facebookScore: <number>,\n  websiteScore: <number or null>,\n  overallScore: <weighted>,"
		jsonScores = "  \"instagramScore\": 0,\n  \"facebookScore\": 0,\n  \"websiteScore\": 0,\n  \"overallScore\": 0,"
		weighting = "overallScore weighs the website 50%, Instagram 25% and Facebook 25%. If the website cannot be assessed, set websiteScore to null; overallScore is then the average of instagramScore and facebookScore, halved to reflect the missing website."
	}
	items := variant.MinListItems

	return fmt.Sprintf(`You are a digital marketing audit expert working for the Createlo brand. Your goal is to analyze a business's website and provide insights and actionable next steps that highlight opportunities and encourage engagement with Createlo's services.
Business Data:
- URL: %s
- Email: %s
- Phone: %s
%s
Generate a detailed audit report with the following structure:

const %s = {
  // Basic business info inferred from website
  client: "<Business name>",
  businessoverview: "<1-2 sentence overview>",

  // Social media analysis, "Not found" when a channel does not exist
  instagramSummary: "<analysis>",
  facebookSummary: "<analysis>",

  // Channel scores (60-100 range)
%s

  // Combined summary
  businesssummary: "<10-sentence summary>",

  // Marketing insights (at least %d items)
  insights: ["<specific insight>", ...],

  // Actionable tips derived from the insights, each leading to a Createlo service (at least %d items)
  tips: ["<specific tip mentioning Createlo service>", ...]
};

IMPORTANT:

1. Maintain EXACT field order as shown above
2. Channel scores must be between 60 and 100
3. %s
4. Tips should reference Createlo services
5. Make reasonable assumptions for missing info

Respond ONLY with valid JSON in this exact format:

{
  "client": "...",
  "businessoverview": "...",
  "instagramSummary": "...",
  "facebookSummary": "...",
%s
  "businesssummary": "...",
  "insights": ["...", "..."],
  "tips": ["...", "..."]
}

No additional text, comments, or explanations.`,
		req.Website, req.Email, req.ContactNumber, extra.String(),
		declarationName, scoreLines, items, items, weighting, jsonScores)
}
