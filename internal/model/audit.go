package model

import "time"

// AuditReport is the validated business audit produced from a model reply.
// Field order is part of the output contract: the frontend renders the
// record in exactly this order.
type AuditReport struct {
	Client           string   `json:"client" bson:"client" yaml:"client"`
	BusinessOverview string   `json:"businessoverview" bson:"businessoverview" yaml:"businessoverview"`
	InstagramSummary string   `json:"instagramSummary" bson:"instagramSummary" yaml:"instagramSummary"` // may be "Not found"
	FacebookSummary  string   `json:"facebookSummary" bson:"facebookSummary" yaml:"facebookSummary"`    // may be "Not found"
	InstagramScore   float64  `json:"instagramScore" bson:"instagramScore" yaml:"instagramScore"`       // 60-100
	FacebookScore    float64  `json:"facebookScore" bson:"facebookScore" yaml:"facebookScore"`          // 60-100
	WebsiteScore     *float64 `json:"websiteScore,omitempty" bson:"websiteScore,omitempty" yaml:"websiteScore,omitempty"`
	OverallScore     float64  `json:"overallScore" bson:"overallScore" yaml:"overallScore"` // 0-100, weighted
	BusinessSummary  string   `json:"businesssummary" bson:"businesssummary" yaml:"businesssummary"`
	Insights         []string `json:"insights" bson:"insights" yaml:"insights"`
	Tips             []string `json:"tips" bson:"tips" yaml:"tips"`
}

// AuditRequest is the business profile submitted from the audit form
type AuditRequest struct {
	Website          string `json:"website" bson:"website"`
	Email            string `json:"email" bson:"email"`
	ContactNumber    string `json:"contactNumber" bson:"contactNumber"`
	BusinessCategory string `json:"businessCategory,omitempty" bson:"businessCategory,omitempty"`
	CategoryHint     string `json:"categoryHint,omitempty" bson:"categoryHint,omitempty"`
	OwnerName        string `json:"ownerName,omitempty" bson:"ownerName,omitempty"`
	Instagram        string `json:"instagram,omitempty" bson:"instagram,omitempty"`
	Facebook         string `json:"facebook,omitempty" bson:"facebook,omitempty"`
}

// MissingFields returns the names of required form fields left empty
func (r *AuditRequest) MissingFields() []string {
	missing := []string{}
	if r.Website == "" {
		missing = append(missing, "website")
	}
	if r.Email == "" {
		missing = append(missing, "email")
	}
	if r.ContactNumber == "" {
		missing = append(missing, "contactNumber")
	}
	return missing
}

type SubmissionStatus string

const (
	SubmissionGenerating SubmissionStatus = "generating"
	SubmissionReady      SubmissionStatus = "ready"
	SubmissionFailed     SubmissionStatus = "failed"
)

// Submission is the document stored per audit request (input + generated report)
type Submission struct {
	ID         string           `json:"id" bson:"_id"`
	SessionID  string           `json:"-" bson:"sessionId"`
	Status     SubmissionStatus `json:"status" bson:"status"`
	InputData  AuditRequest     `json:"inputData" bson:"inputData"`
	ReportData *AuditReport     `json:"reportData,omitempty" bson:"reportData,omitempty"`
	Matcher    string           `json:"-" bson:"matcher,omitempty"` // extraction strategy that produced the report
	Warnings   []string         `json:"warnings,omitempty" bson:"warnings,omitempty"`
	Error      string           `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt  time.Time        `json:"createdAt" bson:"createdAt"`
	ReadyAt    *time.Time       `json:"readyAt,omitempty" bson:"readyAt,omitempty"`
}
