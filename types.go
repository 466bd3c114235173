package agencykit

import "time"

// Project is a portfolio entry shown on the work pages. The slug is
// derived from Name and stays stable unless the name changes.
type Project struct {
	ID               int64     `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	ShortDescription string    `db:"short_description" json:"short_description"`
	WhatSpecial      string    `db:"what_special" json:"what_special"`
	LongDescription  string    `db:"long_description" json:"long_description"`
	URL              string    `db:"url" json:"url"`
	Published        bool      `db:"published" json:"published"`
	Slug             string    `db:"slug" json:"slug"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// BlogPost is the written content type. PublishedAt is owned by the
// publication rules in the store: it is set exactly once when a post
// first goes live and cleared when the post returns to draft.
type BlogPost struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Teaser      string     `db:"teaser" json:"teaser"`
	Content     string     `db:"content" json:"content"`
	Published   bool       `db:"published" json:"published"`
	PublishedAt *time.Time `db:"published_at" json:"published_at"`
	Featured    bool       `db:"featured" json:"featured"`
	Slug        string     `db:"slug" json:"slug"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Message is an inbound contact-form submission.
type Message struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Subject   string    `db:"subject" json:"subject"`
	Content   string    `db:"content" json:"content"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ProposalRequest is a proposal-intake submission from the public form.
// Status and InternalNotes are the only admin-mutable fields.
type ProposalRequest struct {
	ID                  int64     `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	Email               string    `db:"email" json:"email"`
	Company             string    `db:"company" json:"company"`
	Phone               string    `db:"phone" json:"phone"`
	ProjectType         string    `db:"project_type" json:"project_type"`
	BudgetRange         string    `db:"budget_range" json:"budget_range"`
	Timeline            string    `db:"timeline" json:"timeline"`
	ProjectDescription  string    `db:"project_description" json:"project_description"`
	ExistingWebsite     string    `db:"existing_website" json:"existing_website"`
	TargetAudience      string    `db:"target_audience" json:"target_audience"`
	SpecialRequirements string    `db:"special_requirements" json:"special_requirements"`
	WhyCustom           string    `db:"why_custom" json:"why_custom"`
	SuccessMetrics      string    `db:"success_metrics" json:"success_metrics"`
	Status              string    `db:"status" json:"status"`
	InternalNotes       string    `db:"internal_notes" json:"internal_notes"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// Proposal statuses, in lifecycle order.
const (
	StatusSubmitted = "submitted"
	StatusReviewed  = "reviewed"
	StatusQuoted    = "quoted"
	StatusWon       = "won"
	StatusLost      = "lost"
)

// ProposalStatuses lists every valid status value.
var ProposalStatuses = []string{StatusSubmitted, StatusReviewed, StatusQuoted, StatusWon, StatusLost}

// ValidProposalStatus reports whether s is a known status value.
func ValidProposalStatus(s string) bool {
	for _, v := range ProposalStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Options offered on the proposal form. The scoring below keys off
// specific entries, so these lists are part of the contract.
var (
	ProjectTypes = []string{
		"Custom Web App",
		"E-commerce Site",
		"Membership Platform",
		"iPhone App",
		"API Development",
		"Not Sure Yet",
	}
	BudgetRanges = []string{
		"Under $10k",
		"$10k-25k",
		"$25k-50k",
		"$50k+",
		"Let's discuss",
	}
	Timelines = []string{
		"ASAP",
		"1-2 months",
		"3-6 months",
		"6+ months",
		"Flexible",
	}
)

// PriorityScore derives an urgency ranking (0-7) from the categorical
// intake fields. It is recomputed at read time rather than stored, so
// rule changes apply retroactively to old proposals.
func (p ProposalRequest) PriorityScore() int {
	score := 0
	if p.BudgetRange == "$25k-50k" || p.BudgetRange == "$50k+" {
		score += 3
	}
	if p.Timeline == "ASAP" || p.Timeline == "1-2 months" {
		score += 2
	}
	if p.ProjectType != "Not Sure Yet" {
		score++
	}
	if p.Company != "" {
		score++
	}
	return score
}

// applyPublication reconciles the published flag with PublishedAt.
// prior is the timestamp currently stored for the post (nil on create).
// Going live stamps the current time exactly once; re-saving an already
// published post keeps the original timestamp; unpublishing clears it.
func (p *BlogPost) applyPublication(prior *time.Time, now time.Time) {
	switch {
	case !p.Published:
		p.PublishedAt = nil
	case prior != nil:
		p.PublishedAt = prior
	default:
		t := now.UTC()
		p.PublishedAt = &t
	}
}
