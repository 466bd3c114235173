package agencykit

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Admin API representations: stored fields plus computed ones. Each is
// built by a pure function so handlers never reach back into entities.

// ProjectAdmin is the admin JSON shape for a project.
type ProjectAdmin struct {
	Project
	ImageURL *string `json:"image_url"`
}

// BlogPostAdmin is the admin JSON shape for a blog post.
type BlogPostAdmin struct {
	BlogPost
	FeaturedImageURL *string `json:"featured_image_url"`
	EditURL          string  `json:"edit_url"`
	PublicURL        string  `json:"public_url"`
	Status           string  `json:"status"`
}

// ProposalAdmin is the admin JSON shape for a proposal request.
type ProposalAdmin struct {
	ProposalRequest
	StatusDisplay      string `json:"status_display"`
	ShortDescription   string `json:"short_description"`
	CreatedAtFormatted string `json:"created_at_formatted"`
	PriorityScore      int    `json:"priority_score"`
}

// AdminProject projects a stored project for the admin API.
func AdminProject(p Project, imageURL *string) ProjectAdmin {
	return ProjectAdmin{Project: p, ImageURL: imageURL}
}

// AdminBlogPost projects a stored post for the admin API.
func AdminBlogPost(p BlogPost, featuredImageURL *string) BlogPostAdmin {
	status := "Draft"
	if p.Published {
		status = "Published"
	}
	public := p.Slug
	if public == "" {
		public = fmt.Sprintf("%d", p.ID)
	}
	return BlogPostAdmin{
		BlogPost:         p,
		FeaturedImageURL: featuredImageURL,
		EditURL:          fmt.Sprintf("/admin/api/posts/%d", p.ID),
		PublicURL:        "/blog/" + public,
		Status:           status,
	}
}

// AdminProposal projects a stored proposal for the admin API, adding the
// derived review fields.
func AdminProposal(p ProposalRequest) ProposalAdmin {
	return ProposalAdmin{
		ProposalRequest:    p,
		StatusDisplay:      humanize(p.Status),
		ShortDescription:   truncateDescription(p.ProjectDescription),
		CreatedAtFormatted: p.CreatedAt.Format("January 02, 2006 at 3:04 PM"),
		PriorityScore:      p.PriorityScore(),
	}
}

// truncateDescription shortens text to a list-friendly preview: anything
// over 100 characters becomes the first 98 plus an ellipsis. Counted in
// runes so multibyte text is never split.
func truncateDescription(s string) string {
	if utf8.RuneCountInString(s) <= 100 {
		return s
	}
	runes := []rune(s)
	return string(runes[:98]) + "..."
}

// humanize capitalizes a status value for display ("won" -> "Won").
func humanize(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	first := runes[0]
	if first >= 'a' && first <= 'z' {
		first -= 'a' - 'A'
	}
	return string(first) + string(runes[1:])
}

// formatFeedTime renders a publication timestamp for RSS.
func formatFeedTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC1123Z)
}
