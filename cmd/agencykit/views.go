package main

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/kestrelworks/agencykit"
	"github.com/kestrelworks/agencykit/markdown"
)

// defaultViews builds an unstyled reference theme. It renders every
// public page as plain semantic HTML so the binary works out of the
// box; anyone shipping a real site should replace these.
func defaultViews(cfg agencykit.SiteConfig) agencykit.ViewFuncs {
	return agencykit.ViewFuncs{
		Home: func(projects []agencykit.Project, posts []agencykit.BlogPost, siteURL string) templ.Component {
			return page(cfg, cfg.Name, func(w io.Writer) {
				fmt.Fprintf(w, "<h1>%s</h1><p>%s</p>", esc(cfg.Name), esc(cfg.Description))
				fmt.Fprint(w, "<h2>Recent Work</h2>")
				projectList(w, projects)
				fmt.Fprint(w, "<h2>From the Blog</h2>")
				postList(w, posts)
			})
		},
		Work: func(projects []agencykit.Project) templ.Component {
			return page(cfg, "Work", func(w io.Writer) {
				fmt.Fprint(w, "<h1>Work</h1>")
				projectList(w, projects)
			})
		},
		Project: func(p agencykit.Project, siteURL string) templ.Component {
			return page(cfg, p.Name, func(w io.Writer) {
				fmt.Fprintf(w, "<h1>%s</h1><p>%s</p>", esc(p.Name), esc(p.ShortDescription))
				if p.WhatSpecial != "" {
					fmt.Fprintf(w, "<h2>What Makes It Special</h2><p>%s</p>", esc(p.WhatSpecial))
				}
				markdownBody(w, p.LongDescription)
				if p.URL != "" {
					fmt.Fprintf(w, `<p><a href="%s">Visit project</a></p>`, esc(p.URL))
				}
			})
		},
		Blog: func(posts []agencykit.BlogPost, featured *agencykit.BlogPost) templ.Component {
			return page(cfg, "Blog", func(w io.Writer) {
				fmt.Fprint(w, "<h1>Blog</h1>")
				if featured != nil {
					fmt.Fprintf(w, `<section><h2>Featured</h2><a href="/blog/%s">%s</a><p>%s</p></section>`,
						esc(featured.Slug), esc(featured.Title), esc(featured.Teaser))
				}
				postList(w, posts)
			})
		},
		Post: func(p agencykit.BlogPost, recent []agencykit.BlogPost, siteURL string) templ.Component {
			return page(cfg, p.Title, func(w io.Writer) {
				fmt.Fprintf(w, `<script type="application/ld+json">%s</script>`, agencykit.BlogPostingJsonLD(p, cfg))
				fmt.Fprintf(w, "<article><h1>%s</h1>", esc(p.Title))
				markdownBody(w, p.Content)
				fmt.Fprint(w, "</article>")
				if len(recent) > 0 {
					fmt.Fprint(w, "<h2>Recent Posts</h2>")
					postList(w, recent)
				}
			})
		},
		Contact: func(form agencykit.Message, errs agencykit.FieldErrors, alert, notice, csrfToken string) templ.Component {
			return page(cfg, "Contact", func(w io.Writer) {
				fmt.Fprint(w, "<h1>Contact</h1>")
				flash(w, alert, notice)
				fmt.Fprint(w, `<form method="post" action="/contact/">`)
				csrf(w, csrfToken)
				textField(w, "name", "Name", form.Name, errs)
				textField(w, "email", "Email", form.Email, errs)
				textField(w, "subject", "Subject", form.Subject, errs)
				textArea(w, "content", "Message", form.Content, errs)
				fmt.Fprint(w, `<button type="submit">Send</button></form>`)
			})
		},
		Proposal: func(form agencykit.ProposalRequest, errs agencykit.FieldErrors, alert, notice, csrfToken string) templ.Component {
			return page(cfg, "Start a Project", func(w io.Writer) {
				fmt.Fprint(w, "<h1>Start a Project</h1>")
				flash(w, alert, notice)
				fmt.Fprint(w, `<form method="post" action="/free-proposal/">`)
				csrf(w, csrfToken)
				textField(w, "name", "Name", form.Name, errs)
				textField(w, "email", "Email", form.Email, errs)
				textField(w, "company", "Company", form.Company, errs)
				textField(w, "phone", "Phone", form.Phone, errs)
				selectField(w, "project_type", "Project Type", form.ProjectType, agencykit.ProjectTypes, errs)
				selectField(w, "budget_range", "Budget", form.BudgetRange, agencykit.BudgetRanges, errs)
				selectField(w, "timeline", "Timeline", form.Timeline, agencykit.Timelines, errs)
				textArea(w, "project_description", "Tell us about the project", form.ProjectDescription, errs)
				textField(w, "existing_website", "Existing Website", form.ExistingWebsite, errs)
				textArea(w, "target_audience", "Target Audience", form.TargetAudience, errs)
				textArea(w, "special_requirements", "Special Requirements", form.SpecialRequirements, errs)
				fmt.Fprint(w, `<button type="submit">Request a Proposal</button></form>`)
			})
		},
		AdminLogin: func(showError bool, csrfToken string) templ.Component {
			return page(cfg, "Admin Login", func(w io.Writer) {
				fmt.Fprint(w, "<h1>Admin Login</h1>")
				if showError {
					fmt.Fprint(w, `<p role="alert">Invalid password.</p>`)
				}
				fmt.Fprint(w, `<form method="post" action="/admin/login/">`)
				csrf(w, csrfToken)
				fmt.Fprint(w, `<label>Password <input type="password" name="password"/></label>`)
				fmt.Fprint(w, `<button type="submit">Log in</button></form>`)
			})
		},
		AdminDashboard: func(csrfToken string) templ.Component {
			return page(cfg, "Admin", func(w io.Writer) {
				fmt.Fprint(w, "<h1>Admin</h1>")
				fmt.Fprintf(w, `<meta name="csrf-token" content="%s"/>`, esc(csrfToken))
				fmt.Fprint(w, `<p>Manage content through the JSON endpoints under /admin/api/.</p>`)
				fmt.Fprint(w, `<form method="post" action="/admin/logout/">`)
				csrf(w, csrfToken)
				fmt.Fprint(w, `<button type="submit">Log out</button></form>`)
			})
		},
		NotFound: func() templ.Component {
			return page(cfg, "Not Found", func(w io.Writer) {
				fmt.Fprint(w, `<h1>Page not found</h1><p><a href="/">Back home</a></p>`)
			})
		},
		ServerError: func() templ.Component {
			return page(cfg, "Something went wrong", func(w io.Writer) {
				fmt.Fprint(w, `<h1>Something went wrong</h1><p>Please try again shortly.</p>`)
			})
		},
	}
}

func page(cfg agencykit.SiteConfig, title string, body func(io.Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"/><meta name="viewport" content="width=device-width, initial-scale=1"/><title>%s</title></head><body>`, esc(title))
		fmt.Fprint(w, `<nav><a href="/">Home</a> <a href="/work/">Work</a> <a href="/blog/">Blog</a> <a href="/contact/">Contact</a> <a href="/free-proposal/">Start a Project</a></nav>`)
		body(w)
		fmt.Fprintf(w, `<footer><p>&copy; %s</p></footer></body></html>`, esc(cfg.Name))
		return nil
	})
}

func projectList(w io.Writer, projects []agencykit.Project) {
	fmt.Fprint(w, "<ul>")
	for _, p := range projects {
		fmt.Fprintf(w, `<li><a href="/work/%s">%s</a> %s</li>`, esc(p.Slug), esc(p.Name), esc(p.ShortDescription))
	}
	fmt.Fprint(w, "</ul>")
}

func postList(w io.Writer, posts []agencykit.BlogPost) {
	fmt.Fprint(w, "<ul>")
	for _, p := range posts {
		fmt.Fprintf(w, `<li><a href="/blog/%s">%s</a> %s</li>`, esc(p.Slug), esc(p.Title), esc(p.Teaser))
	}
	fmt.Fprint(w, "</ul>")
}

func markdownBody(w io.Writer, md string) {
	if strings.TrimSpace(md) == "" {
		return
	}
	_ = markdown.Content(md).Render(context.Background(), w)
}

func flash(w io.Writer, alert, notice string) {
	if alert != "" {
		fmt.Fprintf(w, `<p role="alert">%s</p>`, esc(alert))
	}
	if notice != "" {
		fmt.Fprintf(w, `<p role="status">%s</p>`, esc(notice))
	}
}

func csrf(w io.Writer, token string) {
	fmt.Fprintf(w, `<input type="hidden" name="_csrf" value="%s"/>`, esc(token))
}

func textField(w io.Writer, name, label, value string, errs agencykit.FieldErrors) {
	fmt.Fprintf(w, `<label>%s <input type="text" name="%s" value="%s"/></label>`, esc(label), name, esc(value))
	fieldErrors(w, name, errs)
}

func textArea(w io.Writer, name, label, value string, errs agencykit.FieldErrors) {
	fmt.Fprintf(w, `<label>%s <textarea name="%s">%s</textarea></label>`, esc(label), name, esc(value))
	fieldErrors(w, name, errs)
}

func selectField(w io.Writer, name, label, value string, options []string, errs agencykit.FieldErrors) {
	fmt.Fprintf(w, `<label>%s <select name="%s">`, esc(label), name)
	fmt.Fprint(w, `<option value=""></option>`)
	for _, opt := range options {
		selected := ""
		if opt == value {
			selected = ` selected`
		}
		fmt.Fprintf(w, `<option value="%s"%s>%s</option>`, esc(opt), selected, esc(opt))
	}
	fmt.Fprint(w, `</select></label>`)
	fieldErrors(w, name, errs)
}

func fieldErrors(w io.Writer, name string, errs agencykit.FieldErrors) {
	for _, msg := range errs[name] {
		fmt.Fprintf(w, `<p role="alert">%s</p>`, esc(msg))
	}
}

func esc(s string) string { return html.EscapeString(s) }
