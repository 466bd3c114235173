package agencykit

import (
	"net/mail"
	"net/url"
	"strings"
)

// FieldErrors maps a field name to its validation messages. A nil or
// empty map means the record is valid.
type FieldErrors map[string][]string

func (e FieldErrors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Any reports whether at least one field failed validation.
func (e FieldErrors) Any() bool {
	return len(e) > 0
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	// ParseAddress accepts "Name <a@b>" forms; submissions must be the
	// bare address.
	return err == nil && addr.Address == s
}

func validHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

const (
	msgBlank     = "can't be blank"
	msgBadEmail  = "is not a valid email address"
	msgBadURL    = "must be a valid http or https URL"
	msgBadStatus = "is not a recognized status"
)

// Validate checks required fields and URL syntax for a project.
func (p Project) Validate() FieldErrors {
	errs := FieldErrors{}
	if blank(p.Name) {
		errs.add("name", msgBlank)
	}
	if blank(p.ShortDescription) {
		errs.add("short_description", msgBlank)
	}
	if blank(p.WhatSpecial) {
		errs.add("what_special", msgBlank)
	}
	if blank(p.LongDescription) {
		errs.add("long_description", msgBlank)
	}
	if blank(p.URL) {
		errs.add("url", msgBlank)
	} else if !validHTTPURL(p.URL) {
		errs.add("url", msgBadURL)
	}
	return errs
}

// Validate checks required fields for a blog post.
func (p BlogPost) Validate() FieldErrors {
	errs := FieldErrors{}
	if blank(p.Title) {
		errs.add("title", msgBlank)
	}
	if blank(p.Teaser) {
		errs.add("teaser", msgBlank)
	}
	if blank(p.Content) {
		errs.add("content", msgBlank)
	}
	return errs
}

// Validate checks required fields and email syntax for a message.
func (m Message) Validate() FieldErrors {
	errs := FieldErrors{}
	if blank(m.Name) {
		errs.add("name", msgBlank)
	}
	if blank(m.Email) {
		errs.add("email", msgBlank)
	} else if !validEmail(m.Email) {
		errs.add("email", msgBadEmail)
	}
	if blank(m.Subject) {
		errs.add("subject", msgBlank)
	}
	if blank(m.Content) {
		errs.add("content", msgBlank)
	}
	return errs
}

// Validate checks required fields and email syntax for a proposal
// request.
func (p ProposalRequest) Validate() FieldErrors {
	errs := FieldErrors{}
	if blank(p.Name) {
		errs.add("name", msgBlank)
	}
	if blank(p.Email) {
		errs.add("email", msgBlank)
	} else if !validEmail(p.Email) {
		errs.add("email", msgBadEmail)
	}
	if blank(p.ProjectDescription) {
		errs.add("project_description", msgBlank)
	}
	if blank(p.ProjectType) {
		errs.add("project_type", msgBlank)
	}
	if blank(p.BudgetRange) {
		errs.add("budget_range", msgBlank)
	}
	if blank(p.Timeline) {
		errs.add("timeline", msgBlank)
	}
	return errs
}
