// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"studynotes/internal/models"
)

// Validation limits for category and article fields.
const (
	maxNameLen        = 100
	maxTitleLen       = 300
	maxSlugLen        = 200
	maxDescriptionLen = 1_000
)

// slugPattern matches lowercase URL slugs such as "two-sum".
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// validateCategory checks category fields and returns the first error found.
func validateCategory(name, slug, description string) string {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(slug) == "" {
		return "Name and slug are required"
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 100 characters)"
	}
	if msg := validateSlug(slug); msg != "" {
		return msg
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return "Description is too long (max 1,000 characters)"
	}
	return ""
}

// validateArticle checks article fields and returns the first error found.
func validateArticle(a *models.Article) string {
	if strings.TrimSpace(a.Title) == "" {
		return "Title is required"
	}
	if utf8.RuneCountInString(a.Title) > maxTitleLen {
		return "Title is too long (max 300 characters)"
	}
	if msg := validateSlug(a.Slug); msg != "" {
		return msg
	}
	if !a.Status.Valid() {
		return "Status must be draft or published"
	}
	if a.Difficulty != nil && !a.Difficulty.Valid() {
		return "Difficulty must be Easy, Medium, or Hard"
	}
	for _, f := range []*string{a.Subtitle, a.TimeComplexity, a.SpaceComplexity, a.Approach} {
		if f != nil && utf8.RuneCountInString(*f) > maxTitleLen {
			return "Optional fields are limited to 300 characters"
		}
	}
	return ""
}

// validateSlug checks that s is a well-formed slug.
func validateSlug(s string) string {
	if utf8.RuneCountInString(s) > maxSlugLen {
		return "Slug is too long (max 200 characters)"
	}
	if !slugPattern.MatchString(s) {
		return "Slug may only contain lowercase letters, numbers and hyphens"
	}
	return ""
}

// nonEmpty returns a pointer to the trimmed s, or nil when it is blank.
func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
