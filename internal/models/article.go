// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ArticleStatus represents the publishing state of an article.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
)

// Valid reports whether s is a known status.
func (s ArticleStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Difficulty is the optional problem difficulty shown in the article header.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Difficulties lists the selectable difficulties in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Article is a study note made of an ordered sequence of blocks.
// Slugs are unique across all articles regardless of category.
type Article struct {
	ID              uuid.UUID     `json:"id"`
	Title           string        `json:"title"`
	Subtitle        *string       `json:"subtitle"`
	Slug            string        `json:"slug"`
	CategoryID      uuid.UUID     `json:"categoryId"`
	Difficulty      *Difficulty   `json:"difficulty"`
	TimeComplexity  *string       `json:"timeComplexity"`
	SpaceComplexity *string       `json:"spaceComplexity"`
	Approach        *string       `json:"approach"`
	Blocks          Blocks        `json:"blocks"`
	Status          ArticleStatus `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`

	// Category is populated by list and lookup queries, with its parent.
	Category *Category `json:"category,omitempty"`
}

// IsPublished returns true if the article is visible to anonymous readers.
func (a *Article) IsPublished() bool {
	return a.Status == StatusPublished
}

// Path returns the public URL of the article. The category (and its parent,
// for subcategories) must be loaded; otherwise the bare slug path is used.
func (a *Article) Path() string {
	if a.Category == nil {
		return "/" + a.Slug
	}
	return a.Category.Path() + "/" + a.Slug
}

// ArticleSummary is the list form of an article used on category pages
// and in category API responses. It omits the block sequence.
type ArticleSummary struct {
	ID              uuid.UUID     `json:"id"`
	Title           string        `json:"title"`
	Subtitle        *string       `json:"subtitle"`
	Slug            string        `json:"slug"`
	Difficulty      *Difficulty   `json:"difficulty"`
	TimeComplexity  *string       `json:"timeComplexity"`
	SpaceComplexity *string       `json:"spaceComplexity"`
	Status          ArticleStatus `json:"status"`
	CategoryID      uuid.UUID     `json:"categoryId"`
	CreatedAt       time.Time     `json:"createdAt"`

	// CategoryPath is the public path of the owning category.
	CategoryPath string `json:"-"`
}

// Path returns the public URL of the summarized article.
func (s ArticleSummary) Path() string {
	return s.CategoryPath + "/" + s.Slug
}

// ArticleStats holds the dashboard counters.
type ArticleStats struct {
	Total     int
	Published int
	Drafts    int
}
