// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups articles. Categories nest at most one level: a category
// with a ParentID is a subcategory and can never be a parent itself.
type Category struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Icon        Icon       `json:"icon"`
	BgColor     string     `json:"bgColor"`
	TextColor   string     `json:"textColor"`
	IconColor   string     `json:"iconColor"`
	Order       int        `json:"order"`
	ParentID    *uuid.UUID `json:"parentId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// Virtual fields populated by store methods.
	Parent         *Category        `json:"parent,omitempty"`
	Children       []Category       `json:"children,omitempty"`
	Articles       []ArticleSummary `json:"articles,omitempty"`
	ArticleCount   int              `json:"articleCount"`
	PublishedCount int              `json:"-"`
}

// IsTopLevel reports whether the category has no parent.
func (c Category) IsTopLevel() bool {
	return c.ParentID == nil
}

// TotalPublished returns the published article count of the category plus
// the counts of its loaded children.
func (c Category) TotalPublished() int {
	total := c.PublishedCount
	for _, child := range c.Children {
		total += child.PublishedCount
	}
	return total
}

// Path returns the URL path of the category page. The parent must be
// loaded for subcategories.
func (c Category) Path() string {
	if c.Parent != nil {
		return "/" + c.Parent.Slug + "/" + c.Slug
	}
	return "/" + c.Slug
}

// ColorPreset is a named set of Tailwind classes for the three category color roles.
type ColorPreset struct {
	Name      string
	BgColor   string
	TextColor string
	IconColor string
}

// ColorPresets are offered by the admin category form.
var ColorPresets = []ColorPreset{
	{"Blue", "bg-blue-50", "text-blue-700", "text-blue-600"},
	{"Green", "bg-green-50", "text-green-700", "text-green-600"},
	{"Purple", "bg-purple-50", "text-purple-700", "text-purple-600"},
	{"Teal", "bg-teal-50", "text-teal-700", "text-teal-600"},
	{"Indigo", "bg-indigo-50", "text-indigo-700", "text-indigo-600"},
	{"Pink", "bg-pink-50", "text-pink-700", "text-pink-600"},
	{"Orange", "bg-orange-50", "text-orange-700", "text-orange-600"},
	{"Yellow", "bg-yellow-50", "text-yellow-700", "text-yellow-600"},
	{"Red", "bg-red-50", "text-red-700", "text-red-600"},
	{"Gray", "bg-gray-50", "text-gray-700", "text-gray-600"},
}
