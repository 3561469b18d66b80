// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package blocks turns article blocks into HTML and implements the editing
// operations of the admin block editor: variant defaults, row edits, form
// decoding and reordering of an article's block sequence.
package blocks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"studynotes/internal/models"
)

var (
	// ErrUnknownBlockType is returned when asked to create or edit a variant
	// that does not exist.
	ErrUnknownBlockType = errors.New("unknown block type")

	// ErrIndexOutOfRange is returned by row and sequence operations given an
	// index outside the list.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Info describes a block variant in the block picker.
type Info struct {
	Type        models.BlockType
	Label       string
	Description string
}

// Catalog lists the variants offered by the block picker.
var Catalog = []Info{
	{models.BlockProblemStatement, "Problem Statement", "Main problem description"},
	{models.BlockExamples, "Examples", "Input/output examples"},
	{models.BlockMathApproach, "Math Approach", "Mathematical explanation with LaTeX"},
	{models.BlockCode, "Code Block", "Syntax-highlighted code"},
	{models.BlockComplexityAnalysis, "Complexity Analysis", "Time/space complexity"},
	{models.BlockWalkthrough, "Walkthrough", "Step-by-step explanation"},
	{models.BlockRelatedProblems, "Related Problems", "Links to similar problems"},
	{models.BlockTipsList, "Tips List", "Tips, warnings, or notes"},
	{models.BlockRichText, "Rich Text", "General text content"},
}

// Label returns the picker label of a variant, or the raw type name.
func Label(t models.BlockType) string {
	for _, info := range Catalog {
		if info.Type == t {
			return info.Label
		}
	}
	return string(t)
}

// Language is a selectable code block language.
type Language struct {
	Value string
	Label string
}

// Languages lists the languages offered by the code block editor.
var Languages = []Language{
	{"java", "Java"},
	{"python", "Python"},
	{"javascript", "JavaScript"},
	{"typescript", "TypeScript"},
	{"cpp", "C++"},
	{"c", "C"},
	{"go", "Go"},
	{"rust", "Rust"},
	{"sql", "SQL"},
	{"bash", "Bash"},
}

const (
	defaultLanguage         = "java"
	defaultWalkthroughTitle = "Step-by-Step Walkthrough"
	defaultTipsTitle        = "Tips"
)

// NewID returns a short random identifier not used by any block in existing.
func NewID(existing []models.Block) string {
	for {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
		if IndexOf(existing, id) < 0 {
			return id
		}
	}
}

// New returns a block of type t with the editor's default field values and
// an identifier unique within existing. The block is not added to existing.
func New(t models.BlockType, existing []models.Block) (models.Block, error) {
	id := NewID(existing)
	switch t {
	case models.BlockProblemStatement:
		return models.ProblemStatement{ID: id}, nil
	case models.BlockExamples:
		return models.Examples{ID: id, Items: []models.Example{{Title: exampleTitle(0)}}}, nil
	case models.BlockMathApproach:
		return models.MathApproach{ID: id}, nil
	case models.BlockCode:
		return models.CodeBlock{ID: id, Language: defaultLanguage, IsOptimal: true}, nil
	case models.BlockComplexityAnalysis:
		return models.ComplexityAnalysis{ID: id, Items: []models.ComplexityItem{{}}}, nil
	case models.BlockWalkthrough:
		return models.Walkthrough{
			ID:    id,
			Title: defaultWalkthroughTitle,
			Steps: []models.WalkthroughStep{{Step: 1}},
		}, nil
	case models.BlockRelatedProblems:
		return models.RelatedProblems{ID: id, Items: []models.RelatedProblem{{}}}, nil
	case models.BlockTipsList:
		return models.TipsList{
			ID:      id,
			Title:   defaultTipsTitle,
			Variant: models.TipsVariantTips,
			Items:   []string{""},
		}, nil
	case models.BlockRichText:
		return models.RichText{ID: id, Format: models.TextFormatHTML}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, t)
}

// Blank returns a block of type t carrying only id. A submitted editor form
// is decoded onto it with DecodeForm.
func Blank(t models.BlockType, id string) (models.Block, error) {
	switch t {
	case models.BlockProblemStatement:
		return models.ProblemStatement{ID: id}, nil
	case models.BlockExamples:
		return models.Examples{ID: id}, nil
	case models.BlockMathApproach:
		return models.MathApproach{ID: id}, nil
	case models.BlockCode:
		return models.CodeBlock{ID: id}, nil
	case models.BlockComplexityAnalysis:
		return models.ComplexityAnalysis{ID: id}, nil
	case models.BlockWalkthrough:
		return models.Walkthrough{ID: id}, nil
	case models.BlockRelatedProblems:
		return models.RelatedProblems{ID: id}, nil
	case models.BlockTipsList:
		return models.TipsList{ID: id}, nil
	case models.BlockRichText:
		return models.RichText{ID: id}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, t)
}

// exampleTitle is the default title of the example at index i.
func exampleTitle(i int) string {
	return fmt.Sprintf("Example %d:", i+1)
}

// AddRow returns a copy of b with one empty row appended to its repeated
// field. Variants without rows are returned unchanged.
func AddRow(b models.Block) (models.Block, error) {
	switch v := b.(type) {
	case models.Examples:
		v.Items = appendRow(v.Items, models.Example{Title: exampleTitle(len(v.Items))})
		return v, nil
	case models.ComplexityAnalysis:
		v.Items = appendRow(v.Items, models.ComplexityItem{})
		return v, nil
	case models.Walkthrough:
		v.Steps = appendRow(v.Steps, models.WalkthroughStep{Step: len(v.Steps) + 1})
		return v, nil
	case models.RelatedProblems:
		v.Items = appendRow(v.Items, models.RelatedProblem{})
		return v, nil
	case models.TipsList:
		v.Items = appendRow(v.Items, "")
		return v, nil
	case models.ProblemStatement, models.MathApproach, models.CodeBlock, models.RichText:
		return b, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, b.Type())
}

// RemoveRow returns a copy of b without the row at index i. Walkthrough
// steps are renumbered from 1 afterwards.
func RemoveRow(b models.Block, i int) (models.Block, error) {
	var err error
	switch v := b.(type) {
	case models.Examples:
		v.Items, err = removeRow(v.Items, i)
		return v, err
	case models.ComplexityAnalysis:
		v.Items, err = removeRow(v.Items, i)
		return v, err
	case models.Walkthrough:
		v.Steps, err = removeRow(v.Steps, i)
		if err != nil {
			return v, err
		}
		for n := range v.Steps {
			v.Steps[n].Step = n + 1
		}
		return v, nil
	case models.RelatedProblems:
		v.Items, err = removeRow(v.Items, i)
		return v, err
	case models.TipsList:
		v.Items, err = removeRow(v.Items, i)
		return v, err
	case models.ProblemStatement, models.MathApproach, models.CodeBlock, models.RichText:
		return b, fmt.Errorf("%w: %s has no rows", ErrIndexOutOfRange, b.Type())
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, b.Type())
}

// appendRow copies rows into a new slice and appends row, leaving the
// caller's backing array untouched.
func appendRow[T any](rows []T, row T) []T {
	out := make([]T, len(rows), len(rows)+1)
	copy(out, rows)
	return append(out, row)
}

// removeRow returns a new slice without the element at i.
func removeRow[T any](rows []T, i int) ([]T, error) {
	if i < 0 || i >= len(rows) {
		return rows, fmt.Errorf("%w: row %d of %d", ErrIndexOutOfRange, i, len(rows))
	}
	out := make([]T, 0, len(rows)-1)
	out = append(out, rows[:i]...)
	return append(out, rows[i+1:]...), nil
}

// Preview returns a one-line summary of b for the admin block list.
func Preview(b models.Block) string {
	switch v := b.(type) {
	case models.ProblemStatement:
		return excerpt(stripTags(v.Content))
	case models.Examples:
		return fmt.Sprintf("%d example(s)", len(v.Items))
	case models.MathApproach:
		return excerpt(v.Content)
	case models.CodeBlock:
		return v.Language + ": " + v.Title
	case models.ComplexityAnalysis:
		return fmt.Sprintf("%d approach(es)", len(v.Items))
	case models.Walkthrough:
		return fmt.Sprintf("%d step(s)", len(v.Steps))
	case models.RelatedProblems:
		return fmt.Sprintf("%d problem(s)", len(v.Items))
	case models.TipsList:
		return fmt.Sprintf("%s: %d item(s)", v.Title, len(v.Items))
	case models.RichText:
		if v.Title != "" {
			return v.Title
		}
		return excerpt(stripTags(v.Content))
	}
	return "Unsupported block (" + string(b.Type()) + ")"
}

// excerpt shortens s to 50 runes followed by an ellipsis.
func excerpt(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= 50 {
		return string(r)
	}
	return string(r[:50]) + "..."
}

// stripTags drops anything between angle brackets. Good enough for previews.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
