// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blocks

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"studynotes/internal/models"
)

// ErrInvalidField is returned by DecodeForm for a field value the variant
// does not accept. The block returned with it carries every other submitted
// field, with the rejected one reset to its default.
var ErrInvalidField = errors.New("invalid block field")

// Form field names. Repeated sub-structures are submitted as parallel
// lists, one value per row, in display order.
const (
	FieldContent         = "content"
	FieldTitle           = "title"
	FieldDescription     = "description"
	FieldLanguage        = "language"
	FieldFilename        = "filename"
	FieldCode            = "code"
	FieldIsOptimal       = "is_optimal"
	FieldVariant         = "variant"
	FieldFormat          = "format"
	FieldItem            = "item"
	FieldItemTitle       = "item_title"
	FieldItemInput       = "item_input"
	FieldItemOutput      = "item_output"
	FieldItemExplanation = "item_explanation"
	FieldItemApproach    = "item_approach"
	FieldItemTime        = "item_time"
	FieldItemSpace       = "item_space"
	FieldItemDescription = "item_description"
	FieldItemSlug        = "item_slug"
	FieldStepContent     = "step_content"
)

// DecodeForm rebuilds b from submitted editor fields. The result keeps the
// id and type of b; every other field comes from form.
func DecodeForm(b models.Block, form url.Values) (models.Block, error) {
	switch v := b.(type) {
	case models.ProblemStatement:
		v.Content = form.Get(FieldContent)
		return v, nil

	case models.Examples:
		titles := form[FieldItemTitle]
		items := make([]models.Example, len(titles))
		for i := range titles {
			items[i] = models.Example{
				Title:       strings.TrimSpace(titles[i]),
				Input:       at(form[FieldItemInput], i),
				Output:      at(form[FieldItemOutput], i),
				Explanation: at(form[FieldItemExplanation], i),
			}
		}
		v.Items = items
		return v, nil

	case models.MathApproach:
		v.Content = form.Get(FieldContent)
		return v, nil

	case models.CodeBlock:
		v.Language = strings.TrimSpace(form.Get(FieldLanguage))
		if v.Language == "" {
			v.Language = defaultLanguage
		}
		v.Title = strings.TrimSpace(form.Get(FieldTitle))
		v.Filename = strings.TrimSpace(form.Get(FieldFilename))
		v.Code = form.Get(FieldCode)
		v.IsOptimal = checked(form.Get(FieldIsOptimal))
		return v, nil

	case models.ComplexityAnalysis:
		approaches := form[FieldItemApproach]
		items := make([]models.ComplexityItem, len(approaches))
		for i := range approaches {
			items[i] = models.ComplexityItem{
				Approach: strings.TrimSpace(approaches[i]),
				Time:     strings.TrimSpace(at(form[FieldItemTime], i)),
				Space:    strings.TrimSpace(at(form[FieldItemSpace], i)),
			}
		}
		v.Items = items
		return v, nil

	case models.Walkthrough:
		v.Title = strings.TrimSpace(form.Get(FieldTitle))
		v.Description = form.Get(FieldDescription)
		contents := form[FieldStepContent]
		steps := make([]models.WalkthroughStep, len(contents))
		for i, c := range contents {
			steps[i] = models.WalkthroughStep{Step: i + 1, Content: c}
		}
		v.Steps = steps
		return v, nil

	case models.RelatedProblems:
		titles := form[FieldItemTitle]
		items := make([]models.RelatedProblem, len(titles))
		for i := range titles {
			items[i] = models.RelatedProblem{
				Title:       strings.TrimSpace(titles[i]),
				Description: at(form[FieldItemDescription], i),
				Slug:        strings.TrimSpace(at(form[FieldItemSlug], i)),
			}
		}
		v.Items = items
		return v, nil

	case models.TipsList:
		v.Title = strings.TrimSpace(form.Get(FieldTitle))
		items := make([]string, len(form[FieldItem]))
		copy(items, form[FieldItem])
		v.Items = items
		v.Variant = models.TipsVariantTips
		variant := models.TipsVariant(form.Get(FieldVariant))
		switch {
		case variant == "":
		case variant.Valid():
			v.Variant = variant
		default:
			return v, fmt.Errorf("%w: tips variant %q", ErrInvalidField, variant)
		}
		return v, nil

	case models.RichText:
		v.Title = strings.TrimSpace(form.Get(FieldTitle))
		v.Content = form.Get(FieldContent)
		v.Format = models.TextFormatHTML
		switch format := models.TextFormat(form.Get(FieldFormat)); format {
		case models.TextFormatMarkdown, models.TextFormatHTML:
			v.Format = format
		case "":
		default:
			return v, fmt.Errorf("%w: text format %q", ErrInvalidField, format)
		}
		return v, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, b.Type())
}

// at returns vals[i], or "" when the list is shorter.
func at(vals []string, i int) string {
	if i < len(vals) {
		return vals[i]
	}
	return ""
}

// checked interprets an HTML checkbox value.
func checked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
