// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blocks

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/Masterminds/sprig"

	"studynotes/internal/markdown"
	"studynotes/internal/models"
)

//go:embed templates/view/*.html templates/form/*.html
var templateFS embed.FS

// ErrUnknownBlock is returned when rendering a block whose type has no view.
var ErrUnknownBlock = errors.New("unknown block")

// Renderer renders blocks to HTML for article pages and the block editor.
type Renderer struct {
	tmpl *template.Template
}

// FormView is the data behind a block editor form.
type FormView struct {
	Block     models.Block
	Index     int    // position the block is saved at
	IsNew     bool   // appended on save instead of replacing
	Action    string // URL the form commits to
	RowsURL   string // URL that re-renders the form after a row edit
	CancelURL string
	Error     string
}

type mathView struct {
	Tokens []MathToken
}

type codeView struct {
	models.CodeBlock
	Highlighted template.HTML
}

type richTextView struct {
	Title string
	HTML  template.HTML
}

// NewRenderer parses the embedded block templates.
func NewRenderer() (*Renderer, error) {
	funcs := sprig.FuncMap()
	funcs["raw"] = func(s string) template.HTML { return template.HTML(s) }
	funcs["linkify"] = linkify
	funcs["tipsClass"] = tipsClass
	funcs["label"] = Label
	funcs["languages"] = func() []Language { return Languages }
	funcs["tipsVariants"] = func() []models.TipsVariant { return models.TipsVariants }
	funcs["rowCtx"] = func(v FormView, label string) map[string]any {
		return map[string]any{"RowsURL": v.RowsURL, "RowLabel": label}
	}

	tmpl, err := template.New("blocks").Funcs(funcs).ParseFS(templateFS,
		"templates/view/*.html", "templates/form/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse block templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render renders a single block for an article page.
func (r *Renderer) Render(b models.Block) (template.HTML, error) {
	var data any
	switch v := b.(type) {
	case models.ProblemStatement, models.Examples, models.ComplexityAnalysis,
		models.Walkthrough, models.RelatedProblems:
		data = v
	case models.TipsList:
		if !v.Variant.Valid() {
			v.Variant = models.TipsVariantTips
		}
		data = v
	case models.MathApproach:
		data = mathView{Tokens: TokenizeMath(v.Content)}
	case models.CodeBlock:
		code, err := highlight(v.Code, v.Language)
		if err != nil {
			return "", err
		}
		data = codeView{CodeBlock: v, Highlighted: code}
	case models.RichText:
		html := template.HTML(v.Content)
		if v.Format == models.TextFormatMarkdown {
			out, err := markdown.ToHTML(v.Content)
			if err != nil {
				return "", fmt.Errorf("render markdown: %w", err)
			}
			html = template.HTML(out)
		}
		data = richTextView{Title: v.Title, HTML: html}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBlock, b.Type())
	}
	return r.execute(string(b.Type()), data)
}

// RenderAll renders a block sequence in order. Blocks that fail to render
// are logged and left out.
func (r *Renderer) RenderAll(seq []models.Block) template.HTML {
	var buf bytes.Buffer
	for _, b := range seq {
		html, err := r.Render(b)
		if err != nil {
			slog.Warn("skipping block", "id", b.BlockID(), "type", b.Type(), "error", err)
			continue
		}
		buf.WriteString(string(html))
	}
	return template.HTML(buf.String())
}

// RenderForm renders the editor form of the block in v.
func (r *Renderer) RenderForm(v FormView) (template.HTML, error) {
	if !v.Block.Type().Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownBlockType, v.Block.Type())
	}
	return r.execute("form_"+string(v.Block.Type()), v)
}

func (r *Renderer) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

func tipsClass(v models.TipsVariant) string {
	switch v {
	case models.TipsVariantWarnings:
		return "bg-amber-50 border-amber-200"
	case models.TipsVariantNotes:
		return "bg-sky-50 border-sky-200"
	default:
		return "bg-lavender-50 border-lavender-200"
	}
}
