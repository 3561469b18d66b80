// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blocks

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// codeStyle is the chroma style behind the generated stylesheet.
const codeStyle = "github"

var codeFormatter = chromahtml.New(
	chromahtml.WithClasses(true),
	chromahtml.WithLineNumbers(true),
	chromahtml.TabWidth(4),
)

// highlight renders code as classed HTML. Unknown languages are rendered
// as plain text.
func highlight(code, language string) (template.HTML, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, strings.TrimRight(code, "\n"))
	if err != nil {
		return "", fmt.Errorf("tokenise %s: %w", language, err)
	}

	var buf bytes.Buffer
	if err := codeFormatter.Format(&buf, styles.Get(codeStyle), iterator); err != nil {
		return "", fmt.Errorf("format %s: %w", language, err)
	}
	return template.HTML(buf.String()), nil
}

// HighlightCSS returns the stylesheet for highlighted code blocks.
func HighlightCSS() (string, error) {
	var buf bytes.Buffer
	if err := codeFormatter.WriteCSS(&buf, styles.Get(codeStyle)); err != nil {
		return "", fmt.Errorf("write highlight css: %w", err)
	}
	return buf.String(), nil
}
