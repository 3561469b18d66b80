// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blocks

import "strings"

// MathKind classifies a MathToken.
type MathKind int

const (
	MathText MathKind = iota
	MathInline
	MathDisplay
)

// MathToken is one span of a math approach text.
type MathToken struct {
	Kind  MathKind
	Value string
}

// TokenizeMath splits s into literal text and math spans, in order.
// $$...$$ is display math and $...$ inline math. Spans are not nested and
// may not contain a dollar sign; a display opener is tried before an
// inline one. Unterminated or empty delimiters stay literal text.
func TokenizeMath(s string) []MathToken {
	var tokens []MathToken
	textStart := 0

	flush := func(end int) {
		if end > textStart {
			tokens = append(tokens, MathToken{Kind: MathText, Value: s[textStart:end]})
		}
	}

	for i := 0; i < len(s); {
		if s[i] != '$' {
			i++
			continue
		}
		if end, ok := matchDisplay(s, i); ok {
			flush(i)
			tokens = append(tokens, MathToken{Kind: MathDisplay, Value: s[i+2 : end]})
			i = end + 2
			textStart = i
			continue
		}
		if end, ok := matchInline(s, i); ok {
			flush(i)
			tokens = append(tokens, MathToken{Kind: MathInline, Value: s[i+1 : end]})
			i = end + 1
			textStart = i
			continue
		}
		i++
	}
	flush(len(s))
	return tokens
}

// matchDisplay reports whether a $$...$$ span starts at i, returning the
// index of its closing delimiter.
func matchDisplay(s string, i int) (int, bool) {
	if i+1 >= len(s) || s[i+1] != '$' {
		return 0, false
	}
	j := strings.IndexByte(s[i+2:], '$')
	if j <= 0 {
		return 0, false
	}
	end := i + 2 + j
	if end+1 >= len(s) || s[end+1] != '$' {
		return 0, false
	}
	return end, true
}

// matchInline reports whether a $...$ span starts at i, returning the
// index of its closing delimiter.
func matchInline(s string, i int) (int, bool) {
	j := strings.IndexByte(s[i+1:], '$')
	if j <= 0 {
		return 0, false
	}
	return i + 1 + j, true
}

// IsInline reports whether the token is inline math.
func (t MathToken) IsInline() bool { return t.Kind == MathInline }

// IsDisplay reports whether the token is display math.
func (t MathToken) IsDisplay() bool { return t.Kind == MathDisplay }
