// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// BlockType discriminates the block variants in stored JSON.
type BlockType string

const (
	BlockProblemStatement   BlockType = "problemStatement"
	BlockExamples           BlockType = "examples"
	BlockMathApproach       BlockType = "mathApproach"
	BlockCode               BlockType = "codeBlock"
	BlockComplexityAnalysis BlockType = "complexityAnalysis"
	BlockWalkthrough        BlockType = "walkthrough"
	BlockRelatedProblems    BlockType = "relatedProblems"
	BlockTipsList           BlockType = "tipsList"
	BlockRichText           BlockType = "richText"
)

// BlockTypes lists every known variant in the order the block picker shows them.
var BlockTypes = []BlockType{
	BlockProblemStatement, BlockExamples, BlockMathApproach, BlockCode,
	BlockComplexityAnalysis, BlockWalkthrough, BlockRelatedProblems,
	BlockTipsList, BlockRichText,
}

// Valid reports whether t is one of the nine known variants.
func (t BlockType) Valid() bool {
	for _, known := range BlockTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Block is one structured content unit of an article. The implementations
// are the nine variant structs below plus Unknown; the unexported marker
// method keeps the set closed to this package.
type Block interface {
	BlockID() string
	Type() BlockType
	isBlock()
}

// ProblemStatement holds the problem description as trusted HTML.
type ProblemStatement struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Example is one input/output pair of an Examples block.
type Example struct {
	Title       string `json:"title"`
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}

// Examples lists worked input/output examples.
type Examples struct {
	ID    string    `json:"id"`
	Items []Example `json:"items"`
}

// MathApproach is prose with $inline$ and $$display$$ math spans.
type MathApproach struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// CodeBlock is a highlighted source listing.
type CodeBlock struct {
	ID        string `json:"id"`
	Language  string `json:"language"`
	Title     string `json:"title"`
	Filename  string `json:"filename,omitempty"`
	Code      string `json:"code"`
	IsOptimal bool   `json:"isOptimal,omitempty"`
}

// ComplexityItem is the time and space cost of one approach.
type ComplexityItem struct {
	Approach string `json:"approach"`
	Time     string `json:"time"`
	Space    string `json:"space"`
}

// ComplexityAnalysis compares approaches by time and space complexity.
type ComplexityAnalysis struct {
	ID    string           `json:"id"`
	Items []ComplexityItem `json:"items"`
}

// WalkthroughStep is one numbered step. Steps are numbered from 1.
type WalkthroughStep struct {
	Step    int    `json:"step"`
	Content string `json:"content"`
}

// Walkthrough is a numbered step-by-step explanation.
type Walkthrough struct {
	ID          string            `json:"id"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Steps       []WalkthroughStep `json:"steps"`
}

// RelatedProblem points at a similar problem. Slug is an optional link target.
type RelatedProblem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Slug        string `json:"slug,omitempty"`
}

// RelatedProblems lists similar problems.
type RelatedProblems struct {
	ID    string           `json:"id"`
	Items []RelatedProblem `json:"items"`
}

// TipsVariant selects the styling of a TipsList.
type TipsVariant string

const (
	TipsVariantTips     TipsVariant = "tips"
	TipsVariantWarnings TipsVariant = "warnings"
	TipsVariantNotes    TipsVariant = "notes"
)

// TipsVariants lists the variants in picker order.
var TipsVariants = []TipsVariant{TipsVariantTips, TipsVariantWarnings, TipsVariantNotes}

// Valid reports whether v is a known variant.
func (v TipsVariant) Valid() bool {
	for _, known := range TipsVariants {
		if v == known {
			return true
		}
	}
	return false
}

// TipsList is a titled list of plain-text tips, warnings or notes.
type TipsList struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Variant TipsVariant `json:"variant"`
	Items   []string    `json:"items"`
}

// TextFormat is the source format of a RichText block.
type TextFormat string

const (
	TextFormatHTML     TextFormat = "html"
	TextFormatMarkdown TextFormat = "markdown"
)

// RichText is general prose. An empty Format means HTML.
type RichText struct {
	ID      string     `json:"id"`
	Title   string     `json:"title,omitempty"`
	Content string     `json:"content"`
	Format  TextFormat `json:"format,omitempty"`
}

// Unknown preserves a stored block whose type this build does not know,
// so that reading and re-saving an article never drops content.
type Unknown struct {
	ID   string
	Kind BlockType
	Raw  json.RawMessage
}

func (b ProblemStatement) BlockID() string   { return b.ID }
func (b Examples) BlockID() string           { return b.ID }
func (b MathApproach) BlockID() string       { return b.ID }
func (b CodeBlock) BlockID() string          { return b.ID }
func (b ComplexityAnalysis) BlockID() string { return b.ID }
func (b Walkthrough) BlockID() string        { return b.ID }
func (b RelatedProblems) BlockID() string    { return b.ID }
func (b TipsList) BlockID() string           { return b.ID }
func (b RichText) BlockID() string           { return b.ID }
func (b Unknown) BlockID() string            { return b.ID }

func (ProblemStatement) Type() BlockType   { return BlockProblemStatement }
func (Examples) Type() BlockType           { return BlockExamples }
func (MathApproach) Type() BlockType       { return BlockMathApproach }
func (CodeBlock) Type() BlockType          { return BlockCode }
func (ComplexityAnalysis) Type() BlockType { return BlockComplexityAnalysis }
func (Walkthrough) Type() BlockType        { return BlockWalkthrough }
func (RelatedProblems) Type() BlockType    { return BlockRelatedProblems }
func (TipsList) Type() BlockType           { return BlockTipsList }
func (RichText) Type() BlockType           { return BlockRichText }
func (b Unknown) Type() BlockType          { return b.Kind }

func (ProblemStatement) isBlock()   {}
func (Examples) isBlock()           {}
func (MathApproach) isBlock()       {}
func (CodeBlock) isBlock()          {}
func (ComplexityAnalysis) isBlock() {}
func (Walkthrough) isBlock()        {}
func (RelatedProblems) isBlock()    {}
func (TipsList) isBlock()           {}
func (RichText) isBlock()           {}
func (Unknown) isBlock()            {}

// The MarshalJSON methods add the "type" discriminator next to the
// variant's own fields. The local plain type drops the method set so the
// embedded value is encoded field by field.

func (b ProblemStatement) MarshalJSON() ([]byte, error) {
	type plain ProblemStatement
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		plain
	}{b.Type(), plain(b)})
}

func (b Examples) MarshalJSON() ([]byte, error) {
	type plain Examples
	if b.Items == nil {
		b.Items = []Example{}
	}
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		plain
	}{b.Type(), plain(b)})
}

func (b MathApproach) MarshalJSON() ([]byte, error) {
	type plain MathApproach
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		plain
	}{b.Type(), plain(b)})
}

func (b CodeBlock) MarshalJSON() ([]byte, error) {
	type plain CodeBlock
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		plain
	}{b.Type(), plain(b)})
}

func (b ComplexityAnalysis) MarshalJSON() ([]byte, error) {
	type plain ComplexityAnalysis
	if b.Items == nil {
		b.Items = []ComplexityItem{}
	}
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		plain
	}{b.Type(), plain(b)})
}

func (b Walkthrough) MarshalJSON() ([]byte, error) {
	type plain Walkthrough
	if b.Steps == nil {
		b.Steps = []WalkthroughStep{}
	}
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		plain
	}{b.Type(), plain(b)})
}

func (b RelatedProblems) MarshalJSON() ([]byte, error) {
	type plain RelatedProblems
	if b.Items == nil {
		b.Items = []RelatedProblem{}
	}
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		plain
	}{b.Type(), plain(b)})
}

func (b TipsList) MarshalJSON() ([]byte, error) {
	type plain TipsList
	if b.Items == nil {
		b.Items = []string{}
	}
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		plain
	}{b.Type(), plain(b)})
}

func (b RichText) MarshalJSON() ([]byte, error) {
	type plain RichText
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		plain
	}{b.Type(), plain(b)})
}

// MarshalJSON writes the stored bytes back unchanged.
func (b Unknown) MarshalJSON() ([]byte, error) {
	if len(b.Raw) == 0 {
		return []byte("null"), nil
	}
	return b.Raw, nil
}

// DecodeBlock decodes one block by inspecting its "type" field. Blocks of
// an unrecognized type decode to Unknown instead of failing.
func DecodeBlock(data []byte) (Block, error) {
	var head struct {
		ID   string    `json:"id"`
		Type BlockType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}

	switch head.Type {
	case BlockProblemStatement:
		return decodeAs[ProblemStatement](data)
	case BlockExamples:
		return decodeAs[Examples](data)
	case BlockMathApproach:
		return decodeAs[MathApproach](data)
	case BlockCode:
		return decodeAs[CodeBlock](data)
	case BlockComplexityAnalysis:
		return decodeAs[ComplexityAnalysis](data)
	case BlockWalkthrough:
		return decodeAs[Walkthrough](data)
	case BlockRelatedProblems:
		return decodeAs[RelatedProblems](data)
	case BlockTipsList:
		return decodeAs[TipsList](data)
	case BlockRichText:
		return decodeAs[RichText](data)
	}

	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	return Unknown{ID: head.ID, Kind: head.Type, Raw: raw}, nil
}

func decodeAs[T Block](data []byte) (Block, error) {
	var b T
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode %s block: %w", b.Type(), err)
	}
	return b, nil
}

// Blocks is the ordered block sequence of an article. It is stored as a
// JSONB array and always encodes as an array, never null.
type Blocks []Block

// MarshalJSON encodes the sequence as a JSON array.
func (bs Blocks) MarshalJSON() ([]byte, error) {
	if bs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Block(bs))
}

// UnmarshalJSON decodes each element with DecodeBlock. A JSON null yields
// an empty sequence.
func (bs *Blocks) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*bs = Blocks{}
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("decode blocks: %w", err)
	}
	out := make(Blocks, 0, len(raws))
	for i, raw := range raws {
		b, err := DecodeBlock(raw)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, b)
	}
	*bs = out
	return nil
}

// Scan implements sql.Scanner for JSONB columns.
func (bs *Blocks) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return bs.UnmarshalJSON(v)
	case string:
		return bs.UnmarshalJSON([]byte(v))
	case nil:
		*bs = Blocks{}
		return nil
	}
	return fmt.Errorf("scan blocks: unsupported type %T", src)
}

// Value implements driver.Valuer, producing JSON text for a JSONB parameter.
func (bs Blocks) Value() (driver.Value, error) {
	data, err := bs.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
