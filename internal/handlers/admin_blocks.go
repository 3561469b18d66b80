// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"studynotes/internal/blocks"
	"studynotes/internal/models"
	"studynotes/internal/render"
	"studynotes/internal/store"
)

// Block editor handlers. Blocks are addressed by their id within the
// article; every change is a read-modify-write of the whole sequence under
// a row lock, so two editors never lose each other's edits.

// BlockNew renders the editor form for a new block of the requested type.
// Nothing is stored until the form is submitted.
func (a *Admin) BlockNew(w http.ResponseWriter, r *http.Request) {
	art, ok := a.loadArticle(w, r)
	if !ok {
		return
	}
	b, err := blocks.New(models.BlockType(r.URL.Query().Get("type")), art.Blocks)
	if err != nil {
		http.Error(w, "Unknown block type", http.StatusBadRequest)
		return
	}
	a.blockForm(w, art, b, "")
}

// BlockCreate appends the submitted block to the article.
func (a *Admin) BlockCreate(w http.ResponseWriter, r *http.Request) {
	art, ok := a.loadArticle(w, r)
	if !ok {
		return
	}
	b, ok := a.decodeBlock(w, r, art)
	if !ok {
		return
	}
	a.commitBlocks(w, r, art, true, func(seq models.Blocks) (models.Blocks, error) {
		i := blocks.IndexOf(seq, b.BlockID())
		if i < 0 {
			i = len(seq)
		}
		return blocks.Save(seq, i, b)
	})
}

// BlockEdit renders the editor form of an existing block.
func (a *Admin) BlockEdit(w http.ResponseWriter, r *http.Request) {
	art, ok := a.loadArticle(w, r)
	if !ok {
		return
	}
	i := blocks.IndexOf(art.Blocks, chi.URLParam(r, "blockID"))
	if i < 0 {
		http.NotFound(w, r)
		return
	}
	a.blockForm(w, art, art.Blocks[i], "")
}

// BlockUpdate replaces an existing block with the submitted form.
func (a *Admin) BlockUpdate(w http.ResponseWriter, r *http.Request) {
	art, ok := a.loadArticle(w, r)
	if !ok {
		return
	}
	b, ok := a.decodeBlock(w, r, art)
	if !ok {
		return
	}
	id := chi.URLParam(r, "blockID")
	if b.BlockID() != id {
		http.Error(w, "Block id mismatch", http.StatusBadRequest)
		return
	}
	a.commitBlocks(w, r, art, true, func(seq models.Blocks) (models.Blocks, error) {
		i := blocks.IndexOf(seq, id)
		if i < 0 {
			return nil, store.ErrBlockNotFound
		}
		return blocks.Save(seq, i, b)
	})
}

// BlockDelete removes a block from the article.
func (a *Admin) BlockDelete(w http.ResponseWriter, r *http.Request) {
	a.blockOp(w, r, blocks.Delete)
}

// BlockUp swaps a block with its predecessor.
func (a *Admin) BlockUp(w http.ResponseWriter, r *http.Request) {
	a.blockOp(w, r, blocks.MoveUp)
}

// BlockDown swaps a block with its successor.
func (a *Admin) BlockDown(w http.ResponseWriter, r *http.Request) {
	a.blockOp(w, r, blocks.MoveDown)
}

// BlockMove moves the block at position "from" to position "to", as sent
// by the drag and drop script of the block list.
func (a *Admin) BlockMove(w http.ResponseWriter, r *http.Request) {
	art, ok := a.loadArticle(w, r)
	if !ok {
		return
	}
	from, err1 := strconv.Atoi(r.FormValue("from"))
	to, err2 := strconv.Atoi(r.FormValue("to"))
	if err1 != nil || err2 != nil {
		http.Error(w, "Invalid position", http.StatusBadRequest)
		return
	}
	a.commitBlocks(w, r, art, false, func(seq models.Blocks) (models.Blocks, error) {
		return blocks.MoveTo(seq, from, to)
	})
}

// BlockRows adds or removes a row of the block being edited and renders
// the form again. The block is rebuilt from the submitted fields so
// unsaved input survives; nothing is stored.
func (a *Admin) BlockRows(w http.ResponseWriter, r *http.Request) {
	art, ok := a.loadArticle(w, r)
	if !ok {
		return
	}
	b, ok := a.decodeBlock(w, r, art)
	if !ok {
		return
	}

	var err error
	switch r.URL.Query().Get("op") {
	case "add":
		b, err = blocks.AddRow(b)
	case "remove":
		row, convErr := strconv.Atoi(r.URL.Query().Get("row"))
		if convErr != nil {
			http.Error(w, "Invalid row", http.StatusBadRequest)
			return
		}
		b, err = blocks.RemoveRow(b, row)
	default:
		http.Error(w, "Unknown operation", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.blockForm(w, art, b, "")
}

// blockOp applies a positional sequence operation to the block named by
// the {blockID} URL parameter.
func (a *Admin) blockOp(w http.ResponseWriter, r *http.Request, op func(models.Blocks, int) (models.Blocks, error)) {
	art, ok := a.loadArticle(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "blockID")
	a.commitBlocks(w, r, art, false, func(seq models.Blocks) (models.Blocks, error) {
		i := blocks.IndexOf(seq, id)
		if i < 0 {
			return nil, store.ErrBlockNotFound
		}
		return op(seq, i)
	})
}

// decodeBlock rebuilds the block of the submitted editor form. An invalid
// field re-renders the form with the error.
func (a *Admin) decodeBlock(w http.ResponseWriter, r *http.Request, art *models.Article) (models.Block, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return nil, false
	}
	id := r.PostForm.Get("block_id")
	if id == "" {
		http.Error(w, "Missing block id", http.StatusBadRequest)
		return nil, false
	}
	base, err := blocks.Blank(models.BlockType(r.PostForm.Get("block_type")), id)
	if err != nil {
		http.Error(w, "Unknown block type", http.StatusBadRequest)
		return nil, false
	}
	b, err := blocks.DecodeForm(base, r.PostForm)
	if errors.Is(err, blocks.ErrInvalidField) {
		a.blockForm(w, art, b, err.Error())
		return nil, false
	}
	if err != nil {
		a.blockForm(w, art, base, err.Error())
		return nil, false
	}
	return b, true
}

// blockForm writes the editor form of b. The form commits as a new block
// when b is not yet part of the article.
func (a *Admin) blockForm(w http.ResponseWriter, art *models.Article, b models.Block, errMsg string) {
	base := "/admin/articles/" + art.ID.String()
	v := blocks.FormView{
		Block:     b,
		Index:     blocks.IndexOf(art.Blocks, b.BlockID()),
		Action:    base + "/blocks/" + b.BlockID(),
		RowsURL:   base + "/blocks/rows",
		CancelURL: base + "/edit",
		Error:     errMsg,
	}
	if v.Index < 0 {
		v.IsNew = true
		v.Index = len(art.Blocks)
		v.Action = base + "/blocks"
	}

	out, err := a.blocks.RenderForm(v)
	if errors.Is(err, blocks.ErrUnknownBlockType) {
		http.Error(w, "This block type cannot be edited", http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("render block form failed", "error", err, "type", b.Type())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(out))
}

// commitBlocks stores the sequence produced by fn and renders the block
// list. After a form commit the list is swapped out of band and the form
// is closed.
func (a *Admin) commitBlocks(w http.ResponseWriter, r *http.Request, art *models.Article, fromForm bool, fn func(models.Blocks) (models.Blocks, error)) {
	ctx := r.Context()
	updated, err := a.articles.UpdateBlocks(ctx, art.ID, fn)
	switch {
	case errors.Is(err, store.ErrBlockNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, blocks.ErrIndexOutOfRange):
		http.Error(w, "Invalid position", http.StatusBadRequest)
		return
	case err != nil:
		slog.Error("update blocks failed", "error", err, "article", art.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	case updated == nil:
		http.NotFound(w, r)
		return
	}

	a.inv.Invalidate(ctx, store.EntityArticle, updated.ID, store.ActionUpdate)
	a.renderer.Fragment(w, r, "article_form", "block_list", &render.PageData{
		Data: map[string]any{"Article": updated, "OOB": fromForm},
	})
}
