// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blocks

import (
	"fmt"

	"studynotes/internal/models"
)

// The sequence operations never modify their input: each returns a new
// slice so the caller decides when the article's stored sequence changes.

// IndexOf returns the position of the block with the given id, or -1.
func IndexOf(seq []models.Block, id string) int {
	for i, b := range seq {
		if b.BlockID() == id {
			return i
		}
	}
	return -1
}

// Save stores b at index i. An index at or past the end appends, which is
// how a newly created block is committed.
func Save(seq models.Blocks, i int, b models.Block) (models.Blocks, error) {
	if i < 0 {
		return seq, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	if i >= len(seq) {
		return append(clone(seq), b), nil
	}
	out := clone(seq)
	out[i] = b
	return out, nil
}

// Delete removes the block at index i.
func Delete(seq models.Blocks, i int) (models.Blocks, error) {
	out, err := removeRow([]models.Block(seq), i)
	return models.Blocks(out), err
}

// MoveUp swaps the block at i with its predecessor. Moving the first block
// up is a no-op.
func MoveUp(seq models.Blocks, i int) (models.Blocks, error) {
	if i < 0 || i >= len(seq) {
		return seq, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	out := clone(seq)
	if i == 0 {
		return out, nil
	}
	out[i-1], out[i] = out[i], out[i-1]
	return out, nil
}

// MoveDown swaps the block at i with its successor. Moving the last block
// down is a no-op.
func MoveDown(seq models.Blocks, i int) (models.Blocks, error) {
	if i < 0 || i >= len(seq) {
		return seq, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	out := clone(seq)
	if i == len(out)-1 {
		return out, nil
	}
	out[i], out[i+1] = out[i+1], out[i]
	return out, nil
}

// MoveTo takes the block at from out of the sequence and inserts it at to,
// as a drag and drop does.
func MoveTo(seq models.Blocks, from, to int) (models.Blocks, error) {
	if from < 0 || from >= len(seq) {
		return seq, fmt.Errorf("%w: from %d", ErrIndexOutOfRange, from)
	}
	if to < 0 || to >= len(seq) {
		return seq, fmt.Errorf("%w: to %d", ErrIndexOutOfRange, to)
	}
	out := clone(seq)
	if from == to {
		return out, nil
	}
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append(models.Blocks{moved}, out[to:]...)...)
	return out, nil
}

func clone(seq models.Blocks) models.Blocks {
	out := make(models.Blocks, len(seq))
	copy(out, seq)
	return out
}
