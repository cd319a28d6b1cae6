// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package accumulate implements the streaming, left-bounded/right-
// extensible scanning counter: component C5 of the mutation-counting
// engine. The window machinery is written once and parameterized over a
// Row implementation, so the classification counter and the variant
// counter share it rather than duplicating the sliding-window logic.
package accumulate

import "github.com/grailbio/mapcount/mutation"

// Row is one reference position's accumulated state. The classification
// counter (ClassRow) and the variant counter (VariantRow) are its two
// implementations; the scanning window in this file never looks past the
// interface.
type Row interface {
	AddReadDepth()
	AddEffectiveDepth()
	AddMutation(m mutation.Mutation, separateAmbig bool)
}

// RowFactory creates a zero-valued Row for a newly addressable position.
type RowFactory func() Row

// FlushedRow pairs a reference position with the row the window is
// retiring for it.
type FlushedRow struct {
	Pos mutation.Pos
	Row Row
}

// Accumulator is the sliding window over reference positions described in
// spec §4.5: origin targetPos, dynamic length, grown on the right by
// ExtendRight and retired on the left by AdvanceLeft/Finish.
type Accumulator struct {
	factory       RowFactory
	targetPos     mutation.Pos
	rows          []Row
	separateAmbig bool
}

// New creates an Accumulator whose window currently starts at origin and
// is empty. separateAmbigCounts controls whether ambiguous mutations are
// tallied in a parallel "_ambig" counter instead of the plain one.
func New(factory RowFactory, origin mutation.Pos, separateAmbigCounts bool) *Accumulator {
	return &Accumulator{factory: factory, targetPos: origin, separateAmbig: separateAmbigCounts}
}

// TargetPos reports the current window origin.
func (a *Accumulator) TargetPos() mutation.Pos { return a.targetPos }

// Len reports how many positions are currently materialized.
func (a *Accumulator) Len() int { return len(a.rows) }

// ExtendRight grows the window so newRight (inclusive, 0-based) is
// addressable. Newly created slots are zero-initialized via factory.
// O(newRight - current right extent).
func (a *Accumulator) ExtendRight(newRight mutation.Pos) {
	need := int(newRight-a.targetPos) + 1
	if need <= len(a.rows) {
		return
	}
	for i := len(a.rows); i < need; i++ {
		a.rows = append(a.rows, a.factory())
	}
}

func (a *Accumulator) rowAt(pos mutation.Pos) (Row, bool) {
	idx := int(pos - a.targetPos)
	if idx < 0 || idx >= len(a.rows) {
		return nil, false
	}
	return a.rows[idx], true
}

// Ingest folds one read's contribution into the window: read depth and
// effective depth over [leftTargetPos, leftTargetPos+spanLen), and one
// classification increment per included mutation at its adduct site
// (right-1). effectiveDepth is indexed from leftTargetPos, as produced by
// qualfilter.Filter.
//
// A position or adduct site that falls outside the current window (past
// the right edge the caller forgot to ExtendRight to, or before targetPos
// after an AdvanceLeft) is silently dropped: per the accumulator's failure
// semantics, out-of-window arithmetic never surfaces as an error here.
func (a *Accumulator) Ingest(leftTargetPos mutation.Pos, spanLen int, effectiveDepth []bool, includedMutations []mutation.Mutation) {
	for i := 0; i < spanLen; i++ {
		pos := leftTargetPos + mutation.Pos(i)
		row, ok := a.rowAt(pos)
		if !ok {
			continue
		}
		row.AddReadDepth()
		if i < len(effectiveDepth) && effectiveDepth[i] {
			row.AddEffectiveDepth()
		}
	}
	for _, m := range includedMutations {
		row, ok := a.rowAt(m.Right - 1)
		if !ok {
			continue
		}
		row.AddMutation(m, a.separateAmbig)
	}
}

// AdvanceLeft retires rows targetPos..newLeft-1 in ascending order and
// moves the window origin to newLeft. Meaningful only when input arrives
// sorted by leftTargetPos; unsorted callers rely on Finish instead.
func (a *Accumulator) AdvanceLeft(newLeft mutation.Pos) []FlushedRow {
	n := int(newLeft - a.targetPos)
	if n <= 0 {
		return nil
	}
	if n > len(a.rows) {
		n = len(a.rows)
	}
	out := make([]FlushedRow, n)
	for i := 0; i < n; i++ {
		out[i] = FlushedRow{Pos: a.targetPos + mutation.Pos(i), Row: a.rows[i]}
	}
	a.rows = a.rows[n:]
	a.targetPos = newLeft
	return out
}

// Finish retires every remaining row. Used to flush unsorted input at
// end-of-stream, or to drain the tail of sorted input once it ends.
func (a *Accumulator) Finish() []FlushedRow {
	out := make([]FlushedRow, len(a.rows))
	for i, r := range a.rows {
		out[i] = FlushedRow{Pos: a.targetPos + mutation.Pos(i), Row: r}
	}
	a.targetPos += mutation.Pos(len(a.rows))
	a.rows = nil
	return out
}
