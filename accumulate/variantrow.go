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
package accumulate

import (
	"sort"

	"github.com/grailbio/mapcount/mutation"
)

type variantKey struct {
	left, right mutation.Pos
	seq         string
}

// VariantRow is the specialization used by variant_mode: the per-position
// record holds a multiset over observed (left, right, seq) shapes instead
// of fixed classification columns, per the spec's variant counter design.
type VariantRow struct {
	ReadDepth      int
	EffectiveDepth int
	Counts         map[variantKey]int

	// maxInsertionLen caps the substituted sequence retained in a variant
	// key, bounding worst-case memory when a read carries a very long
	// insertion. 0 means uncapped.
	maxInsertionLen int
}

// NewVariantRowFactory returns a RowFactory for VariantRow, capping any
// retained substitution at maxInsertionLen bases (0 disables the cap).
func NewVariantRowFactory(maxInsertionLen int) RowFactory {
	return func() Row {
		return &VariantRow{Counts: make(map[variantKey]int), maxInsertionLen: maxInsertionLen}
	}
}

func (r *VariantRow) AddReadDepth()      { r.ReadDepth++ }
func (r *VariantRow) AddEffectiveDepth() { r.EffectiveDepth++ }

// AddMutation is the variant counter's update: it ignores classification
// and ambiguity entirely and simply tallies one more observation of the
// mutation's exact (left, right, seq) shape.
func (r *VariantRow) AddMutation(m mutation.Mutation, _ bool) {
	seq := m.Seq
	if r.maxInsertionLen > 0 && len(seq) > r.maxInsertionLen {
		seq = seq[:r.maxInsertionLen]
	}
	r.Counts[variantKey{m.Left, m.Right, string(seq)}]++
}

// VariantGroup is one (left, right, seq, count) observation group.
type VariantGroup struct {
	Left, Right mutation.Pos
	Seq         string
	Count       int
}

// Variants returns this row's observed groups in a deterministic order.
func (r *VariantRow) Variants() []VariantGroup {
	out := make([]VariantGroup, 0, len(r.Counts))
	for k, c := range r.Counts {
		out = append(out, VariantGroup{Left: k.left, Right: k.right, Seq: k.seq, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Left != out[j].Left {
			return out[i].Left < out[j].Left
		}
		if out[i].Right != out[j].Right {
			return out[i].Right < out[j].Right
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}
