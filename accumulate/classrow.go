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

import "github.com/grailbio/mapcount/mutation"

// ClassRow is the default per-position record: a read depth, an effective
// depth, and one counter per classification label (plus a parallel
// "_ambig" counter per label, populated only when separate_ambig_counts is
// enabled).
type ClassRow struct {
	ReadDepth      int
	EffectiveDepth int
	Counts         map[mutation.Label]int
	AmbigCounts    map[mutation.Label]int
}

// NewClassRow is a RowFactory for ClassRow.
func NewClassRow() Row {
	return &ClassRow{
		Counts:      make(map[mutation.Label]int),
		AmbigCounts: make(map[mutation.Label]int),
	}
}

func (r *ClassRow) AddReadDepth()      { r.ReadDepth++ }
func (r *ClassRow) AddEffectiveDepth() { r.EffectiveDepth++ }

// AddMutation increments the counter named by m's tag, or the parallel
// "_ambig" counter when separateAmbig is set and m is ambiguous — never
// both, per the spec's ingest rule.
func (r *ClassRow) AddMutation(m mutation.Mutation, separateAmbig bool) {
	if m.Tag == mutation.NMatch || m.Tag == mutation.LabelNone {
		return
	}
	if separateAmbig && m.Ambig {
		r.AmbigCounts[m.Tag]++
		return
	}
	r.Counts[m.Tag]++
}
