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

// Package mutation holds the shared mutation data type threaded through the
// alignment parser (align), the shaper (shape), the quality/adduct filter
// (qualfilter), and the scanning accumulator (accumulate).
package mutation

import "bytes"

// Pos is the integer type used for 0-based reference positions throughout
// the pipeline.
type Pos int32

// Mutation is a half-open interval between two unchanged reference anchors,
// together with the read bases (and their qualities) that replace whatever
// lies strictly between them.
//
// Left and Right are 0-based indices of the nearest unchanged reference
// position on either side of the change; they are anchors, not indices of
// the change itself. Right is always > Left. The reference gap width is
// d := Right - Left - 1 (>= 0).
//
// Qual holds numeric Phred qualities (not ASCII-Phred33) for the bases in
// Seq; len(Qual) == len(Seq) always holds.
//
// Tag and Ambig are populated by shape.Shape; a freshly parsed Mutation
// (from align.Parse) has Tag == LabelNone and Ambig == false. Ambig is a
// carried flag: shape.Shape sets it on an indel it realigns and ORs it when
// merging, and the accumulator reads it as is. It is not derived from
// IsAmbiguous.
type Mutation struct {
	Left  Pos
	Right Pos
	Seq   []byte
	Qual  []byte
	Tag   Label
	Ambig bool
}

// Width returns d, the number of reference positions strictly between Left
// and Right.
func (m Mutation) Width() int {
	return int(m.Right) - int(m.Left) - 1
}

// IsAmbiguous reports whether m both replaces reference bases and changes
// the reference length (d > 0, len(Seq) > 0, d != len(Seq)), the geometry of
// an indel the aligner could not place uniquely. It looks at geometry only,
// not at the reference sequence, and is independent of the Ambig field.
func (m Mutation) IsAmbiguous() bool {
	d := m.Width()
	n := len(m.Seq)
	return d > 0 && n > 0 && d != n
}

// IsGap reports whether m is a net reference gap: fewer substituted bases
// than the reference span it covers (the condition shape.Shape's
// ambiguous-indel realignment treats as "this is fundamentally a
// deletion").
func (m Mutation) IsGap() bool {
	return len(m.Seq) < m.Width()
}

// IsInsert reports whether m is a net insertion: more substituted bases
// than the reference span it covers.
func (m Mutation) IsInsert() bool {
	return len(m.Seq) > m.Width()
}

// Less provides the total order (Left, Right, Seq, Qual) used to sort
// mutations deterministically within a read.
func Less(a, b Mutation) bool {
	if a.Left != b.Left {
		return a.Left < b.Left
	}
	if a.Right != b.Right {
		return a.Right < b.Right
	}
	if c := bytes.Compare(a.Seq, b.Seq); c != 0 {
		return c < 0
	}
	return bytes.Compare(a.Qual, b.Qual) < 0
}

// Equal reports whether a and b have identical geometry, substitution, and
// classification. Used by round-trip and idempotence tests.
func Equal(a, b Mutation) bool {
	return a.Left == b.Left && a.Right == b.Right && a.Tag == b.Tag && a.Ambig == b.Ambig &&
		bytes.Equal(a.Seq, b.Seq) && bytes.Equal(a.Qual, b.Qual)
}
