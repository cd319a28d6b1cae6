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
package mutation

import "github.com/grailbio/mapcount/mperr"

// Label is one of the closed set of mutation classification tags, or the
// LabelNone/N_match sentinels. The declared order here is the single source
// of truth for output column order everywhere downstream (accumulate,
// serialize): add a label here, and the header/column logic picks it up
// automatically.
type Label uint8

const (
	// LabelNone marks a Mutation that has not yet been classified.
	LabelNone Label = iota

	DelA // A-
	DelT // T-
	DelG // G-
	DelC // C-

	InsA // -A
	InsT // -T
	InsG // -G
	InsC // -C
	InsN // -N

	MisAT
	MisAG
	MisAC
	MisTA
	MisTG
	MisTC
	MisGA
	MisGT
	MisGC
	MisCA
	MisCT
	MisCG

	MultinucDeletion
	MultinucInsertion
	MultinucMismatch
	ComplexDeletion
	ComplexInsertion

	// NMatch is the sentinel for a mismatch whose "substitution" is an
	// ambiguous basecall (N), not a real variant. Never written to counts.
	NMatch

	numLabels
)

// Labels lists every countable label (excludes LabelNone and NMatch) in
// output column order.
var Labels = func() []Label {
	out := make([]Label, 0, numLabels-2)
	for l := LabelNone + 1; l < numLabels; l++ {
		if l == NMatch {
			continue
		}
		out = append(out, l)
	}
	return out
}()

var labelNames = [numLabels]string{
	LabelNone: "",
	DelA:      "A-", DelT: "T-", DelG: "G-", DelC: "C-",
	InsA: "-A", InsT: "-T", InsG: "-G", InsC: "-C", InsN: "-N",
	MisAT: "AT", MisAG: "AG", MisAC: "AC",
	MisTA: "TA", MisTG: "TG", MisTC: "TC",
	MisGA: "GA", MisGT: "GT", MisGC: "GC",
	MisCA: "CA", MisCT: "CT", MisCG: "CG",
	MultinucDeletion:  "multinuc_deletion",
	MultinucInsertion: "multinuc_insertion",
	MultinucMismatch:  "multinuc_mismatch",
	ComplexDeletion:   "complex_deletion",
	ComplexInsertion:  "complex_insertion",
	NMatch:            "N_match",
}

// String returns the column name used in the parsed-mutations and counts
// text formats.
func (l Label) String() string {
	if l >= numLabels {
		return "?"
	}
	return labelNames[l]
}

// IsMutationType reports whether l belongs to the requested coarse
// mutation_type filter category used by qualfilter (mismatch, gap, insert,
// gap_multi, insert_multi, complex). kind == "any" always matches.
func (l Label) IsMutationType(kind string) bool {
	switch kind {
	case "", "any":
		return true
	case "mismatch":
		return l >= MisAT && l <= MisCG
	case "gap":
		return l == DelA || l == DelT || l == DelG || l == DelC
	case "insert":
		return l == InsA || l == InsT || l == InsG || l == InsC || l == InsN
	case "gap_multi":
		return l == MultinucDeletion
	case "insert_multi":
		return l == MultinucInsertion
	case "complex":
		return l == ComplexDeletion || l == ComplexInsertion
	default:
		return false
	}
}

func baseIndex(b byte) (int, bool) {
	switch b {
	case 'A':
		return 0, true
	case 'C':
		return 1, true
	case 'G':
		return 2, true
	case 'T':
		return 3, true
	default:
		return 0, false
	}
}

var delLabelByBase = map[byte]Label{'A': DelA, 'T': DelT, 'G': DelG, 'C': DelC}
var insLabelByBase = map[byte]Label{'A': InsA, 'T': InsT, 'G': InsG, 'C': InsC, 'N': InsN}

// mismatchTable[refIdx][altIdx] is the Label for a single-nucleotide
// mismatch with the given reference and alternate base (A/C/G/T index
// order); the diagonal (ref == alt) cannot occur for a real mutation and is
// left at LabelNone.
var mismatchTable = [4][4]Label{
	/* A */ {LabelNone, MisAC, MisAG, MisAT},
	/* C */ {MisCA, LabelNone, MisCG, MisCT},
	/* G */ {MisGA, MisGC, LabelNone, MisGT},
	/* T */ {MisTA, MisTC, MisTG, LabelNone},
}

// Classify implements the classification table from the spec: given the
// already-shaped mutation m and the local reference sequence/offset it was
// parsed against, return m's Label. Classify fails with a Malformed error
// (per mperr) when both the reference gap and the substitution are empty,
// since such a "mutation" carries no information.
func Classify(localTargetSeq []byte, leftTargetPos Pos, m Mutation) (Label, error) {
	d := m.Width()
	n := len(m.Seq)
	if d == 0 && n == 0 {
		return LabelNone, mperr.E(mperr.Malformed, "mutation has zero reference width and zero substitution length")
	}
	switch {
	case d == 0: // pure insertion
		if n == 1 {
			if lbl, ok := insLabelByBase[upper(m.Seq[0])]; ok {
				return lbl, nil
			}
			return InsN, nil
		}
		return MultinucInsertion, nil
	case n == 0: // pure deletion
		if d == 1 {
			refBase := refAt(localTargetSeq, leftTargetPos, m.Left+1)
			if lbl, ok := delLabelByBase[upper(refBase)]; ok {
				return lbl, nil
			}
			return MultinucDeletion, nil
		}
		return MultinucDeletion, nil
	case n == d: // mismatch (single or multinuc)
		if d == 1 {
			refBase := upper(refAt(localTargetSeq, leftTargetPos, m.Left+1))
			altBase := upper(m.Seq[0])
			if altBase == 'N' {
				return NMatch, nil
			}
			ri, rok := baseIndex(refBase)
			ai, aok := baseIndex(altBase)
			if rok && aok && mismatchTable[ri][ai] != LabelNone {
				return mismatchTable[ri][ai], nil
			}
			return NMatch, nil
		}
		return MultinucMismatch, nil
	case n < d:
		return ComplexDeletion, nil
	default: // n > d
		return ComplexInsertion, nil
	}
}

// refAt returns the reference base at 0-based reference position pos,
// given that localTargetSeq[0] corresponds to reference position
// leftTargetPos. Returns 0 if pos falls outside the slice (defensive;
// callers only ask for positions known to lie within the read's span).
func refAt(localTargetSeq []byte, leftTargetPos, pos Pos) byte {
	idx := int(pos - leftTargetPos)
	if idx < 0 || idx >= len(localTargetSeq) {
		return 0
	}
	return localTargetSeq[idx]
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
