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
package shape

import (
	"testing"

	"github.com/grailbio/mapcount/mutation"
)

func TestRealignGapLeftAlign(t *testing.T) {
	// "GAAAAAG": a 1-base deletion anywhere within the run of A's (indices
	// 1..5) is ambiguous; left-align should land it at the leftmost valid
	// position, deleting index 1.
	ref := []byte("GAAAAAG")
	m := mutation.Mutation{Left: 3, Right: 5}
	got := realignGap(DefaultConfig(), 0, ref, m)
	if got.Left != 0 || got.Right != 2 {
		t.Fatalf("left-align shifted to [%d,%d), want [0,2)", got.Left, got.Right)
	}
	if !got.Ambig {
		t.Fatalf("shifted gap should be flagged ambig")
	}
}

func TestRealignGapRightAlign(t *testing.T) {
	ref := []byte("GAAAAAG")
	cfg := DefaultConfig()
	cfg.RightAlignAmbigDels = true
	m := mutation.Mutation{Left: 3, Right: 5}
	got := realignGap(cfg, 0, ref, m)
	if got.Left != 4 || got.Right != 6 {
		t.Fatalf("right-align shifted to [%d,%d), want [4,6)", got.Left, got.Right)
	}
}

func TestRealignGapNoShiftAtUniquePosition(t *testing.T) {
	// A deletion flanked by non-matching bases on both sides cannot shift.
	ref := []byte("GATCG")
	m := mutation.Mutation{Left: 1, Right: 3} // deletes index 2 ('T')
	got := realignGap(DefaultConfig(), 0, ref, m)
	if got.Left != 1 || got.Right != 3 {
		t.Fatalf("expected no shift, got [%d,%d)", got.Left, got.Right)
	}
	if got.Ambig {
		t.Fatalf("an unshiftable gap should not be marked ambig")
	}
}

func TestRealignInsLeftAlign(t *testing.T) {
	// Insertion of "AA" sitting just after a run of A's can rotate left
	// through the matching reference bases.
	ref := []byte("GAAAAT")
	m := mutation.Mutation{Left: 4, Right: 5, Seq: []byte("AA"), Qual: []byte{40, 40}}
	got := realignIns(DefaultConfig(), 0, ref, m)
	if got.Left != 0 || got.Right != 1 {
		t.Fatalf("left-align shifted to [%d,%d), want [0,1)", got.Left, got.Right)
	}
	if len(got.Seq) != 2 {
		t.Fatalf("insertion length changed: got %d, want 2", len(got.Seq))
	}
}

func TestMergeMutationsConcatenatesIntervening(t *testing.T) {
	ref := []byte("AAAAAAAAAAAAAAAAAAAA")
	qual := make([]byte, len(ref))
	for i := range qual {
		qual[i] = 40
	}
	prev := mutation.Mutation{Left: 9, Right: 11, Seq: []byte("C"), Qual: []byte{40}}
	cur := mutation.Mutation{Left: 14, Right: 16, Seq: []byte("C"), Qual: []byte{40}}
	merged := mergeMutations(prev, cur, ref, qual, 0)
	if merged.Left != 9 || merged.Right != 16 {
		t.Fatalf("merged span [%d,%d), want [9,16)", merged.Left, merged.Right)
	}
	if len(merged.Seq) != 6 {
		t.Fatalf("merged seq length = %d, want 6 (1 + 4 intervening + 1)", len(merged.Seq))
	}
}

func TestTrimMatchingEnds(t *testing.T) {
	ref := []byte("GGGAAAGGG")
	// A merged mutation spanning [2,6) (interior ref "AAA") with seq "AAC"
	// matches the reference on its first two bases; those should trim off,
	// leaving a single-base mismatch.
	m := mutation.Mutation{Left: 2, Right: 6, Seq: []byte("AAC"), Qual: []byte{40, 40, 40}}
	got := trimMatchingEnds(ref, 0, m)
	if string(got.Seq) != "C" {
		t.Fatalf("trimmed seq = %q, want C", got.Seq)
	}
	if got.Left != 4 || got.Right != 6 {
		t.Fatalf("trimmed span = [%d,%d), want [4,6)", got.Left, got.Right)
	}
}

func TestIsNMatchCandidate(t *testing.T) {
	if !isNMatchCandidate(mutation.Mutation{Left: 0, Right: 2, Seq: []byte("N")}) {
		t.Fatalf("expected N to be an N_match candidate")
	}
	if isNMatchCandidate(mutation.Mutation{Left: 0, Right: 2, Seq: []byte("A")}) {
		t.Fatalf("A is not an N_match candidate")
	}
}
