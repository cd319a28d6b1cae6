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
package qualfilter

import (
	"testing"

	"github.com/grailbio/mapcount/mutation"
)

func allQual(n int, q byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = q
	}
	return out
}

func TestFilterNoMutationsAllHighQual(t *testing.T) {
	ref := []byte("ACGTACGT")
	qual := allQual(8, 40)
	cfg := Config{MinQual: 30}
	res := Filter(cfg, 0, ref, qual, nil)
	for i, ok := range res.EffectiveDepth {
		if !ok {
			t.Fatalf("position %d: effective_depth = false, want true", i)
		}
	}
}

func TestFilterNeighborQualityExclusion(t *testing.T) {
	// Scenario 4: three-base read, qualities 40,10,40, no mutations.
	ref := []byte("ACG")
	qual := []byte{40, 10, 40}
	cfg := Config{MinQual: 30}
	res := Filter(cfg, 0, ref, qual, nil)
	want := []bool{false, false, false}
	for i := range want {
		if res.EffectiveDepth[i] != want[i] {
			t.Fatalf("position %d: effective_depth = %v, want %v", i, res.EffectiveDepth[i], want[i])
		}
	}
}

func TestFilterSingleMismatchIncluded(t *testing.T) {
	// Scenario 1: single mismatch at position 2, all quality 40.
	ref := []byte("ACGTACGT")
	qual := allQual(8, 40)
	m := mutation.Mutation{Left: 1, Right: 3, Seq: []byte("T"), Qual: []byte{40}, Tag: mutation.MisGT}
	cfg := Config{MinQual: 30}
	res := Filter(cfg, 0, ref, qual, []mutation.Mutation{m})
	if len(res.Included) != 1 || len(res.Excluded) != 0 {
		t.Fatalf("got included=%d excluded=%d, want 1/0", len(res.Included), len(res.Excluded))
	}
	if !res.EffectiveDepth[2] || !res.EffectiveCount[2] {
		t.Fatalf("adduct site (position 2) should be set in both effective_depth and effective_count")
	}
}

func TestFilterLowQualityMutationExcluded(t *testing.T) {
	ref := []byte("ACGTACGT")
	qual := allQual(8, 40)
	m := mutation.Mutation{Left: 1, Right: 3, Seq: []byte("T"), Qual: []byte{5}, Tag: mutation.MisGT}
	cfg := Config{MinQual: 30}
	res := Filter(cfg, 0, ref, qual, []mutation.Mutation{m})
	if len(res.Excluded) != 1 || len(res.Included) != 0 {
		t.Fatalf("got included=%d excluded=%d, want 0/1", len(res.Included), len(res.Excluded))
	}
	if res.EffectiveDepth[2] {
		t.Fatalf("excluded mutation's covered position should not count toward effective depth")
	}
}

func TestFilterMutationTypeFilter(t *testing.T) {
	ref := []byte("ACGTACGT")
	qual := allQual(8, 40)
	m := mutation.Mutation{Left: 1, Right: 3, Seq: []byte("T"), Qual: []byte{40}, Tag: mutation.MisGT}
	cfg := Config{MinQual: 30, MutationType: "gap"}
	res := Filter(cfg, 0, ref, qual, []mutation.Mutation{m})
	if len(res.Excluded) != 1 {
		t.Fatalf("a mismatch filtered by mutation_type=gap should be excluded")
	}
}

func TestFilterVariantMode(t *testing.T) {
	ref := []byte("ACGTACGTACGTACGTACGT")
	qual := allQual(20, 40)
	// A 5-base deletion, left=12 right=18 (d=5).
	m := mutation.Mutation{Left: 12, Right: 18, Tag: mutation.MultinucDeletion}
	cfg := Config{MinQual: 30, VariantMode: true}
	res := Filter(cfg, 0, ref, qual, []mutation.Mutation{m})
	if len(res.Included) != 1 {
		t.Fatalf("expected the deletion to be included")
	}
	for p := 13; p <= 17; p++ {
		if !res.EffectiveDepth[p] {
			t.Fatalf("variant mode: position %d should remain in effective_depth", p)
		}
	}
	for _, ok := range res.EffectiveCount {
		if ok {
			t.Fatalf("variant mode must never set effective_count")
		}
	}
}

func TestFilterNMatchNeverCounted(t *testing.T) {
	ref := []byte("ACGTACGT")
	qual := allQual(8, 40)
	m := mutation.Mutation{Left: 1, Right: 3, Seq: []byte("N"), Qual: []byte{40}, Tag: mutation.NMatch}
	cfg := Config{MinQual: 30}
	res := Filter(cfg, 0, ref, qual, []mutation.Mutation{m})
	if len(res.Included) != 0 {
		t.Fatalf("N_match must never be included, got %d", len(res.Included))
	}
	if len(res.Excluded) != 1 {
		t.Fatalf("N_match should appear in excluded, got %d", len(res.Excluded))
	}
}

func TestFilterExclude3Prime(t *testing.T) {
	ref := []byte("ACGTACGT")
	qual := allQual(8, 40)
	cfg := Config{MinQual: 30, Exclude3Prime: 2}
	res := Filter(cfg, 0, ref, qual, nil)
	if len(res.EffectiveDepth) != 6 {
		t.Fatalf("effective_depth length = %d, want 6 (8 - exclude_3prime=2)", len(res.EffectiveDepth))
	}
}
