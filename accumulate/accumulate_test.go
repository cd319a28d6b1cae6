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
	"testing"

	"github.com/grailbio/mapcount/mutation"
)

func allTrue(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}

func TestExtendRightGrowsAndZeroInits(t *testing.T) {
	a := New(NewClassRow, 0, false)
	a.ExtendRight(4)
	if a.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", a.Len())
	}
	row, ok := a.rowAt(4)
	if !ok {
		t.Fatalf("position 4 should be addressable")
	}
	if row.(*ClassRow).ReadDepth != 0 {
		t.Fatalf("freshly extended row should start at zero depth")
	}
}

func TestIngestAccumulatesDepthAndMutation(t *testing.T) {
	a := New(NewClassRow, 0, false)
	a.ExtendRight(7)
	m := mutation.Mutation{Left: 1, Right: 3, Seq: []byte("T"), Tag: mutation.MisGT}
	a.Ingest(0, 8, allTrue(8), []mutation.Mutation{m})
	row, _ := a.rowAt(2)
	cr := row.(*ClassRow)
	if cr.ReadDepth != 1 || cr.EffectiveDepth != 1 {
		t.Fatalf("got read_depth=%d effective_depth=%d, want 1/1", cr.ReadDepth, cr.EffectiveDepth)
	}
	if cr.Counts[mutation.MisGT] != 1 {
		t.Fatalf("adduct site should have one MisGT count, got %d", cr.Counts[mutation.MisGT])
	}
}

func TestIngestDropsOutOfWindowSilently(t *testing.T) {
	a := New(NewClassRow, 0, false)
	a.ExtendRight(2) // only positions 0..2 addressable
	m := mutation.Mutation{Left: 4, Right: 6, Seq: []byte("T"), Tag: mutation.MisGT}
	// Should not panic despite span/mutation reaching past the window.
	a.Ingest(0, 8, allTrue(8), []mutation.Mutation{m})
	if a.Len() != 3 {
		t.Fatalf("window should be untouched by the out-of-window ingest, got len %d", a.Len())
	}
}

func TestAdvanceLeftFlushesInOrder(t *testing.T) {
	a := New(NewClassRow, 0, false)
	a.ExtendRight(9)
	a.Ingest(0, 10, allTrue(10), nil)
	flushed := a.AdvanceLeft(5)
	if len(flushed) != 5 {
		t.Fatalf("got %d flushed rows, want 5", len(flushed))
	}
	for i, fr := range flushed {
		if fr.Pos != mutation.Pos(i) {
			t.Fatalf("flushed[%d].Pos = %d, want %d", i, fr.Pos, i)
		}
	}
	if a.TargetPos() != 5 {
		t.Fatalf("TargetPos() = %d, want 5", a.TargetPos())
	}
	if a.Len() != 5 {
		t.Fatalf("Len() = %d, want 5 remaining", a.Len())
	}
}

func TestStreamingFlushAcrossTwoReads(t *testing.T) {
	// Scenario 6: a read at left=0 followed by a read at left=100 (sorted
	// input) retires every materialized position below 100 (the first read's
	// 0..49; 50..99 were never created) before the second read is ingested.
	a := New(NewClassRow, 0, false)
	a.ExtendRight(49) // first read spans [0,50)
	a.Ingest(0, 50, allTrue(50), nil)

	flushed := a.AdvanceLeft(100)
	if len(flushed) != 50 {
		t.Fatalf("got %d flushed rows advancing to 100, want 50", len(flushed))
	}
	if a.TargetPos() != 100 {
		t.Fatalf("TargetPos() = %d, want 100", a.TargetPos())
	}
	if a.Len() != 0 {
		t.Fatalf("window should be empty immediately after advancing past the first read's span")
	}

	a.ExtendRight(149) // second read spans [100,150)
	a.Ingest(100, 50, allTrue(50), nil)
	row, ok := a.rowAt(100)
	if !ok || row.(*ClassRow).ReadDepth != 1 {
		t.Fatalf("second read's first position should have read_depth 1")
	}
}

func TestFinishDrainsRemainder(t *testing.T) {
	a := New(NewClassRow, 10, false)
	a.ExtendRight(12)
	out := a.Finish()
	if len(out) != 3 {
		t.Fatalf("got %d rows from Finish, want 3", len(out))
	}
	if out[0].Pos != 10 || out[2].Pos != 12 {
		t.Fatalf("unexpected flushed positions: %v", out)
	}
	if a.Len() != 0 {
		t.Fatalf("window should be empty after Finish")
	}
}

func TestClassRowSeparatesAmbigCounts(t *testing.T) {
	a := New(NewClassRow, 0, true)
	a.ExtendRight(4)
	plain := mutation.Mutation{Left: 0, Right: 2, Seq: []byte("T"), Tag: mutation.MisGT}
	ambig := mutation.Mutation{Left: 2, Right: 4, Seq: []byte("T"), Tag: mutation.MisGT, Ambig: true}
	a.Ingest(0, 5, allTrue(5), []mutation.Mutation{plain, ambig})

	r0, _ := a.rowAt(1)
	if r0.(*ClassRow).Counts[mutation.MisGT] != 1 {
		t.Fatalf("plain mutation should land in Counts")
	}
	r1, _ := a.rowAt(3)
	cr1 := r1.(*ClassRow)
	if cr1.Counts[mutation.MisGT] != 0 || cr1.AmbigCounts[mutation.MisGT] != 1 {
		t.Fatalf("ambiguous mutation should land in AmbigCounts only, got Counts=%d AmbigCounts=%d",
			cr1.Counts[mutation.MisGT], cr1.AmbigCounts[mutation.MisGT])
	}
}

func TestClassRowSkipsSentinelAndUnclassified(t *testing.T) {
	r := NewClassRow().(*ClassRow)
	r.AddMutation(mutation.Mutation{Left: 0, Right: 2, Seq: []byte("N"), Tag: mutation.NMatch}, false)
	r.AddMutation(mutation.Mutation{Left: 2, Right: 4, Seq: []byte("T"), Tag: mutation.LabelNone}, false)
	if len(r.Counts) != 0 || len(r.AmbigCounts) != 0 {
		t.Fatalf("N_match and LabelNone must never be counted")
	}
}

func TestVariantRowGroupsBySeq(t *testing.T) {
	factory := NewVariantRowFactory(0)
	a := New(factory, 0, false)
	a.ExtendRight(9)
	del := mutation.Mutation{Left: 4, Right: 6} // pure gap, empty seq
	a.Ingest(0, 10, allTrue(10), []mutation.Mutation{del, del})

	row, _ := a.rowAt(5)
	vr := row.(*VariantRow)
	groups := vr.Variants()
	if len(groups) != 1 {
		t.Fatalf("got %d distinct groups, want 1", len(groups))
	}
	if groups[0].Count != 2 || groups[0].Left != 4 || groups[0].Right != 6 || groups[0].Seq != "" {
		t.Fatalf("unexpected group: %+v", groups[0])
	}
}

func TestVariantRowCapsRetainedInsertionLength(t *testing.T) {
	factory := NewVariantRowFactory(3)
	row := factory().(*VariantRow)
	row.AddMutation(mutation.Mutation{Left: 0, Right: 1, Seq: []byte("ACGTACGT")}, false)
	groups := row.Variants()
	if len(groups) != 1 || len(groups[0].Seq) != 3 {
		t.Fatalf("expected the retained seq to be capped at 3 bases, got %+v", groups)
	}
}
