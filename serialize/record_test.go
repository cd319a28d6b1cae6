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
package serialize

import (
	"io"
	"strings"
	"testing"

	"github.com/grailbio/mapcount/mutation"
)

func recordsEqual(a, b Record) bool {
	if a.ReadID != b.ReadID || a.Left != b.Left || a.Right != b.Right {
		return false
	}
	if string(a.LocalTargetSeq) != string(b.LocalTargetSeq) || string(a.LocalTargetQual) != string(b.LocalTargetQual) {
		return false
	}
	if len(a.Mutations) != len(b.Mutations) {
		return false
	}
	for i := range a.Mutations {
		if !mutation.Equal(a.Mutations[i], b.Mutations[i]) {
			return false
		}
	}
	return true
}

func TestFormatParseRoundTripNoMutations(t *testing.T) {
	rec := Record{
		ReadID:          "read1",
		Left:            10,
		Right:           17,
		LocalTargetSeq:  []byte("ACGTACGT"),
		LocalTargetQual: []byte{40, 40, 40, 40, 40, 40, 40, 40},
	}
	line := Format(rec)
	got, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !recordsEqual(rec, got) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, rec)
	}
}

func TestFormatParseRoundTripWithMutations(t *testing.T) {
	rec := Record{
		ReadID:          "read2",
		Left:            0,
		Right:           7,
		LocalTargetSeq:  []byte("ACGTACGT"),
		LocalTargetQual: []byte{40, 40, 40, 40, 40, 40, 40, 40},
		// The parsed-mutations format carries only the raw geometry C2
		// produces, before C3 classifies anything; Tag/Ambig are always
		// zero-valued here and are not part of the round trip.
		Mutations: []mutation.Mutation{
			{Left: 1, Right: 3, Seq: []byte("T"), Qual: []byte{40}},
			{Left: 4, Right: 6, Seq: nil, Qual: nil},
		},
	}
	line := Format(rec)
	if !strings.Contains(line, `""`) {
		t.Fatalf("expected an empty-seq mutation to render as \"\", got %q", line)
	}
	got, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !recordsEqual(rec, got) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, rec)
	}
}

func TestParseRejectsBadMutationFieldCount(t *testing.T) {
	_, err := Parse(`read1 0 8 ACGTACGT IIIIIIII 1 3 "T"`)
	if err == nil {
		t.Fatalf("expected an error for a mutation field count that isn't a multiple of 4")
	}
}

func TestReaderSkipsBlankLines(t *testing.T) {
	input := "read1 0 8 ACGTACGT IIIIIIII\n\nread2 0 8 ACGTACGT IIIIIIII\n"
	r := NewReader(strings.NewReader(input), "test")
	first, err := r.Next()
	if err != nil || first.ReadID != "read1" {
		t.Fatalf("got %+v, %v; want read1", first, err)
	}
	second, err := r.Next()
	if err != nil || second.ReadID != "read2" {
		t.Fatalf("got %+v, %v; want read2", second, err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("got err=%v, want io.EOF at end of stream", err)
	}
}
