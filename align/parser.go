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

// Package align reconstructs, from a single aligned record's CIGAR, MD tag,
// query bases and qualities, the local reference sequence the read spans
// and the raw (unshaped, unclassified) mutations embedded in it. This is
// component C2 of the mutation-counting engine: it never decides how
// ambiguous indels should be realigned or how nearby mutations should be
// merged (shape.Shape does that); it only reconstructs geometry.
package align

import (
	"fmt"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/mapcount/mperr"
	"github.com/grailbio/mapcount/mutation"
)

// Result is what Parse reconstructs from one aligned record.
type Result struct {
	LeftTargetPos   mutation.Pos
	RightTargetPos  mutation.Pos // inclusive, unlike the CIGAR-implied half-open end
	LocalTargetSeq  []byte
	LocalTargetQual []byte // numeric Phred, parallel to LocalTargetSeq; 0 at deleted (no-basecall) positions
	Mutations       []mutation.Mutation
}

// run accumulates the query bases/qualities of a non-match stretch until the
// next CIGAR match position closes it off with a right anchor.
type run struct {
	open bool
	left mutation.Pos
	seq  []byte
	qual []byte
}

// Parse reconstructs Result from one aligned record. leftPos is the
// 0-based leftmost reference position the record is aligned to; endPos is
// the 0-based, exclusive reference end (i.e. leftPos + reference span),
// used only to validate the reconstruction. query and asciiQual are the
// record's SEQ/QUAL fields (ASCII-Phred33); cigar is the record's CIGAR;
// md is the bare value of its MD:Z tag (md == "" is treated as "tag
// absent").
func Parse(leftPos, endPos mutation.Pos, query, asciiQual []byte, cigar sam.Cigar, md string) (Result, error) {
	if md == "" {
		return Result{}, mperr.E(mperr.MissingMdTag, "no MD tag")
	}
	if len(query) != len(asciiQual) {
		return Result{}, mperr.E(mperr.BadFormat, fmt.Sprintf("query length %d != quality length %d", len(query), len(asciiQual)))
	}
	toks, err := parseMD(md)
	if err != nil {
		return Result{}, err
	}
	cur := mdCursor{toks: toks}

	refSpan, querySpan := cigar.Lengths()
	targetSeq := make([]byte, 0, refSpan)
	targetQual := make([]byte, 0, refSpan)
	muts := make([]mutation.Mutation, 0, 4)

	qi := 0
	refPos := leftPos
	var pending run

	flush := func(right mutation.Pos) {
		if !pending.open {
			return
		}
		muts = append(muts, mutation.Mutation{
			Left:  pending.left,
			Right: right,
			Seq:   pending.seq,
			Qual:  pending.qual,
		})
		pending = run{}
	}
	openAt := func(left mutation.Pos) {
		if !pending.open {
			pending.open = true
			pending.left = left
		}
	}

	for _, co := range cigar {
		length := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i := 0; i < length; i++ {
				if qi >= len(query) {
					return Result{}, mperr.E(mperr.BadFormat, "CIGAR consumes more query bases than SEQ provides")
				}
				mdRefBase, isMismatch, e := cur.nextAligned()
				if e != nil {
					return Result{}, e
				}
				if isMismatch {
					openAt(refPos - 1)
					targetSeq = append(targetSeq, mdRefBase)
					targetQual = append(targetQual, phred(asciiQual[qi]))
					pending.seq = append(pending.seq, query[qi])
					pending.qual = append(pending.qual, phred(asciiQual[qi]))
				} else {
					flush(refPos)
					targetSeq = append(targetSeq, query[qi])
					targetQual = append(targetQual, phred(asciiQual[qi]))
				}
				refPos++
				qi++
			}
		case sam.CigarInsertion:
			openAt(refPos - 1)
			for i := 0; i < length; i++ {
				if qi >= len(query) {
					return Result{}, mperr.E(mperr.BadFormat, "CIGAR consumes more query bases than SEQ provides")
				}
				pending.seq = append(pending.seq, query[qi])
				pending.qual = append(pending.qual, phred(asciiQual[qi]))
				qi++
			}
		case sam.CigarDeletion, sam.CigarSkipped:
			openAt(refPos - 1)
			for i := 0; i < length; i++ {
				refBase, e := cur.nextDeleted()
				if e != nil {
					return Result{}, e
				}
				targetSeq = append(targetSeq, refBase)
				targetQual = append(targetQual, 0)
				refPos++
			}
		case sam.CigarSoftClipped:
			qi += length
		case sam.CigarHardClipped, sam.CigarPadded:
			// Consume neither query nor reference.
		default:
			return Result{}, mperr.E(mperr.BadFormat, fmt.Sprintf("unsupported CIGAR operation %v", co.Type()))
		}
	}
	flush(refPos)

	if qi != querySpan {
		return Result{}, mperr.E(mperr.BadFormat, fmt.Sprintf("CIGAR consumed %d query bases, expected %d", qi, querySpan))
	}
	if refPos != endPos {
		return Result{}, mperr.E(mperr.BadFormat, fmt.Sprintf("reconstructed reference end %d != provided end %d", refPos, endPos))
	}
	if !cur.done() {
		return Result{}, mperr.E(mperr.CigarMdMismatch, "MD tag describes more positions than CIGAR consumed")
	}

	return Result{
		LeftTargetPos:   leftPos,
		RightTargetPos:  endPos - 1,
		LocalTargetSeq:  targetSeq,
		LocalTargetQual: targetQual,
		Mutations:       muts,
	}, nil
}

// phred converts an ASCII-Phred33 quality byte to its numeric Phred score.
func phred(asciiQual byte) byte {
	if asciiQual < 33 {
		return 0
	}
	return asciiQual - 33
}
