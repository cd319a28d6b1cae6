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
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/mapcount/accumulate"
	"github.com/grailbio/mapcount/mutation"
)

// WriteClassCounts writes the final counts table for the classification
// counter: a single header line enumerating every classification column
// (doubled with "_ambig" suffixes when separateAmbig is set), then
// read_depth, then effective_depth; one line per reference position from
// origin to origin+length-1, in ascending order. Positions absent from rows
// (never flushed, e.g. zero coverage) render as a zero row, so the table
// always has exactly length lines regardless of coverage.
func WriteClassCounts(w io.Writer, origin mutation.Pos, length int, rows []accumulate.FlushedRow, separateAmbig bool) error {
	byPos := make(map[mutation.Pos]*accumulate.ClassRow, len(rows))
	for _, fr := range rows {
		if cr, ok := fr.Row.(*accumulate.ClassRow); ok {
			byPos[fr.Pos] = cr
		}
	}

	tw := tsv.NewWriter(w)
	var header strings.Builder
	for i, l := range mutation.Labels {
		if i > 0 {
			header.WriteByte('\t')
		}
		header.WriteString(l.String())
	}
	if separateAmbig {
		for _, l := range mutation.Labels {
			header.WriteByte('\t')
			header.WriteString(l.String())
			header.WriteString("_ambig")
		}
	}
	header.WriteString("\tread_depth\teffective_depth")
	tw.WriteString(header.String())
	if err := tw.EndLine(); err != nil {
		return err
	}

	for i := 0; i < length; i++ {
		pos := origin + mutation.Pos(i)
		cr := byPos[pos]
		for _, l := range mutation.Labels {
			if cr != nil {
				tw.WriteUint32(uint32(cr.Counts[l]))
			} else {
				tw.WriteUint32(0)
			}
		}
		if separateAmbig {
			for _, l := range mutation.Labels {
				if cr != nil {
					tw.WriteUint32(uint32(cr.AmbigCounts[l]))
				} else {
					tw.WriteUint32(0)
				}
			}
		}
		if cr != nil {
			tw.WriteUint32(uint32(cr.ReadDepth))
			tw.WriteUint32(uint32(cr.EffectiveDepth))
		} else {
			tw.WriteUint32(0)
			tw.WriteUint32(0)
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteVariantCounts writes the variant counter's table: read_depth,
// effective_depth, and a "variants" column listing every (left, right, seq,
// count) group observed at that position, semicolon-separated, rendered as
// left:right:"seq":count with seq in double quotes (the column is empty when
// no variant was observed).
func WriteVariantCounts(w io.Writer, origin mutation.Pos, length int, rows []accumulate.FlushedRow) error {
	byPos := make(map[mutation.Pos]*accumulate.VariantRow, len(rows))
	for _, fr := range rows {
		if vr, ok := fr.Row.(*accumulate.VariantRow); ok {
			byPos[fr.Pos] = vr
		}
	}

	tw := tsv.NewWriter(w)
	tw.WriteString("read_depth\teffective_depth\tvariants")
	if err := tw.EndLine(); err != nil {
		return err
	}

	for i := 0; i < length; i++ {
		pos := origin + mutation.Pos(i)
		vr := byPos[pos]
		if vr != nil {
			tw.WriteUint32(uint32(vr.ReadDepth))
			tw.WriteUint32(uint32(vr.EffectiveDepth))
			tw.WriteString(formatVariantGroups(vr.Variants()))
		} else {
			tw.WriteUint32(0)
			tw.WriteUint32(0)
			tw.WriteString("")
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func formatVariantGroups(groups []accumulate.VariantGroup) string {
	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%d:%d:%s:%d", g.Left, g.Right, quoted([]byte(g.Seq)), g.Count)
	}
	return b.String()
}
