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

// Package histogram implements component C7: the two fixed-bin frequency
// tables (read length, included mutations per read) emitted alongside the
// counts output.
package histogram

import (
	"io"
	"strconv"

	"github.com/grailbio/base/tsv"
)

// ReadLengthMax and MutationsPerReadMax are the top of each table's
// in-range span (spec: "bins 0..1000, 21 buckets" and "bins 0..20, 21
// buckets"). Both tables have exactly 21 buckets; the bucket width is
// derived so the span divides evenly into 20 intervals, with the last
// bucket doubling as the overflow bucket for values beyond the span.
const (
	ReadLengthMax       = 1000
	MutationsPerReadMax = 20
	numBuckets          = 21
)

// Histogram is a fixed-bin frequency table over [0, max], divided into
// numBuckets equal-width buckets; the last bucket also catches values
// beyond max.
type Histogram struct {
	max   int
	width int
	bins  []int
}

func newHistogram(max int) *Histogram {
	width := max / (numBuckets - 1)
	if width < 1 {
		width = 1
	}
	return &Histogram{max: max, width: width, bins: make([]int, numBuckets)}
}

// NewReadLengthHistogram returns an empty read-length histogram: 21 buckets
// of width 50 spanning 0..1000.
func NewReadLengthHistogram() *Histogram { return newHistogram(ReadLengthMax) }

// NewMutationsPerReadHistogram returns an empty mutations-per-read
// histogram: 21 buckets of width 1 spanning 0..20.
func NewMutationsPerReadHistogram() *Histogram { return newHistogram(MutationsPerReadMax) }

// Add records one observation of value, piling values beyond max into the
// last bucket.
func (h *Histogram) Add(value int) {
	if value < 0 {
		value = 0
	}
	idx := value / h.width
	if idx >= len(h.bins) {
		idx = len(h.bins) - 1
	}
	h.bins[idx]++
}

// Bins returns the bin counts in ascending order; the last entry is the
// overflow bucket.
func (h *Histogram) Bins() []int {
	return h.bins
}

// WriteTable writes h as a headered two-column TSV table (label, "count"),
// one row per bucket. A bucket's label is its lower bound, or "<lower>+" for
// the last (overflow) bucket.
func WriteTable(w io.Writer, label string, h *Histogram) error {
	tw := tsv.NewWriter(w)
	tw.WriteString(label)
	tw.WriteString("count")
	if err := tw.EndLine(); err != nil {
		return err
	}
	for i, c := range h.bins {
		lower := i * h.width
		if i == len(h.bins)-1 {
			tw.WriteString(strconv.Itoa(lower) + "+")
		} else {
			tw.WriteString(strconv.Itoa(lower))
		}
		tw.WriteUint32(uint32(c))
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}
