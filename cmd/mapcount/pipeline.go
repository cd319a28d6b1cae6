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
package main

import (
	"bufio"
	"context"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/mapcount/accumulate"
	"github.com/grailbio/mapcount/align"
	"github.com/grailbio/mapcount/histogram"
	"github.com/grailbio/mapcount/mperr"
	"github.com/grailbio/mapcount/mutation"
	"github.com/grailbio/mapcount/qualfilter"
	"github.com/grailbio/mapcount/serialize"
	"github.com/grailbio/mapcount/shape"
)

// Run composes C2 through C7 into the single-pass mapcount pipeline: read
// the headered TSV record stream at inputPath (spec §6 interface (b)), shape
// and filter each record's mutations, accumulate per-position counts, and
// write the counts table plus the two histograms rooted at outPrefix.
func Run(ctx context.Context, opts Opts, inputPath, outPrefix string) (err error) {
	if err := opts.Validate(); err != nil {
		return err
	}

	in, err := serialize.OpenInput(ctx, inputPath)
	if err != nil {
		return err
	}
	defer in.Close(ctx, &err)

	var rowFactory accumulate.RowFactory
	if opts.VariantMode {
		rowFactory = accumulate.NewVariantRowFactory(opts.MaxRetainedInsLen)
	} else {
		rowFactory = accumulate.NewClassRow
	}
	acc := accumulate.New(rowFactory, 0, opts.SeparateAmbigCounts)

	readLenHist := histogram.NewReadLengthHistogram()
	mutHist := histogram.NewMutationsPerReadHistogram()

	var flushed []accumulate.FlushedRow
	maxRight := mutation.Pos(-1)
	numRecords := 0
	numSkipped := 0

	scanner := bufio.NewScanner(in.Reader)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		al, perr := parseAlignedLine(line)
		if perr != nil {
			if opts.SkipBadRecords {
				log.Error.Printf("mapcount: %s:%d: %v (skipped)", inputPath, lineNo, perr)
				numSkipped++
				continue
			}
			return mperr.Linef(inputPath, lineNo, "%v", perr)
		}
		if al.Mapq < opts.MinMapq {
			numSkipped++
			continue
		}

		refSpan, _ := al.Cigar.Lengths()
		leftPos := mutation.Pos(al.Pos - 1)
		endPos := leftPos + mutation.Pos(refSpan)

		result, perr := align.Parse(leftPos, endPos, al.Seq, al.Qual, al.Cigar, al.MD)
		if perr != nil {
			if opts.SkipBadRecords {
				log.Error.Printf("mapcount: read %s: %v (skipped)", al.QName, perr)
				numSkipped++
				continue
			}
			return mperr.ReadIDf(mperr.BadFormat, al.QName, "%v", perr)
		}

		shaped, perr := shape.Shape(opts.shapeConfig(), result.LeftTargetPos, result.LocalTargetSeq, result.LocalTargetQual, result.Mutations)
		if perr != nil {
			if opts.SkipBadRecords {
				log.Error.Printf("mapcount: read %s: %v (skipped)", al.QName, perr)
				numSkipped++
				continue
			}
			return mperr.ReadIDf(mperr.Malformed, al.QName, "%v", perr)
		}

		res := qualfilter.Filter(opts.qualFilterConfig(), result.LeftTargetPos, result.LocalTargetSeq, result.LocalTargetQual, shaped)

		readLenHist.Add(len(result.LocalTargetSeq))
		mutHist.Add(len(res.Included))

		if opts.InputIsSorted {
			flushed = append(flushed, acc.AdvanceLeft(result.LeftTargetPos)...)
		}
		acc.ExtendRight(result.RightTargetPos)
		acc.Ingest(result.LeftTargetPos, len(result.LocalTargetSeq), res.EffectiveDepth, res.Included)
		if result.RightTargetPos > maxRight {
			maxRight = result.RightTargetPos
		}
		numRecords++
	}
	if serr := scanner.Err(); serr != nil {
		return mperr.E(mperr.InputIo, inputPath, serr)
	}
	flushed = append(flushed, acc.Finish()...)

	if numRecords == 0 {
		if opts.WarnOnEmpty {
			log.Error.Printf("mapcount: %s: no mapped reads", inputPath)
		} else {
			return mperr.E(mperr.EmptyInput, inputPath)
		}
	}

	length := opts.SeqLen
	if length == 0 {
		length = int(maxRight) + 1
		if length < 0 {
			length = 0
		}
	}

	countsOut, err := serialize.OpenOutput(ctx, outPrefix+".counts.tsv")
	if err != nil {
		return err
	}
	defer countsOut.Close(ctx, &err)
	if opts.VariantMode {
		err = serialize.WriteVariantCounts(countsOut.Writer, 0, length, flushed)
	} else {
		err = serialize.WriteClassCounts(countsOut.Writer, 0, length, flushed, opts.SeparateAmbigCounts)
	}
	if err != nil {
		return mperr.E(mperr.OutputIo, outPrefix+".counts.tsv", err)
	}

	if err := writeHistogram(ctx, outPrefix+".readlen_hist.tsv", "read_length", readLenHist); err != nil {
		return err
	}
	if err := writeHistogram(ctx, outPrefix+".mutations_per_read_hist.tsv", "mutations_per_read", mutHist); err != nil {
		return err
	}

	log.Printf("mapcount: %d records processed, %d skipped, counts written to %s.counts.tsv", numRecords, numSkipped, outPrefix)
	return nil
}

func writeHistogram(ctx context.Context, path, label string, h *histogram.Histogram) (err error) {
	out, err := serialize.OpenOutput(ctx, path)
	if err != nil {
		return err
	}
	defer out.Close(ctx, &err)
	if err := histogram.WriteTable(out.Writer, label, h); err != nil {
		return mperr.E(mperr.OutputIo, path, err)
	}
	return nil
}
