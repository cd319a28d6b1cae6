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

/*
mapcount counts mutational-profiling (MaP) mismatches, gaps, and insertions
per reference position from a stream of aligned reads.
*/

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
)

var (
	minMapq             = flag.Int("min-mapq", 30, "Minimum aligner-reported mapping quality to admit a read")
	minQual             = flag.Int("min-qual", 30, "Phred threshold for a basecall and its neighbors")
	exclude3Prime       = flag.Int("exclude-3prime", 0, "Bases from the 3' read end whose mutations are discarded")
	maxInternalMatch    = flag.Int("max-internal-match", 6, "Maximum unchanged-reference gap that still collapses adjacent mutations into one event")
	rightAlignAmbigDels = flag.Bool("right-align-ambig-dels", false, "Shift ambiguous deletions to their rightmost equivalent placement instead of leftmost")
	rightAlignAmbigIns  = flag.Bool("right-align-ambig-ins", false, "Shift ambiguous insertions to their rightmost equivalent placement instead of leftmost")
	separateAmbigCounts = flag.Bool("separate-ambig-counts", false, "Emit parallel _ambig classification columns")
	mutationType        = flag.String("mutation-type", "any", "Restrict which mutation classes count: mismatch|gap|insert|gap_multi|insert_multi|complex|any")
	variantMode         = flag.Bool("variant-mode", false, "Use variant-counting semantics (for reference correction) instead of classification counting")
	inputIsSorted       = flag.Bool("input-is-sorted", false, "Input records are sorted by left_target_pos; enables streaming flush")
	seqLen              = flag.Int("seq-len", 0, "Force the output length to this many positions; 0 derives it from the rightmost observed read")
	maxRetainedInsLen   = flag.Int("max-retained-insertion-len", 64, "Cap on insertion length retained in variant-mode multisets (0 disables the cap)")
	warnOnEmpty         = flag.Bool("warn-on-empty", false, "Downgrade an empty-input error to a warning and exit zero")
	skipBadRecords      = flag.Bool("skip-bad-records", false, "Log and drop malformed records instead of failing the run")
	outPrefix           = flag.String("out", "mapcount", "Output path prefix")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] input.tsv\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "input.tsv may end in .gz for transparent decompression.\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatalf("exactly one positional argument (input.tsv) is required")
	}

	opts := DefaultOpts()
	opts.MinMapq = *minMapq
	opts.MinQual = *minQual
	opts.Exclude3Prime = *exclude3Prime
	opts.MaxInternalMatch = *maxInternalMatch
	opts.RightAlignAmbigDels = *rightAlignAmbigDels
	opts.RightAlignAmbigIns = *rightAlignAmbigIns
	opts.SeparateAmbigCounts = *separateAmbigCounts
	opts.MutationType = *mutationType
	opts.VariantMode = *variantMode
	opts.InputIsSorted = *inputIsSorted
	opts.SeqLen = *seqLen
	opts.MaxRetainedInsLen = *maxRetainedInsLen
	opts.WarnOnEmpty = *warnOnEmpty
	opts.SkipBadRecords = *skipBadRecords

	ctx := vcontext.Background()
	if err := Run(ctx, opts, flag.Arg(0), *outPrefix); err != nil {
		log.Panicf("%v", err)
	}
	log.Debug.Printf("mapcount: exiting")
}
