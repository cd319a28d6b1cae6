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
	"strconv"
	"strings"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/mapcount/mperr"
)

// alignedLine is one record of external interface (b): a headered,
// tab-separated stream whose columns mirror SAM's text fields (spec §6):
// QNAME FLAG RNAME POS MAPQ CIGAR RNEXT PNEXT TLEN SEQ QUAL [TAG:TYPE:VALUE]*
type alignedLine struct {
	QName string
	Mapq  int
	Pos   int // 1-based, as in the wire format
	Cigar sam.Cigar
	Seq   []byte
	Qual  []byte
	MD    string // "" if no MD:Z: tag is present
}

// parseAlignedLine parses one data line of the input stream. Blank lines and
// lines starting with '#' (the header, or any comment) are the caller's
// responsibility to skip before calling this.
func parseAlignedLine(line string) (alignedLine, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 11 {
		return alignedLine{}, mperr.E(mperr.BadFormat, "record has fewer than 11 tab-separated fields")
	}
	pos, err := strconv.Atoi(fields[3])
	if err != nil {
		return alignedLine{}, mperr.E(mperr.BadFormat, "POS field is not an integer: "+fields[3])
	}
	mapq, err := strconv.Atoi(fields[4])
	if err != nil {
		return alignedLine{}, mperr.E(mperr.BadFormat, "MAPQ field is not an integer: "+fields[4])
	}
	cigar, err := sam.ParseCigar([]byte(fields[5]))
	if err != nil {
		return alignedLine{}, mperr.E(mperr.BadFormat, "invalid CIGAR: "+err.Error())
	}
	al := alignedLine{
		QName: fields[0],
		Mapq:  mapq,
		Pos:   pos,
		Cigar: cigar,
		Seq:   []byte(fields[9]),
		Qual:  []byte(fields[10]),
	}
	for _, tag := range fields[11:] {
		if strings.HasPrefix(tag, "MD:Z:") {
			al.MD = strings.TrimPrefix(tag, "MD:Z:")
			break
		}
	}
	return al, nil
}
