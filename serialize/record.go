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

// Package serialize implements component C6: the parsed-mutations
// intermediate text format and the final counts/histogram TSV output.
package serialize

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/mapcount/mperr"
	"github.com/grailbio/mapcount/mutation"
)

// Record is one read's worth of the parsed-mutations intermediate format:
// the output of align.Parse (plus a read id), before shape/qualfilter have
// touched it.
type Record struct {
	ReadID          string
	Left            mutation.Pos
	Right           mutation.Pos
	LocalTargetSeq  []byte // uppercase
	LocalTargetQual []byte // numeric Phred, as produced by align.Parse
	Mutations       []mutation.Mutation
}

// asciiQual converts a slice of numeric Phred scores to ASCII-Phred33.
func asciiQual(numeric []byte) []byte {
	out := make([]byte, len(numeric))
	for i, q := range numeric {
		out[i] = q + 33
	}
	return out
}

// numericQual converts a slice of ASCII-Phred33 bytes to numeric Phred.
func numericQual(ascii []byte) []byte {
	out := make([]byte, len(ascii))
	for i, b := range ascii {
		if b < 33 {
			out[i] = 0
			continue
		}
		out[i] = b - 33
	}
	return out
}

// quoted wraps b in double quotes; an empty slice renders as `""`, per the
// parsed-mutations format's convention for empty seq/qual fields.
func quoted(b []byte) string {
	return `"` + string(b) + `"`
}

// Format renders rec as one line of the parsed-mutations format:
//
//	<read_id> <left> <right> <local_target_seq> <local_target_qual> [<m.left> <m.right> "<m.seq>" "<m.qual>"]*
//
// Parse(Format(rec)) reproduces every field the format carries. LocalTargetSeq
// is written uppercase, and a mutation's Tag and Ambig are not written, so
// they parse back zero-valued.
func Format(rec Record) string {
	var b strings.Builder
	b.WriteString(rec.ReadID)
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(int(rec.Left)))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(int(rec.Right)))
	b.WriteByte(' ')
	b.Write(bytes.ToUpper(rec.LocalTargetSeq))
	b.WriteByte(' ')
	b.Write(asciiQual(rec.LocalTargetQual))
	for _, m := range rec.Mutations {
		fmt.Fprintf(&b, " %d %d %s %s", m.Left, m.Right, quoted(m.Seq), quoted(asciiQual(m.Qual)))
	}
	return b.String()
}

// Parse reverses Format. It rejects a line whose mutation field count is not
// a multiple of four with a BadFormat error.
func Parse(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return Record{}, mperr.E(mperr.BadFormat, fmt.Sprintf("parsed-mutations line has %d fields, want at least 5", len(fields)))
	}
	left, err := strconv.Atoi(fields[1])
	if err != nil {
		return Record{}, mperr.E(mperr.BadFormat, "left field is not an integer: "+fields[1])
	}
	right, err := strconv.Atoi(fields[2])
	if err != nil {
		return Record{}, mperr.E(mperr.BadFormat, "right field is not an integer: "+fields[2])
	}
	rec := Record{
		ReadID:          fields[0],
		Left:            mutation.Pos(left),
		Right:           mutation.Pos(right),
		LocalTargetSeq:  []byte(fields[3]),
		LocalTargetQual: numericQual([]byte(fields[4])),
	}
	rest := fields[5:]
	if len(rest)%4 != 0 {
		return Record{}, mperr.E(mperr.BadFormat, fmt.Sprintf("mutation field count %d is not a multiple of 4", len(rest)))
	}
	for i := 0; i < len(rest); i += 4 {
		mLeft, err := strconv.Atoi(rest[i])
		if err != nil {
			return Record{}, mperr.E(mperr.BadFormat, "mutation left field is not an integer: "+rest[i])
		}
		mRight, err := strconv.Atoi(rest[i+1])
		if err != nil {
			return Record{}, mperr.E(mperr.BadFormat, "mutation right field is not an integer: "+rest[i+1])
		}
		seq, err := unquote(rest[i+2])
		if err != nil {
			return Record{}, err
		}
		asciiQ, err := unquote(rest[i+3])
		if err != nil {
			return Record{}, err
		}
		rec.Mutations = append(rec.Mutations, mutation.Mutation{
			Left:  mutation.Pos(mLeft),
			Right: mutation.Pos(mRight),
			Seq:   seq,
			Qual:  numericQual(asciiQ),
		})
	}
	return rec, nil
}

func unquote(tok string) ([]byte, error) {
	if len(tok) < 2 || tok[0] != '"' || tok[len(tok)-1] != '"' {
		return nil, mperr.E(mperr.BadFormat, "mutation seq/qual field is not quoted: "+tok)
	}
	return []byte(tok[1 : len(tok)-1]), nil
}

// Reader scans a parsed-mutations stream one Record at a time.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	path    string
}

// NewReader wraps r, tagging any BadFormat error with path and line number.
func NewReader(r io.Reader, path string) *Reader {
	return &Reader{scanner: bufio.NewScanner(r), path: path}
}

// Next returns the next Record, or io.EOF once the stream is exhausted.
// Blank lines are skipped.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimRight(r.scanner.Text(), "\r")
		if line == "" {
			continue
		}
		rec, err := Parse(line)
		if err != nil {
			return Record{}, mperr.E(mperr.BadFormat, fmt.Sprintf("%s:%d: %v", r.path, r.line, err))
		}
		return rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Record{}, mperr.E(mperr.InputIo, r.path, err)
	}
	return Record{}, io.EOF
}

// WriteRecord writes one Record as a line of the parsed-mutations format.
func WriteRecord(w io.Writer, rec Record) error {
	_, err := io.WriteString(w, Format(rec)+"\n")
	return err
}
