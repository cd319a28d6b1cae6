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
package align

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/mapcount/mperr"
)

type mdTokenKind int

const (
	mdMatch mdTokenKind = iota
	mdMismatch
	mdDelete
)

type mdToken struct {
	kind mdTokenKind
	n    int    // remaining match count, for mdMatch
	base byte   // reference base, for mdMismatch
	seq  []byte // deleted reference bases, for mdDelete
}

func isMDBase(c byte) bool {
	switch c {
	case 'A', 'C', 'G', 'T', 'N', 'a', 'c', 'g', 't', 'n':
		return true
	default:
		return false
	}
}

// parseMD tokenizes a bare MD tag value (without the "MD:Z:" prefix) into a
// sequence of match-runs, single-base mismatches, and deletion runs, per the
// SAM spec's MD grammar ([0-9]+(([A-Z]|\^[A-Z]+)[0-9]+)*).
func parseMD(md string) ([]mdToken, error) {
	var toks []mdToken
	i, n := 0, len(md)
	for i < n {
		c := md[i]
		switch {
		case c >= '0' && c <= '9':
			j := i
			for j < n && md[j] >= '0' && md[j] <= '9' {
				j++
			}
			num, err := strconv.Atoi(md[i:j])
			if err != nil {
				return nil, mperr.E(mperr.BadFormat, fmt.Sprintf("MD tag %q: invalid run length", md))
			}
			if num > 0 {
				toks = append(toks, mdToken{kind: mdMatch, n: num})
			}
			i = j
		case c == '^':
			j := i + 1
			for j < n && isMDBase(md[j]) {
				j++
			}
			if j == i+1 {
				return nil, mperr.E(mperr.BadFormat, fmt.Sprintf("MD tag %q: empty deletion after '^'", md))
			}
			toks = append(toks, mdToken{kind: mdDelete, seq: []byte(strings.ToUpper(md[i+1 : j]))})
			i = j
		case isMDBase(c):
			toks = append(toks, mdToken{kind: mdMismatch, base: upperByte(c)})
			i++
		default:
			return nil, mperr.E(mperr.BadFormat, fmt.Sprintf("MD tag %q: unexpected character %q", md, c))
		}
	}
	return toks, nil
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// mdCursor walks the token stream produced by parseMD in lockstep with the
// CIGAR walk: nextAligned is called once per CIGAR match position, and
// nextDeleted once per CIGAR deletion position.
type mdCursor struct {
	toks []mdToken
	ti   int
	pos  int
}

// nextAligned advances past one reference position that CIGAR says is a
// match/mismatch (consumes one query base). isMismatch reports whether MD
// says this position differs from the reference; when it does, refBase is
// the reference base MD recorded (the query already holds the read's
// actual base).
func (c *mdCursor) nextAligned() (refBase byte, isMismatch bool, err error) {
	for {
		if c.ti >= len(c.toks) {
			return 0, false, mperr.E(mperr.CigarMdMismatch, "CIGAR has more aligned positions than the MD tag describes")
		}
		t := &c.toks[c.ti]
		switch t.kind {
		case mdMatch:
			if t.n == 0 {
				c.ti++
				continue
			}
			t.n--
			if t.n == 0 {
				c.ti++
			}
			return 0, false, nil
		case mdMismatch:
			c.ti++
			return t.base, true, nil
		case mdDelete:
			return 0, false, mperr.E(mperr.CigarMdMismatch, "MD tag has a deletion where CIGAR has an alignment match")
		}
	}
}

// nextDeleted advances past one reference position that CIGAR says is
// deleted (consumes no query base); refBase is the deleted reference base
// MD recorded.
func (c *mdCursor) nextDeleted() (refBase byte, err error) {
	for {
		if c.ti >= len(c.toks) {
			return 0, mperr.E(mperr.CigarMdMismatch, "CIGAR has more deleted positions than the MD tag describes")
		}
		t := &c.toks[c.ti]
		switch t.kind {
		case mdDelete:
			b := t.seq[c.pos]
			c.pos++
			if c.pos == len(t.seq) {
				c.ti++
				c.pos = 0
			}
			return b, nil
		case mdMatch:
			if t.n == 0 {
				c.ti++
				continue
			}
			return 0, mperr.E(mperr.CigarMdMismatch, "MD tag has a match where CIGAR has a deletion")
		case mdMismatch:
			return 0, mperr.E(mperr.CigarMdMismatch, "MD tag has a mismatch where CIGAR has a deletion")
		}
	}
}

// done reports whether every MD token has been fully consumed. Tokens are
// dropped from the front as soon as they're exhausted (see nextAligned/
// nextDeleted), so this is simply "no tokens left".
func (c *mdCursor) done() bool {
	return c.ti >= len(c.toks)
}
