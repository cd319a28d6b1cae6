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

// Package mperr declares the closed set of error kinds the mutation-counting
// pipeline can produce, layered on top of github.com/grailbio/base/errors so
// that every error remains an *errors.Error usable by the rest of the
// ambient error-handling stack (errors.Once, %v chaining, etc).
package mperr

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Kind identifies one of the closed set of failure modes described in the
// mutation-counting engine's error handling design.
type Kind int

const (
	// InputIo is a failure reading the input stream.
	InputIo Kind = iota
	// OutputIo is a failure writing an output stream.
	OutputIo
	// BadFormat is a malformed line in a line-oriented input.
	BadFormat
	// MissingMdTag means an aligned record had no MD tag.
	MissingMdTag
	// CigarMdMismatch means the CIGAR and MD tag disagree about the
	// reference they describe.
	CigarMdMismatch
	// Malformed means a mutation's geometry was invalid (anchors and
	// substitution length both zero, etc).
	Malformed
	// OutOfWindow means a position fell outside the accumulator's current
	// window. Per spec this is only ever surfaced for caller misuse; normal
	// boundary cases are clamped silently.
	OutOfWindow
	// ConfigInvalid means a configuration option's value is not acceptable.
	ConfigInvalid
	// EmptyInput means the input file or stream contained no records.
	EmptyInput
)

var kindNames = [...]string{
	InputIo:         "input I/O error",
	OutputIo:        "output I/O error",
	BadFormat:       "malformed input",
	MissingMdTag:    "missing MD tag",
	CigarMdMismatch: "CIGAR/MD mismatch",
	Malformed:       "malformed mutation",
	OutOfWindow:     "position out of accumulator window",
	ConfigInvalid:   "invalid configuration",
	EmptyInput:      "empty input",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "unknown error"
	}
	return kindNames[k]
}

// E builds an *errors.Error tagged with kind, chaining args the same way
// errors.E does (a wrapped error, path/line/read-id context strings, etc).
// The kind's description is always included so messages are self-describing
// even when callers only match on substring content rather than type-asserting
// back to *errors.Error.
func E(kind Kind, args ...interface{}) error {
	full := make([]interface{}, 0, len(args)+1)
	full = append(full, kind.String()+":")
	full = append(full, args...)
	return errors.E(full...)
}

// Linef is a convenience wrapper for BadFormat errors tied to a specific
// line number in a line-oriented input file.
func Linef(path string, line int, format string, a ...interface{}) error {
	return E(BadFormat, fmt.Sprintf("%s:%d: %s", path, line, fmt.Sprintf(format, a...)))
}

// ReadIDf is a convenience wrapper for errors tied to a specific aligned
// read, identified by read id rather than line number.
func ReadIDf(kind Kind, readID string, format string, a ...interface{}) error {
	return E(kind, fmt.Sprintf("read %s: %s", readID, fmt.Sprintf(format, a...)))
}
