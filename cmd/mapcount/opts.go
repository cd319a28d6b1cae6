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
	"github.com/grailbio/mapcount/mperr"
	"github.com/grailbio/mapcount/qualfilter"
	"github.com/grailbio/mapcount/shape"
)

// Opts holds mapcount's external configuration, one field per recognized
// option from spec §6.
type Opts struct {
	MinMapq             int
	MinQual             int
	Exclude3Prime       int
	MaxInternalMatch    int
	RightAlignAmbigDels bool
	RightAlignAmbigIns  bool
	SeparateAmbigCounts bool
	MutationType        string
	VariantMode         bool
	InputIsSorted       bool
	SeqLen              int
	AdductDirection     string // "right_to_left" (default, only supported value) or "left_to_right"
	WarnOnEmpty         bool
	SkipBadRecords      bool
	MaxRetainedInsLen   int
}

// DefaultOpts returns the option defaults named in spec §6.
func DefaultOpts() Opts {
	return Opts{
		MinMapq:          30,
		MinQual:          30,
		Exclude3Prime:    0,
		MaxInternalMatch: 6,
		MutationType:     "any",
		AdductDirection:  "right_to_left",
	}
}

// Validate rejects configuration combinations spec §9's open questions name
// as unsupported, returning an mperr.ConfigInvalid error.
func (o Opts) Validate() error {
	if o.AdductDirection != "right_to_left" {
		return mperr.E(mperr.ConfigInvalid, "adduct_direction: only right_to_left is supported, got "+o.AdductDirection)
	}
	switch o.MutationType {
	case "", "any", "mismatch", "gap", "insert", "gap_multi", "insert_multi", "complex":
	default:
		return mperr.E(mperr.ConfigInvalid, "mutation_type: unrecognized value "+o.MutationType)
	}
	return nil
}

func (o Opts) shapeConfig() shape.Config {
	return shape.Config{
		Exclude3Prime:       o.Exclude3Prime,
		MaxInternalMatch:    o.MaxInternalMatch,
		RightAlignAmbigDels: o.RightAlignAmbigDels,
		RightAlignAmbigIns:  o.RightAlignAmbigIns,
	}
}

func (o Opts) qualFilterConfig() qualfilter.Config {
	return qualfilter.Config{
		MinQual:       o.MinQual,
		Exclude3Prime: o.Exclude3Prime,
		MutationType:  o.MutationType,
		VariantMode:   o.VariantMode,
	}
}
