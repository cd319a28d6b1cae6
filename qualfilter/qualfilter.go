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

// Package qualfilter decides, per read, which reference positions count
// toward effective depth and which shaped mutations count toward the
// output: component C4 of the mutation-counting engine.
package qualfilter

import "github.com/grailbio/mapcount/mutation"

// Config holds the quality/adduct filter's external configuration.
type Config struct {
	MinQual       int
	Exclude3Prime int
	MutationType  string // mismatch|gap|insert|gap_multi|insert_multi|complex|any
	VariantMode   bool
}

// Result is the named aggregate C4 returns in place of the source's long
// return tuple.
type Result struct {
	EffectiveDepth []bool
	EffectiveCount []bool
	Included       []mutation.Mutation
	Excluded       []mutation.Mutation
}

// Filter evaluates the quality/adduct rules over one read's shaped,
// classified mutations. localTargetSeq/localTargetQual and leftTargetPos
// describe the read exactly as they do throughout the pipeline;
// EffectiveDepth/EffectiveCount have length len(localTargetSeq) -
// cfg.Exclude3Prime.
func Filter(cfg Config, leftTargetPos mutation.Pos, localTargetSeq, localTargetQual []byte, muts []mutation.Mutation) Result {
	windowLen := len(localTargetSeq) - cfg.Exclude3Prime
	if windowLen < 0 {
		windowLen = 0
	}
	effectiveDepth := make([]bool, windowLen)
	effectiveCount := make([]bool, windowLen)

	inMutation := make([]bool, len(localTargetSeq))
	for _, m := range muts {
		for p := int(m.Left) + 1; p <= int(m.Right)-1; p++ {
			idx := p - int(leftTargetPos)
			if idx >= 0 && idx < len(inMutation) {
				inMutation[idx] = true
			}
		}
	}

	minQual := byte(cfg.MinQual)

	// Pass 1: non-mutation positions.
	for p := 0; p < windowLen; p++ {
		if inMutation[p] {
			continue
		}
		ok := localTargetQual[p] >= minQual
		if ok {
			if lb, have := neighborQual(p-1, -1, localTargetQual, muts, leftTargetPos); have {
				ok = lb >= minQual
			}
		}
		if ok {
			if rb, have := neighborQual(p+1, +1, localTargetQual, muts, leftTargetPos); have {
				ok = rb >= minQual
			}
		}
		effectiveDepth[p] = ok
	}

	var included, excluded []mutation.Mutation

	// Pass 2: mutation positions.
	for _, m := range muts {
		// N_match is an ambiguous basecall, not a real variant; it is never
		// written to counts, so it is always treated as excluded here
		// regardless of the requested mutation_type.
		typeExcluded := m.Tag == mutation.NMatch || !m.Tag.IsMutationType(cfg.MutationType)
		qualExcluded := false
		for _, q := range m.Qual {
			if q < minQual {
				qualExcluded = true
				break
			}
		}
		if !qualExcluded {
			if lb, ok := qualAt(localTargetQual, leftTargetPos, m.Left); ok && lb < minQual {
				qualExcluded = true
			}
		}
		if !qualExcluded {
			if rb, ok := qualAt(localTargetQual, leftTargetPos, m.Right); ok && rb < minQual {
				qualExcluded = true
			}
		}

		if typeExcluded || qualExcluded {
			excluded = append(excluded, m)
			clearInterior(effectiveDepth, leftTargetPos, m)
			continue
		}

		included = append(included, m)
		if cfg.VariantMode {
			markInterior(effectiveDepth, leftTargetPos, m)
			continue
		}
		clearInterior(effectiveDepth, leftTargetPos, m)
		adductIdx := int(m.Right) - 1 - int(leftTargetPos)
		if adductIdx >= 0 && adductIdx < windowLen {
			effectiveDepth[adductIdx] = true
			effectiveCount[adductIdx] = true
		}
	}

	return Result{
		EffectiveDepth: effectiveDepth,
		EffectiveCount: effectiveCount,
		Included:       included,
		Excluded:       excluded,
	}
}

func clearInterior(effectiveDepth []bool, leftTargetPos mutation.Pos, m mutation.Mutation) {
	for p := int(m.Left) + 1; p <= int(m.Right)-1; p++ {
		idx := p - int(leftTargetPos)
		if idx >= 0 && idx < len(effectiveDepth) {
			effectiveDepth[idx] = false
		}
	}
}

func markInterior(effectiveDepth []bool, leftTargetPos mutation.Pos, m mutation.Mutation) {
	for p := int(m.Left) + 1; p <= int(m.Right)-1; p++ {
		idx := p - int(leftTargetPos)
		if idx >= 0 && idx < len(effectiveDepth) {
			effectiveDepth[idx] = true
		}
	}
}

func qualAt(localTargetQual []byte, leftTargetPos, pos mutation.Pos) (byte, bool) {
	idx := int(pos - leftTargetPos)
	if idx < 0 || idx >= len(localTargetQual) {
		return 0, false
	}
	return localTargetQual[idx], true
}

// mutationContaining returns the mutation whose open interior
// (m.Left, m.Right) strictly contains reference position leftTargetPos+q,
// if any.
func mutationContaining(muts []mutation.Mutation, leftTargetPos mutation.Pos, q int) (mutation.Mutation, bool) {
	pos := leftTargetPos + mutation.Pos(q)
	for _, m := range muts {
		if m.Left < pos && pos < m.Right {
			return m, true
		}
	}
	return mutation.Mutation{}, false
}

// neighborQual implements the cross-mutation neighbor rule: if position q
// (q = p-1 or p+1, one step from the position under test in direction dir)
// falls inside a mutation, a gap contributes no basecall of its own, so the
// rule looks past it to the anchor on the far side in the same direction;
// an insertion or mismatch does carry basecalls, so the rule uses the one
// closest to the position under test. have is false at the edge of
// localTargetQual, where the rule silently clamps (the edge requirement is
// treated as satisfied, per the design note on this behavior).
func neighborQual(q, dir int, localTargetQual []byte, muts []mutation.Mutation, leftTargetPos mutation.Pos) (byte, bool) {
	if q < 0 || q >= len(localTargetQual) {
		return 0, false
	}
	m, ok := mutationContaining(muts, leftTargetPos, q)
	if !ok {
		return localTargetQual[q], true
	}
	if len(m.Seq) == 0 {
		var far int
		if dir < 0 {
			far = int(m.Left) - int(leftTargetPos)
		} else {
			far = int(m.Right) - int(leftTargetPos)
		}
		if far < 0 || far >= len(localTargetQual) {
			return 0, false
		}
		return localTargetQual[far], true
	}
	if dir < 0 {
		return m.Qual[len(m.Qual)-1], true
	}
	return m.Qual[0], true
}
