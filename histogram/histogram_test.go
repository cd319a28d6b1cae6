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
package histogram

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutationsPerReadHasOneBucketPerValue(t *testing.T) {
	h := NewMutationsPerReadHistogram()
	h.Add(0)
	h.Add(5)
	h.Add(5)
	bins := h.Bins()
	require.Len(t, bins, 21)
	require.Equal(t, 1, bins[0])
	require.Equal(t, 2, bins[5])
}

func TestMutationsPerReadOverflowPilesIntoLastBucket(t *testing.T) {
	h := NewMutationsPerReadHistogram()
	h.Add(20)
	h.Add(21)
	h.Add(1000)
	bins := h.Bins()
	require.Equal(t, 3, bins[20], "values >= 20 should all land in the last bucket")
}

func TestReadLengthHasTwentyOneFiftyWideBuckets(t *testing.T) {
	h := NewReadLengthHistogram()
	require.Len(t, h.Bins(), 21)
	h.Add(0)
	h.Add(49)
	h.Add(50)
	h.Add(2000)
	bins := h.Bins()
	require.Equal(t, 2, bins[0], "values 0 and 49 should land in bucket 0 (width 50)")
	require.Equal(t, 1, bins[1], "value 50 should land in bucket 1")
	require.Equal(t, 1, bins[20], "value 2000 should pile into the last bucket")
}

func TestWriteTableFormatsOverflowBucket(t *testing.T) {
	h := NewMutationsPerReadHistogram()
	h.Add(0)
	h.Add(25)
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, "mutations_per_read", h))
	out := buf.String()
	require.True(t, strings.Contains(out, "20+\t1"), "expected an overflow row \"20+\\t1\", got %q", out)
	require.True(t, strings.HasPrefix(out, "mutations_per_read\tcount\n"), "expected header line, got %q", out)
}
