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
package serialize

import (
	"context"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/mapcount/mperr"
	"github.com/klauspost/compress/gzip"
)

// Input is a scoped, transparently-decompressing input handle: Close
// releases the underlying file.File (and, for a .gz path, the gzip.Reader).
type Input struct {
	f      file.File
	gz     *gzip.Reader
	Reader io.Reader
}

// OpenInput opens path for reading, applying the klauspost/compress gzip
// codec transparently when path's suffix is recognized as gzip (spec §4.6
// "Compression").
func OpenInput(ctx context.Context, path string) (*Input, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, mperr.E(mperr.InputIo, path, err)
	}
	in := &Input{f: f, Reader: f.Reader(ctx)}
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(in.Reader)
		if err != nil {
			_ = f.Close(ctx)
			return nil, mperr.E(mperr.InputIo, path, err)
		}
		in.gz = gz
		in.Reader = gz
	}
	return in, nil
}

// Close releases the input handle, reporting the first error encountered
// into *errp without discarding one already set (the same "latch the first
// failure" convention errors.Once encodes).
func (in *Input) Close(ctx context.Context, errp *error) {
	if in.gz != nil {
		if err := in.gz.Close(); err != nil && *errp == nil {
			*errp = mperr.E(mperr.InputIo, err)
		}
	}
	file.CloseAndReport(ctx, in.f, errp)
}

// Output is a scoped, transparently-compressing output handle.
type Output struct {
	f      file.File
	gz     *gzip.Writer
	Writer io.Writer
}

// OpenOutput creates path for writing, applying the gzip codec transparently
// when path's suffix is recognized as gzip.
func OpenOutput(ctx context.Context, path string) (*Output, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, mperr.E(mperr.OutputIo, path, err)
	}
	out := &Output{f: f, Writer: f.Writer(ctx)}
	if fileio.DetermineType(path) == fileio.Gzip {
		gz := gzip.NewWriter(out.Writer)
		out.gz = gz
		out.Writer = gz
	}
	return out, nil
}

// Close flushes and releases the output handle.
func (out *Output) Close(ctx context.Context, errp *error) {
	if out.gz != nil {
		if err := out.gz.Close(); err != nil && *errp == nil {
			*errp = mperr.E(mperr.OutputIo, err)
		}
	}
	file.CloseAndReport(ctx, out.f, errp)
}
