// Copyright 2026 basketcf Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blob

import (
	"context"
	"io"

	"github.com/basketcf/basketcf/config"
	"github.com/juju/errors"
)

// Store is an object store for published artifacts.
type Store interface {
	// Open a file for reading. It returns a NotFound error if the file does not exist.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Create a file for writing.
	Create(ctx context.Context, name string) (Writer, error)
}

// Writer is a file being written. The content is committed once Close returns without error.
// Abort discards the content and leaves any previous version of the file in place.
type Writer interface {
	io.WriteCloser
	Abort() error
}

var errAborted = errors.New("upload aborted")

// Open creates the store configured for output.
func Open(cfg config.OutputConfig) (Store, error) {
	switch cfg.Storage {
	case "", config.StoragePOSIX:
		return NewPOSIX(""), nil
	case config.StorageS3:
		return NewS3(cfg.S3)
	case config.StorageGCS:
		return NewGCS(cfg.GCS)
	case config.StorageAzure:
		return NewAzureBlob(cfg.Azure)
	}
	return nil, errors.NotSupportedf("output storage %q", cfg.Storage)
}

// pipeWriter streams writes to an upload running in another goroutine. Close waits for the
// upload and returns its error.
type pipeWriter struct {
	*io.PipeWriter
	done chan error
}

func newPipeWriter(upload func(r io.Reader) error) *pipeWriter {
	pr, pw := io.Pipe()
	w := &pipeWriter{PipeWriter: pw, done: make(chan error, 1)}
	go func() {
		err := upload(pr)
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w
}

func (w *pipeWriter) Close() error {
	if err := w.PipeWriter.Close(); err != nil {
		return errors.Trace(err)
	}
	return <-w.done
}

// Abort fails the upload with a read error so it is never committed.
func (w *pipeWriter) Abort() error {
	_ = w.PipeWriter.CloseWithError(errAborted)
	if err := <-w.done; err != nil && !errors.Is(err, errAborted) {
		return errors.Trace(err)
	}
	return nil
}
