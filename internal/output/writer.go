// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Writer handles NDJSON output to a file or io.Writer.
type Writer struct {
	mu      sync.Mutex
	output  io.Writer
	encoder *json.Encoder
	count   int

	// Set for file output only.
	file   *os.File
	target string
	closed bool
}

// NewWriter creates a new NDJSON writer that writes to the specified output.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		output:  w,
		encoder: json.NewEncoder(w),
	}
}

// NewFileWriter creates a writer whose records become visible at filename
// only once Close succeeds.
func NewFileWriter(filename string) (*Writer, error) {
	file, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &Writer{
		output:  file,
		encoder: json.NewEncoder(file),
		file:    file,
		target:  filename,
	}, nil
}

// Open returns a file writer for path, or a writer on stdout when path is
// empty or "-".
func Open(path string, stdout io.Writer) (*Writer, error) {
	if path == "" || path == "-" {
		return NewWriter(stdout), nil
	}
	return NewFileWriter(path)
}

// Write writes a single record as one NDJSON line.
func (w *Writer) Write(record interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("write to closed writer")
	}
	if err := w.encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close finishes the output. For file output it syncs the temporary file
// and renames it to the target name.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.file == nil {
		w.closed = true
		return nil
	}
	w.closed = true

	if err := w.file.Sync(); err != nil {
		w.discard()
		return fmt.Errorf("failed to sync output file: %w", err)
	}
	if err := w.file.Close(); err != nil {
		_ = os.Remove(w.file.Name())
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(w.file.Name(), w.target); err != nil {
		_ = os.Remove(w.file.Name())
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// Abort drops file output without touching the target. It is a no-op for
// stream output and after Close.
func (w *Writer) Abort() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.file == nil {
		w.closed = true
		return
	}
	w.closed = true
	w.discard()
}

func (w *Writer) discard() {
	_ = w.file.Close()
	_ = os.Remove(w.file.Name())
}
