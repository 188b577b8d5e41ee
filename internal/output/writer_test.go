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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestRecord is a simple test structure
type TestRecord struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

func (r TestRecord) String() string {
	return fmt.Sprintf("%s #%d", r.Name, r.ID)
}

// Compile-time check that Writer implements OutputWriter
var _ OutputWriter = (*Writer)(nil)

func TestWriter_Write(t *testing.T) {
	tests := []struct {
		name    string
		records []TestRecord
		want    []string
	}{
		{
			name: "single record",
			records: []TestRecord{
				{ID: 1, Name: "Test One", Active: true},
			},
			want: []string{
				`{"id":1,"name":"Test One","active":true}`,
			},
		},
		{
			name: "multiple records keep order",
			records: []TestRecord{
				{ID: 3, Name: "Test Three", Active: true},
				{ID: 1, Name: "Test One", Active: true},
				{ID: 2, Name: "Test Two", Active: false},
			},
			want: []string{
				`{"id":3,"name":"Test Three","active":true}`,
				`{"id":1,"name":"Test One","active":true}`,
				`{"id":2,"name":"Test Two","active":false}`,
			},
		},
		{
			name:    "empty records",
			records: []TestRecord{},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writer := NewWriter(&buf)

			if err := WriteAll(writer, tt.records); err != nil {
				t.Fatalf("WriteAll failed: %v", err)
			}
			if writer.Count() != len(tt.records) {
				t.Errorf("Count mismatch: got %d, want %d", writer.Count(), len(tt.records))
			}

			output := strings.TrimSpace(buf.String())
			if output == "" && len(tt.want) == 0 {
				return
			}

			lines := strings.Split(output, "\n")
			if len(lines) != len(tt.want) {
				t.Fatalf("Line count mismatch: got %d, want %d", len(lines), len(tt.want))
			}
			for i, line := range lines {
				if line != tt.want[i] {
					t.Errorf("Line %d mismatch:\ngot:  %s\nwant: %s", i, line, tt.want[i])
				}
			}
		})
	}
}

func TestNewFileWriter(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test.ndjson")

	writer, err := NewFileWriter(filename)
	if err != nil {
		t.Fatalf("NewFileWriter failed: %v", err)
	}

	records := []TestRecord{
		{ID: 1, Name: "File Test One", Active: true},
		{ID: 2, Name: "File Test Two", Active: false},
	}
	if err := WriteAll(writer, records); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	if _, err := os.Stat(filename); !os.IsNotExist(err) {
		t.Error("target file visible before Close")
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != len(records) {
		t.Fatalf("Line count mismatch: got %d, want %d", len(lines), len(records))
	}
	for i, line := range lines {
		var record TestRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			t.Fatalf("Failed to parse JSON at line %d: %v", i, err)
		}
		if record != records[i] {
			t.Errorf("line %d = %+v, want %+v", i, record, records[i])
		}
	}

	if err := writer.Write(records[0]); err == nil {
		t.Error("Write after Close succeeded")
	}
}

func TestFileWriter_Abort(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "aborted.ndjson")

	writer, err := NewFileWriter(filename)
	if err != nil {
		t.Fatalf("NewFileWriter failed: %v", err)
	}
	_ = writer.Write(TestRecord{ID: 1})
	writer.Abort()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("directory not empty after Abort: %v", entries)
	}
	if err := writer.Close(); err != nil {
		t.Errorf("Close after Abort = %v", err)
	}
}

func TestNewFileWriter_Error(t *testing.T) {
	_, err := NewFileWriter("/non/existent/path/test.ndjson")
	if err == nil {
		t.Error("Expected error for non-existent directory, got nil")
	}
}

func TestOpen(t *testing.T) {
	var stdout bytes.Buffer
	for _, path := range []string{"", "-"} {
		w, err := Open(path, &stdout)
		if err != nil {
			t.Fatalf("Open(%q) error = %v", path, err)
		}
		if err := w.Write(TestRecord{ID: 1}); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	if got := strings.Count(stdout.String(), "\n"); got != 2 {
		t.Errorf("stdout lines = %d, want 2", got)
	}
}

func TestWriter_WriteError(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf)

	if err := writer.Write(make(chan int)); err == nil {
		t.Error("Expected error when writing non-marshalable data")
	}
	if writer.Count() != 0 {
		t.Errorf("Count = %d after failed write", writer.Count())
	}
}

func TestWriteSample(t *testing.T) {
	records := []TestRecord{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}}

	tests := []struct {
		n     int
		lines int
	}{
		{n: 0, lines: 0},
		{n: 2, lines: 2},
		{n: 10, lines: 3},
		{n: -1, lines: 0},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		got, err := WriteSample(&buf, records, tt.n)
		if err != nil {
			t.Fatalf("WriteSample(%d) error = %v", tt.n, err)
		}
		if got != tt.lines || strings.Count(buf.String(), "\n") != tt.lines {
			t.Errorf("WriteSample(%d) = %d lines, output %q", tt.n, got, buf.String())
		}
	}

	var buf bytes.Buffer
	_, _ = WriteSample(&buf, records, 1)
	if buf.String() != "  1. a #1\n" {
		t.Errorf("sample line = %q", buf.String())
	}
}
