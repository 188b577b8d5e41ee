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

package fetch

import "testing"

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "bulk", want: Bulk},
		{in: "Partitioned", want: Partitioned},
		{in: "partition", want: Partitioned},
		{in: " cursor ", want: Cursor},
		{in: "paginated", want: Cursor},
		{in: "graphql", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	for _, k := range []Kind{Bulk, Partitioned, Cursor} {
		parsed, err := ParseKind(k.String())
		if err != nil || parsed != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), parsed, err)
		}
	}
	if got := Kind(9).String(); got != "kind(9)" {
		t.Errorf("Kind(9).String() = %q", got)
	}
}

func TestParseQueryErrorPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    QueryErrorPolicy
		wantErr bool
	}{
		{in: "", want: QueryErrorAbort},
		{in: "abort", want: QueryErrorAbort},
		{in: "SKIP", want: QueryErrorSkip},
		{in: "retry", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseQueryErrorPolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseQueryErrorPolicy(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseQueryErrorPolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
