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

package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	relaierrors "github.com/sirseerhq/starscan/internal/errors"
	"github.com/sirseerhq/starscan/internal/giterror"
	"github.com/sirseerhq/starscan/test/testutil"
)

func TestGraphQLClient_SearchRepositories(t *testing.T) {
	server := testutil.NewSearchServer(t, 10)
	client := NewGraphQLClient("test-token", server.GraphQLURL(), 5*time.Second)

	page, err := client.SearchRepositories(context.Background(), DefaultQuery, 4, "")
	if err != nil {
		t.Fatalf("SearchRepositories() error = %v", err)
	}

	if len(page.Records) != 4 {
		t.Fatalf("len(Records) = %d, want 4", len(page.Records))
	}
	if !page.HasNextPage || page.EndCursor != "cursor:4" {
		t.Errorf("HasNextPage = %v, EndCursor = %q", page.HasNextPage, page.EndCursor)
	}

	first := page.Records[0]
	if first.NameWithOwner != "owner0/repo0" || first.StargazerCount != 250000 {
		t.Errorf("first record = %+v", first)
	}
	if first.PrimaryLanguage != "Go" {
		t.Errorf("PrimaryLanguage = %q, want Go", first.PrimaryLanguage)
	}
	if first.CreatedAt.Year() != 2008 {
		t.Errorf("CreatedAt = %v", first.CreatedAt)
	}

	// Rank 3 has no primary language.
	if lang := page.Records[3].PrimaryLanguage; lang != "" {
		t.Errorf("PrimaryLanguage = %q, want empty", lang)
	}
	if r := page.Records[2]; r.MergedPullRequests != 20 || r.Issues != 40 || r.ClosedIssues != 30 || r.Releases != 2 {
		t.Errorf("counts = %+v", r)
	}

	reqs := server.Requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	if reqs[0].SearchQuery() != DefaultQuery || reqs[0].First() != 4 {
		t.Errorf("variables = %v", reqs[0].Variables)
	}
	if v, ok := reqs[0].Variables["after"]; !ok || v != nil {
		t.Errorf("after = %v (present %v), want explicit null", v, ok)
	}
}

func TestGraphQLClient_SearchRepositoriesNextPage(t *testing.T) {
	server := testutil.NewSearchServer(t, 10)
	client := NewGraphQLClient("test-token", server.GraphQLURL(), 5*time.Second)

	page, err := client.SearchRepositories(context.Background(), DefaultQuery, 500, "cursor:8")
	if err != nil {
		t.Fatalf("SearchRepositories() error = %v", err)
	}
	if len(page.Records) != 2 || page.HasNextPage {
		t.Errorf("len(Records) = %d, HasNextPage = %v", len(page.Records), page.HasNextPage)
	}

	req := server.Requests()[0]
	if req.After() != "cursor:8" {
		t.Errorf("after = %q", req.After())
	}
	if req.First() != MaxPageSize {
		t.Errorf("first = %d, want capped at %d", req.First(), MaxPageSize)
	}
}

func TestGraphQLClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		reject    string
		wantClass giterror.Class
		wantErr   error
	}{
		{name: "service unavailable", status: http.StatusServiceUnavailable, wantClass: giterror.ClassTransient, wantErr: relaierrors.ErrRemoteStatus},
		{name: "bad gateway", status: http.StatusBadGateway, wantClass: giterror.ClassTransient, wantErr: relaierrors.ErrRemoteStatus},
		{name: "unauthorized", status: http.StatusUnauthorized, wantClass: giterror.ClassAuth, wantErr: relaierrors.ErrRemoteStatus},
		{name: "forbidden", status: http.StatusForbidden, wantClass: giterror.ClassAuth, wantErr: relaierrors.ErrRemoteStatus},
		{name: "not found", status: http.StatusNotFound, wantClass: giterror.ClassFatal, wantErr: relaierrors.ErrRemoteStatus},
		{name: "errors payload", reject: "Field 'stars' doesn't exist on type 'Repository'", wantClass: giterror.ClassQuery, wantErr: relaierrors.ErrQueryRejected},
	}

	inspector := giterror.NewInspector()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewSearchServer(t, 10)
			if tt.status != 0 {
				server.FailNext(tt.status)
			}
			if tt.reject != "" {
				server.RejectQueries(tt.reject)
			}
			client := NewGraphQLClient("test-token", server.GraphQLURL(), 5*time.Second)

			_, err := client.SearchRepositories(context.Background(), DefaultQuery, 10, "")
			if err == nil {
				t.Fatal("SearchRepositories() error = nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if got := inspector.Classify(err); got != tt.wantClass {
				t.Errorf("Classify() = %v, want %v", got, tt.wantClass)
			}

			var statusErr *giterror.StatusError
			if tt.status != 0 && (!errors.As(err, &statusErr) || statusErr.Code != tt.status) {
				t.Errorf("status error = %v, want code %d", statusErr, tt.status)
			}
		})
	}
}

func TestGraphQLClient_RequestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := NewGraphQLClient("test-token", server.URL, 50*time.Millisecond)
	_, err := client.SearchRepositories(context.Background(), DefaultQuery, 10, "")
	if err == nil {
		t.Fatal("SearchRepositories() error = nil, want timeout")
	}
	if got := giterror.NewInspector().Classify(err); got != giterror.ClassTransient {
		t.Errorf("Classify() = %v, want transient", got)
	}
}

func TestGraphQLClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewGraphQLClient("test-token", url, time.Second)
	_, err := client.SearchRepositories(context.Background(), DefaultQuery, 10, "")
	if got := giterror.NewInspector().Classify(err); got != giterror.ClassTransient {
		t.Errorf("Classify(%v) = %v, want transient", err, got)
	}
}
