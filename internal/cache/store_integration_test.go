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

//go:build integration

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirseerhq/starscan/internal/fetch"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Redis container not available: %v", err)
	}
	t.Cleanup(func() {
		_ = redisContainer.Terminate(context.Background())
	})

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}

type cachedRepo struct {
	Name  string `json:"name"`
	Stars int    `json:"stars"`
}

func TestStore_Integration_SetAndGet(t *testing.T) {
	store := NewStore(setupRedis(t), time.Minute)
	ctx := context.Background()
	key := Key{Strategy: "cursor", Query: "stars:>10000", TargetTotal: 2, BatchSize: 2}

	var miss Entry[cachedRepo]
	if err := store.Get(ctx, key, &miss); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() on empty cache error = %v, want ErrCacheMiss", err)
	}

	entry := Entry[cachedRepo]{
		Records:  []cachedRepo{{"a/one", 10}, {"b/two", 5}},
		Report:   fetch.Report{Strategy: "cursor", Collected: 2},
		StoredAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got Entry[cachedRepo]
	if err := store.Get(ctx, key, &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Records) != 2 || got.Records[1] != entry.Records[1] || got.Report.Collected != 2 {
		t.Errorf("Get() = %+v", got)
	}
	if !got.StoredAt.Equal(entry.StoredAt) {
		t.Errorf("StoredAt = %v, want %v", got.StoredAt, entry.StoredAt)
	}
}

func TestStore_Integration_TTL(t *testing.T) {
	client := setupRedis(t)
	store := NewStore(client, 2*time.Second)
	ctx := context.Background()
	key := Key{Strategy: "bulk"}

	if err := store.Set(ctx, key, Entry[int]{Records: []int{1}}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	ttl, err := client.TTL(ctx, key.String()).Result()
	if err != nil {
		t.Fatal(err)
	}
	if ttl <= 0 || ttl > 2*time.Second {
		t.Errorf("TTL = %v, want within (0, 2s]", ttl)
	}
}

func TestStore_Integration_InvalidEntry(t *testing.T) {
	client := setupRedis(t)
	store := NewStore(client, time.Minute)
	ctx := context.Background()
	key := Key{Strategy: "bulk"}

	if err := client.Set(ctx, key.String(), "not json", time.Minute).Err(); err != nil {
		t.Fatal(err)
	}
	var out Entry[int]
	if err := store.Get(ctx, key, &out); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Get() error = %v, want ErrInvalidEntry", err)
	}
}
