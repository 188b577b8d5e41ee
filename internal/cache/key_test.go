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

package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
)

func TestKey_String(t *testing.T) {
	base := Key{
		Endpoint:    "https://api.github.com/graphql",
		Strategy:    "cursor",
		Query:       "stars:>10000 sort:stars-desc",
		TargetTotal: 100,
		BatchSize:   25,
	}

	if !strings.HasPrefix(base.String(), keyPrefix) {
		t.Fatalf("key %q lacks prefix", base.String())
	}
	same := base
	if same.String() != base.String() {
		t.Error("key is not deterministic")
	}

	variants := []struct {
		name   string
		modify func(*Key)
	}{
		{"endpoint", func(k *Key) { k.Endpoint = "https://ghe.example.com/api/graphql" }},
		{"strategy", func(k *Key) { k.Strategy = "bulk" }},
		{"query", func(k *Key) { k.Query = "stars:>5000" }},
		{"partitions", func(k *Key) { k.Partitions = []string{"stars:>=1"} }},
		{"target", func(k *Key) { k.TargetTotal = 50 }},
		{"batch", func(k *Key) { k.BatchSize = 10 }},
	}

	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			k := base
			v.modify(&k)
			if k.String() == base.String() {
				t.Errorf("changing %s did not change the key", v.name)
			}
		})
	}

	a := Key{Partitions: []string{"a", "b"}}
	b := Key{Partitions: []string{"b", "a"}}
	if a.String() == b.String() {
		t.Error("partition order should change the key")
	}
}

func TestNewStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewStore should panic with nil redis client")
		}
	}()
	NewStore(nil, time.Minute)
}

func TestStore_Unavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := NewStore(client, time.Minute)
	defer store.Close()

	before := testutil.ToFloat64(CacheErrors.WithLabelValues("get"))

	var out Entry[int]
	err := store.Get(context.Background(), Key{Strategy: "bulk"}, &out)
	if err == nil || errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() error = %v, want a connection error", err)
	}
	if got := testutil.ToFloat64(CacheErrors.WithLabelValues("get")) - before; got != 1 {
		t.Errorf("get errors delta = %v, want 1", got)
	}

	if err := store.Set(context.Background(), Key{}, Entry[int]{}); err == nil {
		t.Error("Set() error = nil against an unreachable server")
	}
}

func TestDial_Unavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := Dial(ctx, "127.0.0.1:1", time.Minute); err == nil {
		t.Error("Dial() error = nil against an unreachable server")
	}
}
