package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheHelper_SetGet(t *testing.T) {
	cm, _ := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		ID   uint   `json:"id"`
		Text string `json:"text"`
	}

	if err := cm.Question.Set(ctx, "id:1", payload{ID: 1, Text: "What is 2+2?"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got payload
	if err := cm.Question.Get(ctx, "id:1", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != 1 || got.Text != "What is 2+2?" {
		t.Errorf("Get = %+v", got)
	}
}

func TestCacheHelper_GetMiss(t *testing.T) {
	cm, _ := newTestCache(t)

	var dest map[string]any
	err := cm.Question.Get(context.Background(), "id:404", &dest)
	if err != ErrCacheNotFound {
		t.Errorf("Get miss = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelper_NilClientDegrades(t *testing.T) {
	cm := NewCacheManager(nil)
	ctx := context.Background()

	if err := cm.Question.Set(ctx, "id:1", "x", time.Minute); err != nil {
		t.Errorf("Set on nil client = %v, want nil", err)
	}
	var dest string
	if err := cm.Question.Get(ctx, "id:1", &dest); err != ErrCacheNotAvailable {
		t.Errorf("Get on nil client = %v, want ErrCacheNotAvailable", err)
	}
	if err := cm.Question.InvalidatePattern(ctx, "*"); err != nil {
		t.Errorf("InvalidatePattern on nil client = %v, want nil", err)
	}
}

func TestInvalidateQuestion_DropsAllStaleKeys(t *testing.T) {
	cm, mr := newTestCache(t)
	ctx := context.Background()

	subjectID := uint(7)

	// Seed the three key families a question mutation can leave stale.
	seed := map[string]string{
		"question:id:42":           `{"id":42}`,
		"question:list:p1":         `[]`,
		"question:list:p2":         `[]`,
		"question:subject:7:list":  `[]`,
		"question:subject:9:list":  `[]`,
		"question:id:43":           `{"id":43}`,
	}
	for k, v := range seed {
		mr.Set(k, v)
	}

	InvalidateQuestion(ctx, cm, 42, &subjectID)

	for _, gone := range []string{"question:id:42", "question:list:p1", "question:list:p2", "question:subject:7:list"} {
		if mr.Exists(gone) {
			t.Errorf("key %s should have been invalidated", gone)
		}
	}
	for _, kept := range []string{"question:subject:9:list", "question:id:43"} {
		if !mr.Exists(kept) {
			t.Errorf("key %s should have survived", kept)
		}
	}
}

func TestCacheOrExecute(t *testing.T) {
	cm, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return fmt.Sprintf("value-%d", calls), nil
	}

	var got string
	if err := cm.Exam.CacheOrExecute(ctx, "id:1", &got, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute: %v", err)
	}
	if got != "value-1" {
		t.Errorf("first call = %q", got)
	}

	// Second call must come from cache.
	if err := cm.Exam.CacheOrExecute(ctx, "id:1", &got, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute: %v", err)
	}
	if got != "value-1" || calls != 1 {
		t.Errorf("second call = %q with %d fetches, want cached value-1 with 1 fetch", got, calls)
	}
}
