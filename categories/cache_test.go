package categories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/newsdesk/content"
)

type fakeCounter struct {
	mu     sync.Mutex
	counts []content.CategoryCount
	err    error
	calls  int
}

func (f *fakeCounter) CountByCategory(ctx context.Context) ([]content.CategoryCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]content.CategoryCount(nil), f.counts...), nil
}

func (f *fakeCounter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestGetRanksAndTruncates(t *testing.T) {
	var counts []content.CategoryCount
	for i := 0; i < 10; i++ {
		counts = append(counts, content.CategoryCount{Name: fmt.Sprintf("cat%02d", i), Count: i})
	}
	counts = append(counts, content.CategoryCount{Name: "", Count: 100})
	counts = append(counts, content.CategoryCount{Name: "Alpha", Count: 9})
	src := &fakeCounter{counts: counts}
	c := New(src)

	got := c.Get(context.Background(), time.Now())

	require.Len(t, got, DefaultLimit)
	assert.Equal(t, []string{"Alpha", "cat09", "cat08", "cat07", "cat06", "cat05", "cat04", "cat03"}, got)
}

func TestGetServesFreshEntryWithoutQuerying(t *testing.T) {
	src := &fakeCounter{counts: []content.CategoryCount{{Name: "World", Count: 3}, {Name: "Tech", Count: 5}}}
	c := New(src)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	first := c.Get(context.Background(), now)
	second := c.Get(context.Background(), now.Add(time.Minute))
	third := c.Get(context.Background(), now.Add(DefaultTTL))

	assert.Equal(t, []string{"Tech", "World"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
	assert.Equal(t, 1, src.Calls())
	assert.Equal(t, now.Add(DefaultTTL), c.ExpiresAt())
}

func TestGetRecomputesOnceAfterExpiry(t *testing.T) {
	src := &fakeCounter{counts: []content.CategoryCount{{Name: "Tech", Count: 1}}}
	c := New(src)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c.Get(context.Background(), now)
	src.mu.Lock()
	src.counts = []content.CategoryCount{{Name: "Sport", Count: 4}, {Name: "Tech", Count: 1}}
	src.mu.Unlock()

	later := now.Add(DefaultTTL + time.Second)
	got := c.Get(context.Background(), later)
	again := c.Get(context.Background(), later.Add(time.Second))

	assert.Equal(t, []string{"Sport", "Tech"}, got)
	assert.Equal(t, got, again)
	assert.Equal(t, 2, src.Calls())
	assert.Equal(t, later.Add(DefaultTTL), c.ExpiresAt())
}

func TestGetDegradesToEmptyAndRetriesOnError(t *testing.T) {
	src := &fakeCounter{err: errors.New("db down")}
	c := New(src)
	now := time.Now()

	got := c.Get(context.Background(), now)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.True(t, c.ExpiresAt().IsZero())

	src.mu.Lock()
	src.err = nil
	src.counts = []content.CategoryCount{{Name: "Tech", Count: 2}}
	src.mu.Unlock()

	got = c.Get(context.Background(), now)
	assert.Equal(t, []string{"Tech"}, got)
	assert.Equal(t, 2, src.Calls())
}

func TestGetReturnsCopies(t *testing.T) {
	src := &fakeCounter{counts: []content.CategoryCount{{Name: "Tech", Count: 2}}}
	c := New(src)
	now := time.Now()

	got := c.Get(context.Background(), now)
	got[0] = "mutated"

	assert.Equal(t, []string{"Tech"}, c.Get(context.Background(), now))
}

func TestGetConcurrentCallersShareOneRefresh(t *testing.T) {
	src := &fakeCounter{counts: []content.CategoryCount{{Name: "Tech", Count: 2}}}
	c := New(src, WithTTL(time.Hour))
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, []string{"Tech"}, c.Get(context.Background(), now))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, src.Calls())
}
