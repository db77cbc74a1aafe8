package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"situationmonitor/types"
)

func news(id string, ts int64) types.NewsItem {
	return types.NewsItem{ID: id, Title: id, Link: "https://example.com/" + id, Timestamp: ts}
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestStore_GetEmptyDefault(t *testing.T) {
	s := NewStore()
	entry := s.Get(types.CategoryTech)
	assert.NotNil(t, entry.Items)
	assert.Empty(t, entry.Items)
	assert.Zero(t, entry.LastUpdated)
	assert.Zero(t, s.LastUpdated())
}

func TestStore_SetReplacesWholeEntry(t *testing.T) {
	s := NewStore(WithClock(fixedClock(1000)))
	require.True(t, s.Set(types.CategoryTech, []types.NewsItem{news("a", 1), news("b", 2)}))
	require.True(t, s.Set(types.CategoryTech, []types.NewsItem{news("c", 3)}))

	entry := s.Get(types.CategoryTech)
	require.Len(t, entry.Items, 1)
	assert.Equal(t, "c", entry.Items[0].ID)
	assert.Equal(t, int64(1000), entry.LastUpdated)
}

func TestStore_KeepsStaleOverEmpty(t *testing.T) {
	s := NewStore()
	s.Set(types.CategoryGov, []types.NewsItem{news("a", 1)})

	assert.False(t, s.Set(types.CategoryGov, nil))
	assert.Len(t, s.Get(types.CategoryGov).Items, 1)

	assert.True(t, s.Set(types.CategoryAI, nil), "empty categories still get an entry")
	assert.NotZero(t, s.Get(types.CategoryAI).LastUpdated)
}

func TestStore_RealtimeFoldsIntoPolitics(t *testing.T) {
	s := NewStore()
	s.Set(types.CategoryRealtime, []types.NewsItem{news("a", 1)})
	assert.Len(t, s.Get(types.CategoryPolitics).Items, 1)
}

func TestStore_CallerMutationDoesNotLeak(t *testing.T) {
	s := NewStore()
	items := []types.NewsItem{news("a", 1)}
	s.Set(types.CategoryTech, items)
	items[0].Title = "changed"

	got := s.Get(types.CategoryTech)
	assert.Equal(t, "a", got.Items[0].Title)
	got.Items[0].Title = "changed again"
	assert.Equal(t, "a", s.Get(types.CategoryTech).Items[0].Title)
}

func TestStore_GetAllSortedByTimestamp(t *testing.T) {
	now := int64(100)
	s := NewStore(WithClock(func() time.Time { return time.UnixMilli(now) }))
	s.Set(types.CategoryTech, []types.NewsItem{news("t1", 10), news("t2", 40)})
	now = 200
	s.Set(types.CategoryFinance, []types.NewsItem{news("f1", 30), news("f2", 20)})

	all := s.GetAll()
	ids := make([]string, len(all))
	for i, item := range all {
		ids[i] = item.ID
	}
	assert.Equal(t, []string{"t2", "f1", "f2", "t1"}, ids)
	assert.Equal(t, int64(200), s.LastUpdated())
}

func TestStore_ConcurrentReadersSeeWholeEntries(t *testing.T) {
	s := NewStore()
	small := []types.NewsItem{news("a", 1)}
	large := []types.NewsItem{news("a", 1), news("b", 2), news("c", 3)}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				s.Set(types.CategoryIntel, small)
			} else {
				s.Set(types.CategoryIntel, large)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			n := len(s.Get(types.CategoryIntel).Items)
			assert.Contains(t, []int{0, 1, 3}, n)
		}
	}()
	wg.Wait()
}

type failingMirror struct{}

func (failingMirror) Save(context.Context, types.Category, types.CacheEntry) error {
	return errors.New("down")
}

func (failingMirror) LoadAll(context.Context) (map[types.Category]types.CacheEntry, error) {
	return nil, errors.New("down")
}

func TestStore_MirrorFailureIsNotFatal(t *testing.T) {
	s := NewStore(WithMirror(failingMirror{}))
	assert.True(t, s.Set(types.CategoryTech, []types.NewsItem{news("a", 1)}))
	assert.Len(t, s.Get(types.CategoryTech).Items, 1)

	_, err := s.Warm(context.Background())
	assert.Error(t, err)
}

func TestRedisMirror_RoundTripAndWarm(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mirror := NewRedisMirror(client, "", 15*time.Minute)
	defer mirror.Close()

	first := NewStore(WithMirror(mirror), WithClock(fixedClock(5000)))
	first.Set(types.CategoryTech, []types.NewsItem{news("a", 1), news("b", 2)})

	assert.True(t, mr.Exists(DefaultMirrorPrefix+"tech"))
	assert.Equal(t, 15*time.Minute, mr.TTL(DefaultMirrorPrefix+"tech"))

	require.NoError(t, mr.Set(DefaultMirrorPrefix+"gov", "not json"))

	second := NewStore(WithMirror(mirror))
	n, err := second.Warm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entry := second.Get(types.CategoryTech)
	assert.Len(t, entry.Items, 2)
	assert.Equal(t, int64(5000), entry.LastUpdated)
	assert.Empty(t, second.Get(types.CategoryGov).Items)
}
