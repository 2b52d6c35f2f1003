package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/heartnote/internal/application"
	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
	domain "github.com/bryanwahyu/heartnote/internal/domain/history"
)

// mapStore is an in-test Store. limit > 0 rejects values larger than limit bytes.
type mapStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	limit   int
	getErr  error
	setCall int
}

func newMapStore() *mapStore { return &mapStore{data: map[string][]byte{}} }

func (s *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	b, ok := s.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (s *mapStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCall++
	if s.limit > 0 && len(value) > s.limit {
		return fmt.Errorf("set %s: %w", key, domain.ErrCapacityExceeded)
	}
	s.data[key] = value
	return nil
}

var issue = emotion.EmotionIssue{
	Emotions: []emotion.Tag{{Emoji: "😔", Label: "疲惫"}},
	Reasons:  []string{"工作太多"},
	Actions:  []emotion.Action{{Emoji: "🌿", Text: "早点睡"}, {Emoji: "💚", Text: "听首歌"}},
}

func newTestService(store domain.Store) *Service {
	return NewService(NewKVRepository(store, nil), application.FixedClock(now), nil)
}

func TestCommit_PrependsAndPersists(t *testing.T) {
	store := newMapStore()
	s := newTestService(store)
	ctx := context.Background()

	first, err := s.Commit(ctx, "alice", CommitCommand{Text: "第一条", Result: issue, Timestamp: daysAgo(1)})
	require.NoError(t, err)
	second, err := s.Commit(ctx, "alice", CommitCommand{Text: "第二条", Result: issue, UserReasons: []string{"没睡好"}, CompletedActions: []int{1}})
	require.NoError(t, err)

	assert.Equal(t, now.UnixMilli(), second.Timestamp)
	assert.Equal(t, []string{"工作太多", "没睡好"}, second.Analysis.Reasons)

	list, err := s.List(ctx, "alice", "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	_, ok := store.data["emotionHistory:alice"]
	assert.True(t, ok)

	other, err := s.List(ctx, "bob", "")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCommit_RejectsNonIssues(t *testing.T) {
	s := newTestService(newMapStore())
	_, err := s.Commit(context.Background(), "", CommitCommand{Text: "hi", Result: emotion.NotAnEmotionIssue{FriendlyMessage: "hi"}})
	assert.ErrorIs(t, err, domain.ErrNotEmotionIssue)

	_, err = s.Commit(context.Background(), "", CommitCommand{Text: " ", Result: issue})
	assert.ErrorIs(t, err, emotion.ErrEmptyInput)
}

func TestCommit_CapsAtFifty(t *testing.T) {
	s := newTestService(newMapStore())
	ctx := context.Background()
	for i := 0; i < domain.MaxRecords+5; i++ {
		_, err := s.Commit(ctx, "", CommitCommand{Text: fmt.Sprintf("记录 %d", i), Result: issue})
		require.NoError(t, err)
	}
	list, err := s.List(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, list, domain.MaxRecords)
	assert.Equal(t, "记录 54", list[0].FullText)
}

func TestSave_TrimsWhenStoreIsFull(t *testing.T) {
	store := newMapStore()
	repo := NewKVRepository(store, nil)
	ctx := context.Background()

	records := make([]domain.Record, 30)
	for i := range records {
		records[i] = domain.NewRecord(fmt.Sprintf("id-%02d", i), now, "好累", issue, nil, nil)
	}
	full, err := json.Marshal(records)
	require.NoError(t, err)
	store.limit = len(full) - 1

	require.NoError(t, repo.Save(ctx, "", records))
	assert.Equal(t, 2, store.setCall)

	loaded, err := repo.Load(ctx, "")
	require.NoError(t, err)
	require.Len(t, loaded, domain.TrimTo)
	assert.Equal(t, "id-00", loaded[0].ID)
	assert.Equal(t, "id-19", loaded[19].ID)
}

func TestSave_TrimRetryFailsOnce(t *testing.T) {
	store := newMapStore()
	store.limit = 10
	repo := NewKVRepository(store, nil)

	records := make([]domain.Record, 25)
	for i := range records {
		records[i] = domain.NewRecord(fmt.Sprintf("id-%d", i), now, "x", issue, nil, nil)
	}
	err := repo.Save(context.Background(), "", records)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.Equal(t, 2, store.setCall)
}

func TestLoad_ToleratesFailures(t *testing.T) {
	store := newMapStore()
	repo := NewKVRepository(store, nil)
	ctx := context.Background()

	store.getErr = errors.New("disk on fire")
	got, err := repo.Load(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, got)

	store.getErr = nil
	store.data[domain.Key("")] = []byte("not json")
	got, err = repo.Load(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestList_Search(t *testing.T) {
	s := newTestService(newMapStore())
	ctx := context.Background()
	_, err := s.Commit(ctx, "", CommitCommand{Text: "老板又让我加班", Result: issue})
	require.NoError(t, err)
	_, err = s.Commit(ctx, "", CommitCommand{Text: "周末一个人在家", Result: issue, UserReasons: []string{"朋友都很忙"}})
	require.NoError(t, err)

	got, err := s.List(ctx, "", "加班")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "老板又让我加班", got[0].FullText)

	got, err = s.List(ctx, "", "朋友")
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = s.List(ctx, "", "工作太多")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGet_EditDelete(t *testing.T) {
	s := newTestService(newMapStore())
	ctx := context.Background()

	older, err := s.Commit(ctx, "", CommitCommand{Text: "昨天", Result: emotion.EmotionIssue{
		Emotions: []emotion.Tag{{Emoji: "😰", Label: "焦虑"}},
	}, Timestamp: daysAgo(1)})
	require.NoError(t, err)
	latest, err := s.Commit(ctx, "", CommitCommand{Text: "今天", Result: issue, CompletedActions: []int{1}})
	require.NoError(t, err)

	d, err := s.Get(ctx, "", latest.ID)
	require.NoError(t, err)
	assert.Equal(t, "与上一条记录相比，本次情绪与你上次的「焦虑」有所不同", d.CompareText)
	assert.Equal(t, "轻微", d.Intensity)
	assert.Equal(t, []domain.CompletedAction{{Action: issue.Actions[1], Index: 1}}, d.CompletedActionList)

	d, err = s.Get(ctx, "", older.ID)
	require.NoError(t, err)
	assert.Equal(t, "这是你的最新一次记录", d.CompareText)

	edited, err := s.EditText(ctx, "", latest.ID, "  改过的内容  ")
	require.NoError(t, err)
	assert.Equal(t, "改过的内容", edited.FullText)
	assert.Equal(t, "改过的内容", edited.PreviewText)

	updated, err := s.SetCompletedActions(ctx, "", latest.ID, []int{1, 0, 9})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, updated.CompletedActions)

	require.NoError(t, s.Delete(ctx, "", older.ID))
	assert.ErrorIs(t, s.Delete(ctx, "", older.ID), domain.ErrRecordNotFound)
	_, err = s.Get(ctx, "", older.ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	list, err := s.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "改过的内容", list[0].FullText)

	require.NoError(t, s.Clear(ctx, ""))
	list, err = s.List(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStatsAndTrend(t *testing.T) {
	s := newTestService(newMapStore())
	s.Location = time.UTC
	ctx := context.Background()
	for _, ago := range []int{0, 1, 2} {
		_, err := s.Commit(ctx, "", CommitCommand{Text: "累", Result: issue, Timestamp: daysAgo(ago)})
		require.NoError(t, err)
	}
	_, err := s.Commit(ctx, "", CommitCommand{Text: "慌", Result: emotion.EmotionIssue{
		Emotions: []emotion.Tag{{Emoji: "😰", Label: "焦虑"}},
	}, Timestamp: daysAgo(3)})
	require.NoError(t, err)

	stats, err := s.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalRecords)
	assert.Equal(t, []EmotionStat{
		{Label: "疲惫", Emoji: "😔", Count: 3, Percentage: 75},
		{Label: "焦虑", Emoji: "😰", Count: 1, Percentage: 25},
	}, stats.Emotions)
	require.Len(t, stats.Weekly, 7)
	assert.Equal(t, DayCount{Date: "03/15", Count: 1}, stats.Weekly[6])

	trend, err := s.Trend(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 4, trend.RecentCount)
	assert.Equal(t, "最近一周，你记录了 4 次情绪，「疲惫」出现 3 次", trend.Summary)
}
