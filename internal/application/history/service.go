package history

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/heartnote/internal/application"
	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
	domain "github.com/bryanwahyu/heartnote/internal/domain/history"
)

// Service implements the history use-cases. Every operation works on its own copy of the list;
// mutations are serialised so concurrent requests do not lose each other's writes.
type Service struct {
	Repo     domain.Repository
	Clock    application.Clock
	Location *time.Location
	Log      *zap.Logger

	mu sync.Mutex
}

func NewService(repo domain.Repository, clock application.Clock, log *zap.Logger) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Repo: repo, Clock: clock, Location: time.Local, Log: log}
}

// CommitCommand records a finished analysis.
type CommitCommand struct {
	Text             string
	Result           emotion.Result
	UserReasons      []string
	CompletedActions []int
	// Timestamp is when the analysis ran; zero means now.
	Timestamp time.Time
}

// Commit prepends a record and saves. Only EmotionIssue results can be recorded.
func (s *Service) Commit(ctx context.Context, user string, cmd CommitCommand) (domain.Record, error) {
	issue, ok := cmd.Result.(emotion.EmotionIssue)
	if !ok {
		return domain.Record{}, domain.ErrNotEmotionIssue
	}
	if strings.TrimSpace(cmd.Text) == "" {
		return domain.Record{}, emotion.ErrEmptyInput
	}
	at := cmd.Timestamp
	if at.IsZero() {
		at = s.Clock.Now()
	}
	rec := domain.NewRecord(uuid.NewString(), at, cmd.Text, issue, cmd.UserReasons, cmd.CompletedActions)

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.Repo.Load(ctx, user)
	if err != nil {
		return domain.Record{}, fmt.Errorf("commit: %w", err)
	}
	records = append([]domain.Record{rec}, records...)
	if err := s.Repo.Save(ctx, user, records); err != nil {
		return domain.Record{}, fmt.Errorf("commit: %w", err)
	}
	s.Log.Info("history record committed", zap.String("user", user), zap.String("id", rec.ID), zap.Strings("labels", rec.Labels()))
	return rec, nil
}

// List returns records most recent first, filtered by keyword over preview text and reasons.
func (s *Service) List(ctx context.Context, user, keyword string) ([]domain.Record, error) {
	records, err := s.Repo.Load(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	if strings.TrimSpace(keyword) == "" {
		return records, nil
	}
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if r.Matches(keyword) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Detail is a record with the values derived for its detail view.
type Detail struct {
	domain.Record
	CompletedActionList []domain.CompletedAction `json:"completedActionsList"`
	Intensity           string                   `json:"intensityLabel"`
	CompareText         string                   `json:"compareText"`
}

func (s *Service) Get(ctx context.Context, user, id string) (Detail, error) {
	records, err := s.Repo.Load(ctx, user)
	if err != nil {
		return Detail{}, fmt.Errorf("get: %w", err)
	}
	i := indexOf(records, id)
	if i < 0 {
		return Detail{}, domain.ErrRecordNotFound
	}
	r := records[i]
	return Detail{
		Record:              r,
		CompletedActionList: r.CompletedActionList(),
		Intensity:           Intensity(r.Analysis.Emotions, r.Analysis.Reasons),
		CompareText:         CompareWithPrevious(records[i:]),
	}, nil
}

// EditText replaces a record's text, keeping preview and full text in step.
func (s *Service) EditText(ctx context.Context, user, id, text string) (domain.Record, error) {
	text = strings.TrimSpace(text)
	return s.update(ctx, user, id, func(r *domain.Record) {
		r.FullText = text
		r.PreviewText = domain.Preview(text)
	})
}

// SetCompletedActions replaces which of the record's actions the user has done.
func (s *Service) SetCompletedActions(ctx context.Context, user, id string, completed []int) (domain.Record, error) {
	return s.update(ctx, user, id, func(r *domain.Record) {
		r.CompletedActions = domain.NormalizeCompleted(completed, len(r.Analysis.Actions))
	})
}

func (s *Service) update(ctx context.Context, user, id string, fn func(*domain.Record)) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.Repo.Load(ctx, user)
	if err != nil {
		return domain.Record{}, fmt.Errorf("update: %w", err)
	}
	i := indexOf(records, id)
	if i < 0 {
		return domain.Record{}, domain.ErrRecordNotFound
	}
	fn(&records[i])
	if err := s.Repo.Save(ctx, user, records); err != nil {
		return domain.Record{}, fmt.Errorf("update: %w", err)
	}
	return records[i], nil
}

func (s *Service) Delete(ctx context.Context, user, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.Repo.Load(ctx, user)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	i := indexOf(records, id)
	if i < 0 {
		return domain.ErrRecordNotFound
	}
	records = append(records[:i:i], records[i+1:]...)
	if err := s.Repo.Save(ctx, user, records); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

func (s *Service) Clear(ctx context.Context, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Repo.Save(ctx, user, []domain.Record{}); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	s.Log.Info("history cleared", zap.String("user", user))
	return nil
}

// Stats is the statistics page: label distribution over all records plus the last 7 days.
type Stats struct {
	TotalRecords int           `json:"totalRecords"`
	Emotions     []EmotionStat `json:"emotionStats"`
	Weekly       []DayCount    `json:"weeklyTrend"`
}

func (s *Service) Stats(ctx context.Context, user string) (Stats, error) {
	records, err := s.Repo.Load(ctx, user)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return Stats{
		TotalRecords: len(records),
		Emotions:     Distribution(records),
		Weekly:       DailyCounts(records, s.Clock.Now(), s.Location),
	}, nil
}

func (s *Service) Trend(ctx context.Context, user string) (TrendSnapshot, error) {
	records, err := s.Repo.Load(ctx, user)
	if err != nil {
		return TrendSnapshot{}, fmt.Errorf("trend: %w", err)
	}
	return Trend(records, s.Clock.Now()), nil
}

func indexOf(records []domain.Record, id string) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
