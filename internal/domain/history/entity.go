package history

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
)

const (
	// MaxRecords is how many records a user keeps; older ones fall off on commit.
	MaxRecords = 50
	// TrimTo is how many records survive when the store reports it is full.
	TrimTo = 20
	// PreviewRunes bounds the list preview of a record's text.
	PreviewRunes = 50
	// DefaultEmoji is shown for labels stored without one.
	DefaultEmoji = "😔"
)

// Record is one committed analysis. Lists are kept most-recent-first.
type Record struct {
	ID               string   `json:"id"`
	Timestamp        int64    `json:"timestamp"` // epoch ms
	FullText         string   `json:"fullText"`
	PreviewText      string   `json:"text"`
	Analysis         Analysis `json:"analysis"`
	CompletedActions []int    `json:"completedActions"`
}

// Analysis is the persisted part of an EmotionIssue plus the reasons the user added.
// Reasons already includes UserReasons.
type Analysis struct {
	Emotions      []emotion.Tag    `json:"emotions"`
	Reasons       []string         `json:"reasons"`
	UserReasons   []string         `json:"userReasons"`
	Clarification string           `json:"clarification"`
	Actions       []emotion.Action `json:"actions"`
	ComfortText   string           `json:"comfortText"`
}

// CompletedAction is an action the user ticked off, with its position in Analysis.Actions.
type CompletedAction struct {
	emotion.Action
	Index int `json:"index"`
}

// NewRecord builds a record from a finished analysis.
func NewRecord(id string, at time.Time, text string, issue emotion.EmotionIssue, userReasons []string, completed []int) Record {
	text = strings.TrimSpace(text)
	user := cleanStrings(userReasons)
	return Record{
		ID:          id,
		Timestamp:   at.UnixMilli(),
		FullText:    text,
		PreviewText: Preview(text),
		Analysis: Analysis{
			Emotions:      append([]emotion.Tag{}, issue.Emotions...),
			Reasons:       MergeReasons(issue.Reasons, user),
			UserReasons:   user,
			Clarification: issue.Clarification,
			Actions:       append([]emotion.Action{}, issue.Actions...),
			ComfortText:   issue.ComfortText,
		},
		CompletedActions: NormalizeCompleted(completed, len(issue.Actions)),
	}
}

func (r Record) Time() time.Time { return time.UnixMilli(r.Timestamp) }

// Labels returns the record's emotion labels in order.
func (r Record) Labels() []string {
	out := make([]string, 0, len(r.Analysis.Emotions))
	for _, t := range r.Analysis.Emotions {
		if t.Label != "" {
			out = append(out, t.Label)
		}
	}
	return out
}

// CompletedActionList resolves CompletedActions against the stored actions, skipping stale indexes.
func (r Record) CompletedActionList() []CompletedAction {
	out := make([]CompletedAction, 0, len(r.CompletedActions))
	for _, i := range r.CompletedActions {
		if i >= 0 && i < len(r.Analysis.Actions) {
			out = append(out, CompletedAction{Action: r.Analysis.Actions[i], Index: i})
		}
	}
	return out
}

// Matches reports whether keyword occurs in the preview text or any reason, case-insensitively.
func (r Record) Matches(keyword string) bool {
	k := strings.ToLower(strings.TrimSpace(keyword))
	if k == "" {
		return true
	}
	if strings.Contains(strings.ToLower(r.PreviewText), k) {
		return true
	}
	return strings.Contains(strings.ToLower(strings.Join(r.Analysis.Reasons, " ")), k)
}

// Preview keeps the first PreviewRunes characters and marks the cut with "...".
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewRunes {
		return text
	}
	return string([]rune(text)[:PreviewRunes]) + "..."
}

// MergeReasons appends user reasons to model reasons, dropping blanks and duplicates.
func MergeReasons(model, user []string) []string {
	out := make([]string, 0, len(model)+len(user))
	seen := map[string]bool{}
	for _, list := range [][]string{model, user} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// NormalizeCompleted sorts and dedupes action indexes, dropping any outside [0, n).
func NormalizeCompleted(idx []int, n int) []int {
	seen := map[int]bool{}
	out := make([]int, 0, len(idx))
	for _, i := range idx {
		if i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// legacyRecord is the on-disk shape, including records written before "analysis" existed.
type legacyRecord struct {
	ID               string            `json:"id"`
	Timestamp        int64             `json:"timestamp"`
	FullText         string            `json:"fullText"`
	Text             string            `json:"text"`
	Analysis         *Analysis         `json:"analysis"`
	Emotions         []json.RawMessage `json:"emotions"`
	CompletedActions []int             `json:"completedActions"`
}

// UnmarshalJSON upgrades old records: top-level emotions move into Analysis, a missing full
// text falls back to the preview and a missing id is derived from the timestamp.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw legacyRecord
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*r = Record{
		ID:               raw.ID,
		Timestamp:        raw.Timestamp,
		FullText:         raw.FullText,
		PreviewText:      raw.Text,
		CompletedActions: raw.CompletedActions,
	}
	if raw.Analysis != nil {
		r.Analysis = *raw.Analysis
	} else {
		r.Analysis.Emotions = legacyTags(raw.Emotions)
	}
	if r.FullText == "" {
		r.FullText = r.PreviewText
	}
	if r.PreviewText == "" {
		r.PreviewText = Preview(r.FullText)
	}
	if r.ID == "" {
		r.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("emotionHistory:"+strconv.FormatInt(r.Timestamp, 10))).String()
	}
	r.fill()
	return nil
}

// fill replaces nil slices so records always encode with arrays.
func (r *Record) fill() {
	a := &r.Analysis
	if a.Emotions == nil {
		a.Emotions = []emotion.Tag{}
	}
	if a.Reasons == nil {
		a.Reasons = []string{}
	}
	if a.UserReasons == nil {
		a.UserReasons = []string{}
	}
	if a.Actions == nil {
		a.Actions = []emotion.Action{}
	}
	if r.CompletedActions == nil {
		r.CompletedActions = []int{}
	}
}

// legacyTags accepts tags stored as objects or as bare label strings.
func legacyTags(items []json.RawMessage) []emotion.Tag {
	out := make([]emotion.Tag, 0, len(items))
	for _, item := range items {
		var label string
		if err := json.Unmarshal(item, &label); err == nil {
			if label != "" {
				out = append(out, emotion.Tag{Emoji: DefaultEmoji, Label: label})
			}
			continue
		}
		var t emotion.Tag
		if err := json.Unmarshal(item, &t); err == nil && t.Label != "" {
			if t.Emoji == "" {
				t.Emoji = DefaultEmoji
			}
			out = append(out, t)
		}
	}
	return out
}
