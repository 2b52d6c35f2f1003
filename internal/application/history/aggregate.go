package history

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
	domain "github.com/bryanwahyu/heartnote/internal/domain/history"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
)

// EmotionStat is one label's share of all tag occurrences.
type EmotionStat struct {
	Label      string `json:"label"`
	Emoji      string `json:"emoji"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// LabelCount is one label's share of the recent window's records.
type LabelCount struct {
	Label      string `json:"label"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionNone       Direction = "none"
)

// TrendSnapshot compares the last 7 days with the 7 days before. It is derived on every read.
type TrendSnapshot struct {
	RecentCount   int          `json:"recentCount"`
	TotalCount    int          `json:"totalCount"`
	TopEmotions   []LabelCount `json:"topEmotions"`
	Direction     Direction    `json:"trendDirection"`
	Summary       string       `json:"summary"`
	DirectionText string       `json:"directionText"`
}

// Text is the summary followed by the direction sentence, if any.
func (t TrendSnapshot) Text() string {
	if t.DirectionText == "" {
		return t.Summary
	}
	return t.Summary + "，" + t.DirectionText
}

type DayCount struct {
	Date  string `json:"date"` // MM/DD
	Count int    `json:"count"`
}

// labelTally counts labels keeping first-seen order, which breaks ties when ranking.
type labelTally struct {
	order  []string
	counts map[string]int
	emoji  map[string]string
}

func newTally() *labelTally {
	return &labelTally{counts: map[string]int{}, emoji: map[string]string{}}
}

func (t *labelTally) add(tag emotion.Tag) {
	if tag.Label == "" {
		return
	}
	if _, ok := t.counts[tag.Label]; !ok {
		t.order = append(t.order, tag.Label)
		e := tag.Emoji
		if e == "" {
			e = domain.DefaultEmoji
		}
		t.emoji[tag.Label] = e
	}
	t.counts[tag.Label]++
}

// ranked returns labels by descending count, first-seen first among equals.
func (t *labelTally) ranked() []string {
	out := append([]string(nil), t.order...)
	sort.SliceStable(out, func(i, j int) bool { return t.counts[out[i]] > t.counts[out[j]] })
	return out
}

// percent rounds part/whole*100 half up.
func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return (part*200 + whole) / (2 * whole)
}

// Distribution counts every emotion label across records. Percentages are of all tag
// occurrences, not of records, so a record with two labels counts twice.
func Distribution(records []domain.Record) []EmotionStat {
	t := newTally()
	total := 0
	for _, r := range records {
		for _, tag := range r.Analysis.Emotions {
			if tag.Label != "" {
				t.add(tag)
				total++
			}
		}
	}
	stats := make([]EmotionStat, 0, len(t.order))
	for _, label := range t.ranked() {
		stats = append(stats, EmotionStat{
			Label:      label,
			Emoji:      t.emoji[label],
			Count:      t.counts[label],
			Percentage: percent(t.counts[label], total),
		})
	}
	return stats
}

// Trend summarises the week before now against the week before that.
func Trend(records []domain.Record, now time.Time) TrendSnapshot {
	nowMs := now.UnixMilli()
	weekAgo := nowMs - week.Milliseconds()
	twoWeeksAgo := nowMs - 2*week.Milliseconds()

	var recent, earlier int
	t := newTally()
	for _, r := range records {
		switch {
		case r.Timestamp >= weekAgo:
			recent++
			for _, tag := range r.Analysis.Emotions {
				t.add(tag)
			}
		case r.Timestamp >= twoWeeksAgo:
			earlier++
		}
	}

	snap := TrendSnapshot{TotalCount: len(records), TopEmotions: []LabelCount{}, Direction: DirectionNone}
	if recent == 0 {
		return snap
	}
	snap.RecentCount = recent

	ranked := t.ranked()
	for i, label := range ranked {
		if i == 3 {
			break
		}
		snap.TopEmotions = append(snap.TopEmotions, LabelCount{
			Label:      label,
			Count:      t.counts[label],
			Percentage: percent(t.counts[label], recent),
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "最近一周，你记录了 %d 次情绪", recent)
	if len(ranked) > 0 {
		top := t.counts[ranked[0]]
		ties := 0
		for _, label := range ranked {
			if t.counts[label] == top {
				ties++
			}
		}
		switch ties {
		case 1:
			fmt.Fprintf(&b, "，「%s」出现 %d 次", ranked[0], top)
		case 2:
			fmt.Fprintf(&b, "，「%s」和「%s」出现较多", ranked[0], ranked[1])
		default:
			b.WriteString("，情绪类型比较多样")
		}
	}
	snap.Summary = b.String()

	switch {
	case earlier > 0 && recent > earlier:
		snap.Direction = DirectionIncreasing
		snap.DirectionText = "记录频率有所增加，说明你更关注自己的情绪了"
	case earlier > 0 && recent < earlier:
		snap.Direction = DirectionDecreasing
		snap.DirectionText = "记录频率有所减少"
	}
	return snap
}

// DailyCounts returns the last 7 calendar days in loc, oldest first, today included.
func DailyCounts(records []domain.Record, now time.Time, loc *time.Location) []DayCount {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := now.In(loc).Date()
	first := time.Date(y, m, d-6, 0, 0, 0, 0, loc)
	end := first.AddDate(0, 0, 7)

	days := make([]DayCount, 7)
	index := map[string]int{}
	for i := range days {
		key := first.AddDate(0, 0, i).Format("01/02")
		days[i] = DayCount{Date: key}
		index[key] = i
	}
	for _, r := range records {
		at := r.Time().In(loc)
		if at.Before(first) || !at.Before(end) {
			continue
		}
		if i, ok := index[at.Format("01/02")]; ok {
			days[i].Count++
		}
	}
	return days
}

// Intensity labels how heavy an analysis reads: 1.5 per emotion plus 1 per reason.
func Intensity(emotions []emotion.Tag, reasons []string) string {
	// doubled to stay in integers: 1.5e + r >= 6  <=>  3e + 2r >= 12
	score := 3*len(emotions) + 2*len(reasons)
	switch {
	case score >= 12:
		return "强烈"
	case score >= 6:
		return "中等"
	default:
		return "轻微"
	}
}

// CompareWithPrevious describes records[0] against records[1].
func CompareWithPrevious(records []domain.Record) string {
	if len(records) < 2 {
		return "这是你的最新一次记录"
	}
	label := "上一条记录"
	if labels := records[1].Labels(); len(labels) > 0 {
		label = labels[0]
	}
	return fmt.Sprintf("与上一条记录相比，本次情绪与你上次的「%s」有所不同", label)
}
