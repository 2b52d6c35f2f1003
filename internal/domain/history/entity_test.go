package history

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
)

func TestNewRecord(t *testing.T) {
	issue := emotion.EmotionIssue{
		Emotions: []emotion.Tag{{Emoji: "😔", Label: "疲惫"}},
		Reasons:  []string{"工作太多", "睡得太少"},
		Actions:  []emotion.Action{{Emoji: "🌿", Text: "早点睡"}, {Emoji: "💚", Text: "喝杯热水"}},
	}
	at := time.UnixMilli(1_700_000_000_000)
	text := strings.Repeat("累", 60)

	r := NewRecord("id-1", at, "  "+text+"  ", issue, []string{"睡得太少", " 没吃饭 ", ""}, []int{1, 0, 1, 7, -1})

	assert.Equal(t, int64(1_700_000_000_000), r.Timestamp)
	assert.Equal(t, text, r.FullText)
	assert.Equal(t, strings.Repeat("累", 50)+"...", r.PreviewText)
	assert.Equal(t, []string{"工作太多", "睡得太少", "没吃饭"}, r.Analysis.Reasons)
	assert.Equal(t, []string{"睡得太少", "没吃饭"}, r.Analysis.UserReasons)
	assert.Equal(t, []int{0, 1}, r.CompletedActions)
	assert.Equal(t, []CompletedAction{
		{Action: issue.Actions[0], Index: 0},
		{Action: issue.Actions[1], Index: 1},
	}, r.CompletedActionList())
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))
	exact := strings.Repeat("a", 50)
	assert.Equal(t, exact, Preview(exact))
	assert.Equal(t, exact+"...", Preview(exact+"b"))
}

func TestRecord_Matches(t *testing.T) {
	r := Record{PreviewText: "今天 Boss 又骂我了", Analysis: Analysis{Reasons: []string{"被否定的感觉"}}}
	assert.True(t, r.Matches("boss"))
	assert.True(t, r.Matches("否定"))
	assert.True(t, r.Matches(" "))
	assert.False(t, r.Matches("周末"))
}

func TestRecord_RoundTrip(t *testing.T) {
	r := NewRecord("id-1", time.UnixMilli(42), "好累", emotion.EmotionIssue{
		Emotions: []emotion.Tag{{Emoji: "😔", Label: "疲惫"}},
	}, nil, nil)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"text":"好累"`)
	assert.Contains(t, string(b), `"completedActions":[]`)

	var back Record
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, r, back)
}

func TestRecord_UpgradesLegacyShape(t *testing.T) {
	legacy := `{"timestamp": 1000, "text": "老记录", "emotions": [{"emoji":"😢","label":"难过"}, "焦虑", {"label":"孤独"}, 5]}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(legacy), &r))

	assert.Equal(t, []emotion.Tag{
		{Emoji: "😢", Label: "难过"},
		{Emoji: DefaultEmoji, Label: "焦虑"},
		{Emoji: DefaultEmoji, Label: "孤独"},
	}, r.Analysis.Emotions)
	assert.Equal(t, "老记录", r.FullText)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, []string{}, r.Analysis.Reasons)
	assert.Equal(t, []int{}, r.CompletedActions)

	var again Record
	require.NoError(t, json.Unmarshal([]byte(legacy), &again))
	assert.Equal(t, r.ID, again.ID)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "emotionHistory", Key(""))
	assert.Equal(t, "emotionHistory:alice", Key("alice"))
}
