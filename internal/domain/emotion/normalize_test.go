package emotion

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_EmotionIssueScenario(t *testing.T) {
	raw := `{"isEmotionIssue": true, "emotions":[{"emoji":"😔","label":"疲惫"}], "actions":[{"emoji":"🌿","text":"早点睡"}]}`

	got, err := Normalize(raw)
	require.NoError(t, err)

	issue, ok := got.(EmotionIssue)
	require.True(t, ok, "got %T", got)
	assert.Equal(t, []Tag{{Emoji: "😔", Label: "疲惫"}}, issue.Emotions)
	assert.Empty(t, issue.Reasons)
	assert.NotNil(t, issue.Reasons)
	assert.Equal(t, []Action{{Emoji: "🌿", Text: "早点睡"}}, issue.Actions)
	assert.Equal(t, "", issue.Clarification)
	assert.Equal(t, "", issue.ComfortText)
}

func TestNormalize_IllegalWinsOverEverything(t *testing.T) {
	cases := map[string]string{
		"alone":          `{"isIllegalContent": true}`,
		"with issue":     `{"isIllegalContent": true, "isEmotionIssue": true, "emotions":[{"emoji":"😔","label":"疲惫"}]}`,
		"with reminder":  `{"isIllegalContent": true, "isNonEmotionContent": true, "reminderMessage": "hi"}`,
		"malformed rest": `{"isIllegalContent": true, "emotions": "oops", "actions": 42}`,
		"output sibling": `{"isIllegalContent": true, "output": {"text": "not json"}}`,
		"choices empty":  `{"isIllegalContent": true, "choices": [{"message": {"content": ""}}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Normalize(raw)
			require.NoError(t, err)
			assert.Equal(t, IllegalContent{RejectionMessage: DefaultRejectionMessage}, got)
		})
	}
}

func TestNormalize_KeepsModelMessages(t *testing.T) {
	got, err := Normalize(`{"isIllegalContent": true, "rejectionMessage": "不行"}`)
	require.NoError(t, err)
	assert.Equal(t, IllegalContent{RejectionMessage: "不行"}, got)

	got, err = Normalize(`{"isNonEmotionContent": true, "reminderMessage": "这里只聊情绪"}`)
	require.NoError(t, err)
	assert.Equal(t, NonEmotionContent{ReminderMessage: "这里只聊情绪"}, got)

	got, err = Normalize(`{"isNonEmotionContent": true}`)
	require.NoError(t, err)
	assert.Equal(t, NonEmotionContent{ReminderMessage: DefaultReminderMessage}, got)
}

func TestNormalize_NotAnEmotionIssue(t *testing.T) {
	got, err := Normalize(`{"isEmotionIssue": false}`)
	require.NoError(t, err)
	assert.Equal(t, NotAnEmotionIssue{FriendlyMessage: DefaultFriendlyMessage}, got)

	got, err = Normalize(map[string]any{"friendlyMessage": "早上好"})
	require.NoError(t, err)
	assert.Equal(t, NotAnEmotionIssue{FriendlyMessage: "早上好"}, got)
}

func TestNormalize_EmotionsBounds(t *testing.T) {
	raw := `{"isEmotionIssue": true, "emotions": [
		{"emoji":"😔","label":"疲惫"},
		{"emoji":"","label":"空"},
		{"label":"缺emoji"},
		{"emoji":"😞","label":"无力感"},
		{"emoji":"😢","label":"难过"},
		{"emoji":"😰","label":"焦虑"}
	], "reasons": ["a", "", 3, "b", "c", "d"], "actions": [
		{"text":"喝水"}, {"emoji":"✍️"}, {"emoji":"✍️","text":"写日记"}, {"text":"散步"}, {"text":"睡觉"}
	]}`

	got, err := Normalize(raw)
	require.NoError(t, err)
	issue := got.(EmotionIssue)

	assert.Equal(t, []Tag{
		{Emoji: "😔", Label: "疲惫"},
		{Emoji: "😞", Label: "无力感"},
		{Emoji: "😢", Label: "难过"},
	}, issue.Emotions)
	assert.Equal(t, []string{"a", "b", "c"}, issue.Reasons)
	assert.Equal(t, []Action{
		{Emoji: DefaultActionEmoji, Text: "喝水"},
		{Emoji: "✍️", Text: "写日记"},
		{Emoji: DefaultActionEmoji, Text: "散步"},
	}, issue.Actions)
}

func TestNormalize_ZeroEmotionsIsSchemaError(t *testing.T) {
	for name, raw := range map[string]string{
		"empty":     `{"isEmotionIssue": true, "emotions": []}`,
		"missing":   `{"isEmotionIssue": true}`,
		"not array": `{"isEmotionIssue": true, "emotions": {"emoji":"😔"}}`,
		"unusable":  `{"isEmotionIssue": true, "emotions": [{"emoji":"😔"}, {"label":"x"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := Normalize(raw)
			assert.Nil(t, got)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchema))
			var se *SchemaError
			assert.True(t, errors.As(err, &se))
		})
	}
}

func TestNormalize_TextExtraction(t *testing.T) {
	raw := "好的，下面是结果：\n```json\n{\"isNonEmotionContent\": true}\n```"
	got, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, KindNonEmotionContent, got.Kind())

	_, err = Normalize("抱歉，我无法回答")
	assert.ErrorIs(t, err, ErrSchema)

	_, err = Normalize(`{"isEmotionIssue": true,`)
	assert.ErrorIs(t, err, ErrSchema)

	_, err = Normalize(nil)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestNormalize_UnwrapsProviderEnvelopes(t *testing.T) {
	inner := `{"isEmotionIssue": true, "emotions":[{"emoji":"😰","label":"焦虑"}]}`
	want := EmotionIssue{
		Emotions: []Tag{{Emoji: "😰", Label: "焦虑"}},
		Reasons:  []string{},
		Actions:  []Action{},
	}

	chat := map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": inner}}}}
	generation := map[string]any{"output": map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": inner}}}}}
	text := map[string]any{"output": map[string]any{"text": inner}}

	for name, raw := range map[string]any{"chat": chat, "generation": generation, "text": text} {
		t.Run(name, func(t *testing.T) {
			got, err := NormalizeProvider(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			b, err := json.Marshal(raw)
			require.NoError(t, err)
			got, err = NormalizeProvider(b)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestNormalizeProvider_FailsClosed(t *testing.T) {
	_, err := NormalizeProvider(`{"isEmotionIssue": false}`)
	assert.ErrorIs(t, err, ErrSchema)

	_, err = NormalizeProvider(`{"choices": [{"message": {"content": ""}}]}`)
	assert.ErrorIs(t, err, ErrSchema)

	_, err = NormalizeProvider(`{"choices": [{"message": {}}]}`)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := []byte(`{"isEmotionIssue": true, "emotions":[{"emoji":"😔","label":"疲惫"}], "reasons":["加班"], "clarification":"不是你的错", "comfortText":"辛苦了"}`)

	first, err := Normalize(raw)
	require.NoError(t, err)
	second, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWire_RoundTrips(t *testing.T) {
	results := []Result{
		IllegalContent{RejectionMessage: "no"},
		NonEmotionContent{ReminderMessage: "only feelings"},
		NotAnEmotionIssue{FriendlyMessage: "hello"},
		EmotionIssue{
			Emotions:      []Tag{{Emoji: "😔", Label: "疲惫"}},
			Reasons:       []string{"工作太多"},
			Clarification: "这不是你的错",
			Actions:       []Action{{Emoji: "🌿", Text: "早点睡"}},
			ComfortText:   "辛苦了",
		},
	}
	for _, r := range results {
		t.Run(string(r.Kind()), func(t *testing.T) {
			got, err := Normalize(Wire(r))
			require.NoError(t, err)
			assert.Equal(t, r, got)

			b, err := json.Marshal(Wire(r))
			require.NoError(t, err)
			got, err = Normalize(b)
			require.NoError(t, err)
			assert.Equal(t, r, got)
		})
	}
}

func TestNewView(t *testing.T) {
	b, err := json.Marshal(NewView(NonEmotionContent{ReminderMessage: "x"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"non_emotion_content","reminderMessage":"x"}`, string(b))

	b, err = json.Marshal(NewView(EmotionIssue{
		Emotions: []Tag{{Emoji: "😔", Label: "疲惫"}},
		Reasons:  []string{},
		Actions:  []Action{},
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"emotion_issue","emotions":[{"emoji":"😔","label":"疲惫"}],"reasons":[],"clarification":"","actions":[],"comfortText":""}`, string(b))
}
