package emotion

import (
	"encoding/json"
	"strings"
)

// ShapeAdapter recognises one provider envelope and pulls the model's text out of it.
// ok reports whether the envelope matched; a match with empty content is a schema error.
type ShapeAdapter interface {
	Name() string
	TryUnwrap(obj map[string]any) (content string, ok bool)
}

// Adapters are tried in this order.
var Adapters = []ShapeAdapter{
	generationChoices{},
	generationText{},
	chatChoices{},
}

const maxUnwrapDepth = 3

// Normalize turns raw provider output into a Result. Objects that match no envelope are
// classified directly, which is what function and proxy backends return.
func Normalize(raw any) (Result, error) {
	return normalize(raw, false, 0)
}

// NormalizeProvider is the strict variant for direct provider responses: one of the Adapters
// must match or the payload is rejected.
func NormalizeProvider(raw any) (Result, error) {
	return normalize(raw, true, 0)
}

func normalize(raw any, strict bool, depth int) (Result, error) {
	if depth > maxUnwrapDepth {
		return nil, schemaErr("provider envelope nested too deeply", nil)
	}
	obj, err := toObject(raw)
	if err != nil {
		return nil, err
	}
	// The illegal flag wins over anything else in the object, envelope-shaped siblings included.
	if !strict && isTrue(obj["isIllegalContent"]) {
		return classify(obj)
	}
	for _, a := range Adapters {
		content, ok := a.TryUnwrap(obj)
		if !ok {
			continue
		}
		if strings.TrimSpace(content) == "" {
			return nil, schemaErr(a.Name()+": empty content", nil)
		}
		return normalize(content, false, depth+1)
	}
	if strict {
		return nil, schemaErr("unrecognised provider response", nil)
	}
	return classify(obj)
}

func toObject(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, schemaErr("empty response", nil)
	case map[string]any:
		return v, nil
	case string:
		return extractObject(v)
	case []byte:
		return extractObject(string(v))
	case json.RawMessage:
		return extractObject(string(v))
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, schemaErr("unsupported response type", err)
		}
		return extractObject(string(b))
	}
}

// extractObject decodes the span from the first '{' to the last '}'. Models often wrap their
// JSON in prose or code fences.
func extractObject(s string) (map[string]any, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, schemaErr("no JSON object in response", nil)
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s[start:end+1]), &obj); err != nil {
		return nil, schemaErr("malformed JSON object", err)
	}
	return obj, nil
}

func classify(obj map[string]any) (Result, error) {
	if isTrue(obj["isIllegalContent"]) {
		return IllegalContent{RejectionMessage: textOr(obj["rejectionMessage"], DefaultRejectionMessage)}, nil
	}
	if isTrue(obj["isNonEmotionContent"]) {
		return NonEmotionContent{ReminderMessage: textOr(obj["reminderMessage"], DefaultReminderMessage)}, nil
	}
	if !isTrue(obj["isEmotionIssue"]) {
		return NotAnEmotionIssue{FriendlyMessage: textOr(obj["friendlyMessage"], DefaultFriendlyMessage)}, nil
	}

	rawEmotions, ok := obj["emotions"].([]any)
	if !ok {
		return nil, schemaErr("missing emotions array", nil)
	}
	emotions := make([]Tag, 0, maxEmotions)
	for _, item := range rawEmotions {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		tag := Tag{Emoji: text(m["emoji"]), Label: text(m["label"])}
		if tag.Emoji == "" || tag.Label == "" {
			continue
		}
		emotions = append(emotions, tag)
		if len(emotions) == maxEmotions {
			break
		}
	}
	if len(emotions) == 0 {
		return nil, schemaErr("no usable emotions", nil)
	}

	reasons := make([]string, 0, maxReasons)
	if items, ok := obj["reasons"].([]any); ok {
		for _, item := range items {
			if s := text(item); s != "" {
				reasons = append(reasons, s)
			}
			if len(reasons) == maxReasons {
				break
			}
		}
	}

	actions := make([]Action, 0, maxActions)
	if items, ok := obj["actions"].([]any); ok {
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			a := Action{Emoji: textOr(m["emoji"], DefaultActionEmoji), Text: text(m["text"])}
			if a.Text == "" {
				continue
			}
			actions = append(actions, a)
			if len(actions) == maxActions {
				break
			}
		}
	}

	return EmotionIssue{
		Emotions:      emotions,
		Reasons:       reasons,
		Clarification: text(obj["clarification"]),
		Actions:       actions,
		ComfortText:   text(obj["comfortText"]),
	}, nil
}

func isTrue(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func text(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func textOr(v any, def string) string {
	if s := text(v); s != "" {
		return s
	}
	return def
}

// generationChoices: {"output": {"choices": [{"message": {"content": "..."}}]}}
type generationChoices struct{}

func (generationChoices) Name() string { return "generation.choices" }

func (generationChoices) TryUnwrap(obj map[string]any) (string, bool) {
	out, ok := obj["output"].(map[string]any)
	if !ok {
		return "", false
	}
	return firstChoiceContent(out)
}

// generationText: {"output": {"text": "..."}}, returned by older generation API versions.
type generationText struct{}

func (generationText) Name() string { return "generation.text" }

func (generationText) TryUnwrap(obj map[string]any) (string, bool) {
	out, ok := obj["output"].(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := out["text"].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// chatChoices: {"choices": [{"message": {"content": "..."}}]}
type chatChoices struct{}

func (chatChoices) Name() string { return "chat.choices" }

func (chatChoices) TryUnwrap(obj map[string]any) (string, bool) {
	return firstChoiceContent(obj)
}

func firstChoiceContent(obj map[string]any) (string, bool) {
	choices, ok := obj["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	first, ok := choices[0].(map[string]any)
	if !ok {
		return "", false
	}
	msg, _ := first["message"].(map[string]any)
	content, _ := msg["content"].(string)
	return content, true
}
