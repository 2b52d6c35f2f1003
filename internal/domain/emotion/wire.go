package emotion

// Wire renders r in the flag-shaped object the prompt asks the model for. Function and proxy
// backends return it as "data"; Normalize(Wire(r)) yields r again.
func Wire(r Result) map[string]any {
	switch v := r.(type) {
	case IllegalContent:
		return map[string]any{"isIllegalContent": true, "rejectionMessage": v.RejectionMessage}
	case NonEmotionContent:
		return map[string]any{"isNonEmotionContent": true, "reminderMessage": v.ReminderMessage}
	case NotAnEmotionIssue:
		return map[string]any{"isEmotionIssue": false, "friendlyMessage": v.FriendlyMessage}
	case EmotionIssue:
		emotions := make([]any, 0, len(v.Emotions))
		for _, t := range v.Emotions {
			emotions = append(emotions, map[string]any{"emoji": t.Emoji, "label": t.Label})
		}
		reasons := make([]any, 0, len(v.Reasons))
		for _, s := range v.Reasons {
			reasons = append(reasons, s)
		}
		actions := make([]any, 0, len(v.Actions))
		for _, a := range v.Actions {
			actions = append(actions, map[string]any{"emoji": a.Emoji, "text": a.Text})
		}
		return map[string]any{
			"isEmotionIssue": true,
			"emotions":       emotions,
			"reasons":        reasons,
			"clarification":  v.Clarification,
			"actions":        actions,
			"comfortText":    v.ComfortText,
		}
	default:
		return nil
	}
}

// View is the API representation of a Result: a kind tag plus the active variant's fields.
type View struct {
	Kind             Kind   `json:"kind"`
	RejectionMessage string `json:"rejectionMessage,omitempty"`
	ReminderMessage  string `json:"reminderMessage,omitempty"`
	FriendlyMessage  string `json:"friendlyMessage,omitempty"`
	*EmotionIssue
}

func NewView(r Result) View {
	v := View{Kind: r.Kind()}
	switch x := r.(type) {
	case IllegalContent:
		v.RejectionMessage = x.RejectionMessage
	case NonEmotionContent:
		v.ReminderMessage = x.ReminderMessage
	case NotAnEmotionIssue:
		v.FriendlyMessage = x.FriendlyMessage
	case EmotionIssue:
		v.EmotionIssue = &x
	}
	return v
}
