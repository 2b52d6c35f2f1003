package emotion

// Kind tags a Result variant.
type Kind string

const (
	KindIllegalContent    Kind = "illegal_content"
	KindNonEmotionContent Kind = "non_emotion_content"
	KindNotEmotionIssue   Kind = "not_emotion_issue"
	KindEmotionIssue      Kind = "emotion_issue"
)

// Result is one of IllegalContent, NonEmotionContent, NotAnEmotionIssue or EmotionIssue.
// The unexported method seals the set.
type Result interface {
	Kind() Kind
	result()
}

type IllegalContent struct {
	RejectionMessage string `json:"rejectionMessage"`
}

type NonEmotionContent struct {
	ReminderMessage string `json:"reminderMessage"`
}

type NotAnEmotionIssue struct {
	FriendlyMessage string `json:"friendlyMessage"`
}

// EmotionIssue always carries 1..3 emotions when produced by Normalize.
type EmotionIssue struct {
	Emotions      []Tag    `json:"emotions"`
	Reasons       []string `json:"reasons"`
	Clarification string   `json:"clarification"`
	Actions       []Action `json:"actions"`
	ComfortText   string   `json:"comfortText"`
}

type Tag struct {
	Emoji string `json:"emoji"`
	Label string `json:"label"`
}

type Action struct {
	Emoji string `json:"emoji"`
	Text  string `json:"text"`
}

func (IllegalContent) Kind() Kind    { return KindIllegalContent }
func (NonEmotionContent) Kind() Kind { return KindNonEmotionContent }
func (NotAnEmotionIssue) Kind() Kind { return KindNotEmotionIssue }
func (EmotionIssue) Kind() Kind      { return KindEmotionIssue }

func (IllegalContent) result()    {}
func (NonEmotionContent) result() {}
func (NotAnEmotionIssue) result() {}
func (EmotionIssue) result()      {}

// Default messages used when the model omits its own.
const (
	DefaultRejectionMessage = "我理解你可能正在经历困难，但这里只能提供情绪支持。如果你有违法或伤害他人的想法，建议你寻求专业帮助或联系相关机构。"
	DefaultReminderMessage  = "这里是情绪记录本，一个专门提供情绪支持的空间。如果你有情绪困扰或需要倾诉，我很愿意倾听。"
	DefaultFriendlyMessage  = "你好！这里是情绪记录本，如果你有什么情绪困扰，可以随时告诉我。"
	DefaultActionEmoji      = "🌿"
)

const (
	maxEmotions = 3
	maxReasons  = 3
	maxActions  = 3
)
