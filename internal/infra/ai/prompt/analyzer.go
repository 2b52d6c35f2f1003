package prompt

import (
	"strings"

	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
)

// keywordGroup maps a set of trigger words to one emotion tag and a reason.
type keywordGroup struct {
	tag    emotion.Tag
	words  []string
	reason string
}

var keywordGroups = []keywordGroup{
	{emotion.Tag{Emoji: "😔", Label: "疲惫"}, []string{"累", "疲惫", "困", "倦", "乏"}, "你可能最近承担了太多，身体和情绪都在提醒你需要休息"},
	{emotion.Tag{Emoji: "😞", Label: "无力感"}, []string{"无力", "做不到", "没办法", "无助", "无能为力", "不知道怎么办"}, "当事情超出我们的控制范围时，感到无力是很正常的反应"},
	{emotion.Tag{Emoji: "😢", Label: "难过"}, []string{"难过", "伤心", "哭", "悲伤", "痛苦", "难受"}, "你的感受是真实的，允许自己难过是自我关怀的表现"},
	{emotion.Tag{Emoji: "😰", Label: "焦虑"}, []string{"焦虑", "担心", "害怕", "紧张", "不安", "恐慌"}, "焦虑往往来自于对未来的不确定，这是大脑在试图保护你"},
	{emotion.Tag{Emoji: "😔", Label: "孤独"}, []string{"孤独", "一个人", "没人", "孤单", "孤立", "不被理解"}, "感到孤独并不意味着你真的孤单，只是此刻需要被理解"},
	{emotion.Tag{Emoji: "😠", Label: "愤怒"}, []string{"生气", "愤怒", "气", "烦躁", "恼火", "不满"}, "愤怒背后往往隐藏着未被满足的需求，你的感受是合理的"},
	{emotion.Tag{Emoji: "😞", Label: "失望"}, []string{"失望", "失落", "沮丧", "挫败", "绝望"}, "失望来自于期望与现实的差距，这并不意味着你做错了什么"},
}

const (
	defaultReason = "你正在经历一段不容易的时光，这本身就需要很大的勇气"
	signalReason  = "情绪没有对错，它们只是你内心状态的信号"
)

// AnalyzeKeywords is the offline fallback used when the model is disabled or unreachable.
// It always yields an EmotionIssue with 1..3 emotions and 2..3 reasons.
func AnalyzeKeywords(text string) emotion.EmotionIssue {
	lower := strings.ToLower(text)

	emotions := make([]emotion.Tag, 0, 3)
	reasons := make([]string, 0, 3)
	seen := map[string]bool{}

	for _, g := range keywordGroups {
		if !containsAny(lower, g.words) {
			continue
		}
		reasons = append(reasons, g.reason)
		if seen[g.tag.Label] || len(emotions) == 3 {
			continue
		}
		seen[g.tag.Label] = true
		emotions = append(emotions, g.tag)
	}

	if len(emotions) == 0 {
		emotions = append(emotions, keywordGroups[0].tag)
		reasons = append(reasons, defaultReason)
	}
	if len(reasons) == 1 {
		reasons = append(reasons, signalReason)
	}
	if len(reasons) > 3 {
		reasons = reasons[:3]
	}

	return emotion.EmotionIssue{
		Emotions: emotions,
		Reasons:  reasons,
		Actions:  []emotion.Action{},
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
