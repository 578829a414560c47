// Package intent classifies natural-language requests into routing decisions.
package intent

import "strings"

// TaskKeywords is the single source of truth for task-type classification
// vocabulary. Each slice holds imperative verbs and markers, in both English
// and Chinese, that signal one task category.
type TaskKeywords struct {
	// Development keywords indicate implementation work.
	Development []string

	// Analysis keywords indicate investigation or explanation work.
	Analysis []string

	// Design keywords indicate architecture or design work.
	Design []string

	// Testing keywords indicate verification work.
	Testing []string

	// Documentation keywords indicate writing-docs work.
	Documentation []string

	// Bugfix keywords indicate repair work.
	Bugfix []string
}

// DefaultTaskKeywords returns the authoritative task-type vocabulary.
var DefaultTaskKeywords = TaskKeywords{
	Development: []string{
		"implement",
		"build",
		"create",
		"develop",
		"write",
		"add",
		"generate",
		"refactor",
		"optimize",
		"update",
		"integrate",
		"deploy",
		"configure",
		"实现",
		"开发",
		"创建",
		"编写",
		"新增",
		"搭建",
		"生成",
		"重构",
		"优化",
		"更新",
		"集成",
		"部署",
		"配置",
	},
	Analysis: []string{
		"analyze",
		"analyse",
		"investigate",
		"explain",
		"review",
		"evaluate",
		"分析",
		"排查",
		"解释",
		"评估",
		"审查",
	},
	Design: []string{
		"design",
		"architecture",
		"architect",
		"设计",
		"架构",
		"规划",
	},
	Testing: []string{
		"test",
		"verify",
		"validate",
		"测试",
		"验证",
		"校验",
	},
	Documentation: []string{
		"document",
		"docs",
		"readme",
		"文档",
		"说明",
	},
	Bugfix: []string{
		"fix",
		"debug",
		"repair",
		"resolve",
		"修复",
		"调试",
		"解决",
	},
}

// enumDelimiters are the separators that signal enumerated, potentially
// independent sub-work inside one request.
var enumDelimiters = []string{
	"、",
	"，",
	",",
}

// conjunctionMarkers signal multi-item requests without an explicit
// delimiter. English entries are matched with surrounding spaces so words
// like "command" do not trigger them.
var conjunctionMarkers = []string{
	" and ",
	"include",
	"including",
	"包含",
	"包括",
	"以及",
	"和",
}

// templateMarkers signal fill-in/boilerplate requests routed to template
// rendering.
var templateMarkers = []string{
	"template",
	"boilerplate",
	"fill in",
	"模板",
	"填充",
}

// personaMarkers signal persona invocations routed to agent skills.
var personaMarkers = []string{
	"act as",
	"as a ",
	"as an ",
	"persona",
	"扮演",
	"作为一名",
}

// skillMarkers signal explicit skill invocations.
var skillMarkers = []string{
	"use skill",
	"use the skill",
	"skill:",
	"使用技能",
	"调用技能",
}

// backendHints maps vocabulary to backend identifiers. Requests naming a
// backend or a capability strongly tied to one get a routing hint.
var backendHints = []struct {
	Backend  string
	Keywords []string
}{
	{"anthropic", []string{"claude", "anthropic"}},
	{"openai", []string{"gpt", "openai", "codex"}},
	{"gemini", []string{"gemini", "multimodal", "image", "图片", "截图"}},
	{"ollama", []string{"ollama", "local model", "本地模型"}},
}

// skillNameSeparators end a skill name and introduce its body.
const skillNameSeparators = " \t\n:：,，。、"

// SkillInvocation extracts the skill name and body from an explicit skill
// request ("use skill summarize: the text"). ok is false when the text
// carries no skill marker or no name follows it; agent-mode callers fall
// back to the persona skill in that case.
func SkillInvocation(text string) (name, body string, ok bool) {
	lower := strings.ToLower(text)
	for _, marker := range skillMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		name, body = splitSkillName(text[idx+len(marker):])
		if name == "" {
			return "", "", false
		}
		return name, body, true
	}
	return "", "", false
}

// splitSkillName separates the leading skill name from the request body.
func splitSkillName(rest string) (string, string) {
	rest = strings.TrimLeft(rest, skillNameSeparators)
	if rest == "" {
		return "", ""
	}
	end := strings.IndexAny(rest, skillNameSeparators)
	if end < 0 {
		return rest, ""
	}
	return rest[:end], strings.TrimLeft(rest[end:], skillNameSeparators)
}

// matchKeyword returns the first keyword contained in the lowercased text,
// or "" when none match.
func matchKeyword(lower string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}

// HasActionVerb reports whether the text contains any keyword from the
// default task vocabulary. The decomposer uses it to judge whether a split
// segment is a complete work item on its own.
func HasActionVerb(text string) bool {
	lower := strings.ToLower(text)
	k := DefaultTaskKeywords
	for _, category := range [][]string{
		k.Development,
		k.Bugfix,
		k.Analysis,
		k.Design,
		k.Testing,
		k.Documentation,
	} {
		if matchKeyword(lower, category) != "" {
			return true
		}
	}
	return false
}
