package intent

import (
	"strings"
	"unicode/utf8"

	"github.com/ShayCichocki/loom/pkg/models"
)

// Confidence levels by classification signal. Explicit markers score high,
// vocabulary-only matches score lower, and recognized structure adds a
// small boost on top.
const (
	confCommand  = 0.85
	confSkill    = 0.75
	confTemplate = 0.70
	confAgent    = 0.70
	confBackend  = 0.50

	typeBoost     = 0.15
	parallelBoost = 0.10
)

// Analyzer classifies requests into routing intents. It holds no mutable
// state and is safe for concurrent use.
type Analyzer struct {
	keywords TaskKeywords
}

// NewAnalyzer returns an Analyzer backed by the default vocabulary.
func NewAnalyzer() *Analyzer {
	return &Analyzer{keywords: DefaultTaskKeywords}
}

// Classification is the detailed outcome of one classify pass, including
// which strategy matched and on what keyword.
type Classification struct {
	Intent         models.Intent
	Strategy       string
	MatchedKeyword string
}

// Classify maps a raw request to an Intent. It never fails: requests with
// no recognizable signal fall back to the conservative default intent
// instead of returning an error.
func (a *Analyzer) Classify(request string) models.Intent {
	return a.ClassifyDetailed(request).Intent
}

// ClassifyDetailed is Classify with the matched strategy exposed for
// logging and tests.
func (a *Analyzer) ClassifyDetailed(request string) Classification {
	trimmed := strings.TrimSpace(request)
	if trimmed == "" {
		return Classification{Intent: models.DefaultIntent(), Strategy: "default"}
	}
	lower := strings.ToLower(trimmed)

	match := detectMode(trimmed, lower)
	taskType, typeKeyword := a.detectTaskType(lower)
	parallel, items := detectEnumeration(trimmed, lower)

	explicit := match.Strategy != "backend"
	if !explicit && taskType == "" && !parallel {
		return Classification{Intent: models.DefaultIntent(), Strategy: "default"}
	}

	confidence := match.Confidence
	if taskType != "" {
		confidence += typeBoost
	} else {
		taskType = "general"
	}
	if parallel {
		confidence += parallelBoost
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	keyword := match.Keyword
	if keyword == "" {
		keyword = typeKeyword
	}

	return Classification{
		Intent: models.Intent{
			Mode:       match.Mode,
			TaskType:   taskType,
			Complexity: gradeComplexity(trimmed, items),
			Confidence: confidence,
			// Only backend-routed requests decompose into parallel work.
			EnableParallel: parallel && match.Mode == models.ModeBackend,
			BackendHint:    detectBackendHint(lower),
		},
		Strategy:       match.Strategy,
		MatchedKeyword: keyword,
	}
}

// modeMatch is one strategy's verdict on the execution mode.
type modeMatch struct {
	Mode       models.Mode
	Confidence float64
	Strategy   string
	Keyword    string
}

// detectMode tries the mode strategies in priority order: explicit slash
// commands first, then skill and template markers, then persona vocabulary.
// Everything else routes to a backend.
func detectMode(raw, lower string) modeMatch {
	if strings.HasPrefix(raw, "/") && len(raw) > 1 {
		return modeMatch{models.ModeCommand, confCommand, "command", "/"}
	}
	if kw := matchKeyword(lower, skillMarkers); kw != "" {
		return modeMatch{models.ModeSkill, confSkill, "skill", kw}
	}
	if kw := matchKeyword(lower, templateMarkers); kw != "" {
		return modeMatch{models.ModeTemplate, confTemplate, "template", kw}
	}
	if kw := matchKeyword(lower, personaMarkers); kw != "" {
		return modeMatch{models.ModeAgent, confAgent, "agent", kw}
	}
	return modeMatch{models.ModeBackend, confBackend, "backend", ""}
}

// detectTaskType scans the task vocabularies in priority order and returns
// the first category with a keyword hit, or "" when none match.
func (a *Analyzer) detectTaskType(lower string) (string, string) {
	categories := []struct {
		name     string
		keywords []string
	}{
		{"development", a.keywords.Development},
		{"bugfix", a.keywords.Bugfix},
		{"analysis", a.keywords.Analysis},
		{"design", a.keywords.Design},
		{"testing", a.keywords.Testing},
		{"documentation", a.keywords.Documentation},
	}
	for _, c := range categories {
		if kw := matchKeyword(lower, c.keywords); kw != "" {
			return c.name, kw
		}
	}
	return "", ""
}

// detectEnumeration reports whether the request enumerates multiple work
// items, and roughly how many. Delimiter counting here is intentionally
// loose: the decomposer re-validates segments before any split happens.
func detectEnumeration(raw, lower string) (bool, int) {
	count := 0
	for _, d := range enumDelimiters {
		count += strings.Count(raw, d)
	}
	if count > 0 {
		return true, count + 1
	}
	if matchKeyword(lower, conjunctionMarkers) != "" {
		return true, 2
	}
	return false, 1
}

// detectBackendHint returns the backend named or implied by the request,
// or "" when the request is backend-neutral.
func detectBackendHint(lower string) string {
	for _, h := range backendHints {
		if matchKeyword(lower, h.Keywords) != "" {
			return h.Backend
		}
	}
	return ""
}

// gradeComplexity grades a request by enumeration width, length, and
// clause count.
func gradeComplexity(raw string, items int) models.Complexity {
	runes := utf8.RuneCountInString(raw)
	clauses := countClauses(raw)
	switch {
	case items >= 3 || (items >= 2 && runes > 60):
		return models.ComplexityComplex
	case items >= 2 || runes > 40 || clauses >= 2:
		return models.ComplexityModerate
	default:
		return models.ComplexitySimple
	}
}

var clauseTerminators = map[rune]bool{
	'。': true,
	'！': true,
	'？': true,
	'；': true,
	'!': true,
	'?': true,
	';': true,
}

// countClauses counts sentence-like clauses. A terminator only ends a
// clause when more content follows it, so a trailing period does not
// inflate the count.
func countClauses(raw string) int {
	n := 1
	runes := []rune(raw)
	for i, r := range runes {
		if !clauseTerminators[r] {
			continue
		}
		if strings.TrimSpace(string(runes[i+1:])) != "" {
			n++
		}
	}
	return n
}
