// Package decompose splits multi-item requests into parallelizable subtasks.
package decompose

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/loom/internal/intent"
	"github.com/ShayCichocki/loom/pkg/models"
)

// Strategy names reported in Decomposition results.
const (
	StrategyContainment = "containment"
	StrategyDelimiter   = "delimiter"
	StrategyNoSplit     = "no_split"
)

// minSegmentRunes is the smallest stand-alone segment. Shorter segments
// merge into a neighbor instead of becoming tasks of their own.
const minSegmentRunes = 3

// Decomposition is the outcome of one decompose pass.
type Decomposition struct {
	Tasks    []*models.SubTask
	Strategy string
}

// Decomposer splits requests into subtasks. It is stateless and safe for
// concurrent use.
type Decomposer struct{}

// New creates a Decomposer.
func New() *Decomposer {
	return &Decomposer{}
}

// Decompose splits a request into subtasks. It never fails: a request that
// cannot be split cleanly comes back as a single subtask holding the whole
// request.
func (d *Decomposer) Decompose(request string, it models.Intent) []*models.SubTask {
	return d.DecomposeDetailed(request, it).Tasks
}

// DecomposeDetailed is Decompose with the winning strategy exposed for
// logging and tests. Strategies run in priority order; the first one that
// yields at least two complete work items wins. The containment pattern is
// checked before the plain delimiter split because a containment sentence
// always contains top-level delimiters and would otherwise never match.
func (d *Decomposer) DecomposeDetailed(request string, it models.Intent) Decomposition {
	trimmed := strings.TrimSpace(request)
	if trimmed == "" || !it.EnableParallel {
		return noSplit(trimmed)
	}

	if tasks, ok := splitContainment(trimmed); ok {
		return Decomposition{Tasks: tasks, Strategy: StrategyContainment}
	}
	if tasks, ok := splitDelimited(trimmed); ok {
		return Decomposition{Tasks: tasks, Strategy: StrategyDelimiter}
	}
	return noSplit(trimmed)
}

func noSplit(request string) Decomposition {
	return Decomposition{
		Tasks:    []*models.SubTask{newSubTask(request)},
		Strategy: StrategyNoSplit,
	}
}

func newSubTask(prompt string) *models.SubTask {
	return &models.SubTask{
		ID:        uuid.New().String()[:8],
		Prompt:    prompt,
		Status:    models.TaskStatusPending,
		CreatedAt: time.Now(),
	}
}

// containmentPattern matches umbrella phrasing like "实现用户系统，包含注册、登录"
// or "build the user system, including registration, login". English
// markers are word-bounded so "container" never matches.
var containmentPattern = regexp.MustCompile(
	`(?i)(包含|包括|含有|\b(?:including|includes|include|containing|contains|contain)\b)`)

// splitContainment handles "X, including A, B, C": one subtask per
// enumerated item, each prefixed with the umbrella context X so the prompt
// stands alone.
func splitContainment(request string) ([]*models.SubTask, bool) {
	loc := containmentPattern.FindStringIndex(request)
	if loc == nil {
		return nil, false
	}

	umbrella := cleanSegment(request[:loc[0]])
	enumeration := strings.TrimSpace(request[loc[1]:])
	if umbrella == "" || enumeration == "" {
		return nil, false
	}

	var items []string
	for _, p := range splitTopLevel(enumeration) {
		if item := cleanSegment(p.text); item != "" {
			items = append(items, item)
		}
	}
	if len(items) < 2 {
		return nil, false
	}

	tasks := make([]*models.SubTask, len(items))
	for i, item := range items {
		tasks[i] = newSubTask(fmt.Sprintf("%s: %s", umbrella, item))
	}
	return tasks, true
}

// splitDelimited splits on top-level delimiters. A segment stands alone
// when it contains an action verb, or when the enumeration head carries
// the verb for every item. If any segment would be incomplete the whole
// split is abandoned, so no part of the request is ever dropped.
func splitDelimited(request string) ([]*models.SubTask, bool) {
	pieces := splitTopLevel(request)
	if len(pieces) < 2 {
		return nil, false
	}

	segments := mergeShort(pieces)
	if len(segments) < 2 {
		return nil, false
	}

	headHasVerb := intent.HasActionVerb(segments[0])
	for _, seg := range segments {
		if !headHasVerb && !intent.HasActionVerb(seg) {
			return nil, false
		}
	}

	tasks := make([]*models.SubTask, len(segments))
	for i, seg := range segments {
		tasks[i] = newSubTask(seg)
	}
	return tasks, true
}
