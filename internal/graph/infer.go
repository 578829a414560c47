package graph

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ShayCichocki/loom/pkg/models"
)

// sequentialPrefixes open a prompt that continues the previous task.
var sequentialPrefixes = []string{
	"然后",
	"接着",
	"随后",
	"之后",
	"then ",
	"afterwards",
}

// referencePatterns capture the name of an upstream result a prompt builds
// on, e.g. "基于A的结果" or "based on the output of A".
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`基于(.{1,24}?)的(?:结果|输出)`),
	regexp.MustCompile(`(?i)based on (?:the )?(?:results?|output) of ([\w./-]{1,40})`),
	regexp.MustCompile(`(?i)using the output of ([\w./-]{1,40})`),
}

// artifactPattern matches file-like tokens such as report.json or docs/api.md.
var artifactPattern = regexp.MustCompile(`[\w./-]*[\w-]\.[A-Za-z]{1,5}\b`)

// produceMarkers signal that a nearby artifact token is an output rather
// than an input.
var produceMarkers = []string{
	"生成",
	"创建",
	"输出",
	"写入",
	"导出",
	"produce",
	"generate",
	"create",
	"write",
	"export",
	"output",
}

// produceWindow is how many runes before an artifact token are scanned for
// a produce marker.
const produceWindow = 24

// inferEdges derives dependency edges from prompt text and reports them
// through addEdge(from, to), meaning `to` depends on `from`. Three
// heuristics run, all biased toward independence: no signal, no edge.
func inferEdges(tasks []*models.SubTask, addEdge func(from, to string)) {
	// Sequential language: a prompt opening with "然后"/"then" continues
	// the task right before it in input order.
	for k := 1; k < len(tasks); k++ {
		prompt := strings.TrimSpace(strings.ToLower(tasks[k].Prompt))
		for _, prefix := range sequentialPrefixes {
			if strings.HasPrefix(prompt, prefix) {
				addEdge(tasks[k-1].ID, tasks[k].ID)
				break
			}
		}
	}

	// Result references: "基于A的结果" points at the first other task whose
	// prompt mentions A.
	for j, task := range tasks {
		for _, ref := range extractReferences(task.Prompt) {
			for i, other := range tasks {
				if i == j {
					continue
				}
				if strings.Contains(other.Prompt, ref) {
					addEdge(other.ID, task.ID)
					break
				}
			}
		}
	}

	// Artifact naming: a task that produces report.json comes before every
	// task that mentions report.json without producing it.
	outputs := make([][]string, len(tasks))
	for i, task := range tasks {
		outputs[i] = artifactOutputs(task.Prompt)
	}
	for i, producer := range tasks {
		for _, token := range outputs[i] {
			for j, consumer := range tasks {
				if i == j || producesArtifact(outputs[j], token) {
					continue
				}
				if strings.Contains(consumer.Prompt, token) {
					addEdge(producer.ID, consumer.ID)
				}
			}
		}
	}
}

// extractReferences returns the upstream names a prompt builds on.
func extractReferences(prompt string) []string {
	var refs []string
	for _, pattern := range referencePatterns {
		for _, m := range pattern.FindAllStringSubmatch(prompt, -1) {
			if ref := strings.TrimSpace(m[1]); ref != "" {
				refs = append(refs, ref)
			}
		}
	}
	return refs
}

// artifactOutputs returns the file-like tokens a prompt produces, judged
// by a produce marker within the preceding window.
func artifactOutputs(prompt string) []string {
	var outs []string
	for _, loc := range artifactPattern.FindAllStringIndex(prompt, -1) {
		windowStart := loc[0]
		runes := 0
		for windowStart > 0 && runes < produceWindow {
			windowStart--
			for windowStart > 0 && !utf8.RuneStart(prompt[windowStart]) {
				windowStart--
			}
			runes++
		}
		window := strings.ToLower(prompt[windowStart:loc[0]])
		for _, marker := range produceMarkers {
			if strings.Contains(window, marker) {
				outs = append(outs, prompt[loc[0]:loc[1]])
				break
			}
		}
	}
	return outs
}

func producesArtifact(outputs []string, token string) bool {
	for _, out := range outputs {
		if out == token {
			return true
		}
	}
	return false
}
