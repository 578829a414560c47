package decompose

import (
	"strings"
	"testing"
)

func TestSplitTopLevel_Delimiters(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"ideographic comma", "甲、乙、丙", []string{"甲", "乙", "丙"}},
		{"fullwidth comma", "甲，乙", []string{"甲", "乙"}},
		{"ascii comma", "a1, b2", []string{"a1", " b2"}},
		{"conjunction yiji", "用户管理以及订单处理", []string{"用户管理", "订单处理"}},
		{"conjunction and", "the parser and the lexer", []string{"the parser", "the lexer"}},
		{"no delimiters", "单独一个任务", []string{"单独一个任务"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pieces := splitTopLevel(tt.input)
			if len(pieces) != len(tt.want) {
				t.Fatalf("splitTopLevel(%q) = %d pieces, want %d", tt.input, len(pieces), len(tt.want))
			}
			for i, p := range pieces {
				if p.text != tt.want[i] {
					t.Errorf("piece %d = %q, want %q", i, p.text, tt.want[i])
				}
			}
		})
	}
}

func TestSplitTopLevel_GuardedRegions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"ascii quotes", `check "a, b" now`, 1},
		{"cjk quotes", "检查「甲、乙」内容", 1},
		{"parentheses", "call f(a, b, c)", 1},
		{"cjk brackets", "阅读《红、黑》一书", 1},
		{"nested brackets", "run g(h(a, b), c)", 1},
		{"delimiter after quote", `check "a, b", then more`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pieces := splitTopLevel(tt.input)
			if len(pieces) != tt.want {
				t.Errorf("splitTopLevel(%q) = %d pieces, want %d", tt.input, len(pieces), tt.want)
			}
		})
	}
}

func TestSplitTopLevel_EmptyPiecesFold(t *testing.T) {
	pieces := splitTopLevel("甲、、乙")
	if len(pieces) != 2 {
		t.Fatalf("Expected 2 pieces, got %d", len(pieces))
	}
	if pieces[0].text != "甲" || pieces[1].text != "乙" {
		t.Errorf("pieces = %q, %q; want 甲, 乙", pieces[0].text, pieces[1].text)
	}
}

func TestSplitTopLevel_WordBoundaryAnd(t *testing.T) {
	// "command" contains "and" but must not split.
	pieces := splitTopLevel("run the command now")
	if len(pieces) != 1 {
		t.Errorf("Expected 1 piece, got %d", len(pieces))
	}
}

func TestMergeShort_FoldsBackward(t *testing.T) {
	pieces := []piece{
		{text: "实现登录", sep: ""},
		{text: "a", sep: "、"},
		{text: "实现注册", sep: "、"},
	}
	segments := mergeShort(pieces)
	if len(segments) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(segments))
	}
	if segments[0] != "实现登录、a" {
		t.Errorf("segment 0 = %q, want %q", segments[0], "实现登录、a")
	}
}

func TestMergeShort_ShortHeadFoldsForward(t *testing.T) {
	// A split inside a word leaves a short head; merging must restore the
	// original text including the separator.
	pieces := []piece{
		{text: "分析", sep: ""},
		{text: "谐算法", sep: "和"},
	}
	segments := mergeShort(pieces)
	if len(segments) != 1 {
		t.Fatalf("Expected 1 segment, got %d", len(segments))
	}
	if segments[0] != "分析和谐算法" {
		t.Errorf("segment = %q, want %q", segments[0], "分析和谐算法")
	}
}

func TestMergeShort_NothingDropped(t *testing.T) {
	pieces := []piece{
		{text: "实现甲功能", sep: ""},
		{text: "b", sep: ","},
		{text: "c", sep: ","},
		{text: "实现乙功能", sep: ","},
	}
	segments := mergeShort(pieces)
	joined := ""
	for _, s := range segments {
		joined += s
	}
	for _, part := range []string{"实现甲功能", "b", "c", "实现乙功能"} {
		if !strings.Contains(joined, part) {
			t.Errorf("part %q missing after merge", part)
		}
	}
}

func TestCleanSegment(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  实现登录，", "实现登录"},
		{"、注册、", "注册"},
		{": login ;", "login"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := cleanSegment(tt.input); got != tt.want {
			t.Errorf("cleanSegment(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
