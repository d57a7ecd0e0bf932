package edit_test

import (
	"strings"
	"testing"

	"github.com/yaklabco/annotext/pkg/edit"
	"github.com/yaklabco/annotext/pkg/textpos"
)

func BenchmarkDetect(b *testing.B) {
	before := strings.Repeat("Some sentence in a long document. ", 2000)
	after := before[:len(before)/2] + "An inserted sentence. " + before[len(before)/2:]
	prev, next := textpos.FromString(before), textpos.FromString(after)

	b.ReportAllocs()
	for b.Loop() {
		edit.Detect(prev, next)
	}
}

func BenchmarkGenerateDiff(b *testing.B) {
	lines := make([]string, 400)
	for i := range lines {
		lines[i] = "line of markdown text"
	}
	before := strings.Join(lines, "\n")
	lines[200] = "changed line"
	after := strings.Join(lines, "\n")

	b.ReportAllocs()
	for b.Loop() {
		edit.GenerateDiff("doc.md", before, after)
	}
}
