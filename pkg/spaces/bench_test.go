package spaces_test

import (
	"strings"
	"testing"

	"github.com/yaklabco/annotext/pkg/spaces"
)

func benchDoc() string {
	return strings.Repeat("A paragraph with [a link](https://example.com/page) and some more words.\n\n", 500)
}

func BenchmarkDerive(b *testing.B) {
	doc := benchDoc()
	b.ReportAllocs()
	for b.Loop() {
		if _, err := spaces.Derive(doc, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRenderedToCleaned(b *testing.B) {
	sp, err := spaces.Derive(benchDoc(), nil)
	if err != nil {
		b.Fatal(err)
	}
	conv := sp.Converter()
	n := sp.Rendered.Len()

	for i := 0; b.Loop(); i++ {
		conv.ToCleaned(i % n)
	}
}
