package pretty_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yaklabco/annotext/internal/ui/pretty"
)

func TestNewStyles_PlainRendersUnchanged(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	for name, style := range map[string]interface{ Render(...string) string }{
		"error":      styles.Error,
		"warning":    styles.Warning,
		"file path":  styles.FilePath,
		"link":       styles.Link,
		"diff add":   styles.DiffAdd,
		"review row": styles.TableReviewRow,
		"stale row":  styles.TableStaleRow,
		"bold":       styles.Bold,
	} {
		assert.Equal(t, "text", style.Render("text"), name)
	}
}

func TestNewStyles_ColoredKeepsText(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(true)
	assert.Contains(t, styles.Warning.Render("needs review"), "needs review")
	assert.Contains(t, styles.TableStaleRow.Render("!"), "!")
}

func TestIsColorEnabled(t *testing.T) {
	t.Setenv("NO_COLOR", "")

	var buf bytes.Buffer
	tests := []struct {
		name string
		mode string
		want bool
	}{
		{name: "always", mode: pretty.ColorAlways, want: true},
		{name: "never", mode: pretty.ColorNever, want: false},
		{name: "auto without terminal", mode: pretty.ColorAuto, want: false},
		{name: "empty means auto", mode: "", want: false},
		{name: "unknown means auto", mode: "sometimes", want: false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, pretty.IsColorEnabled(testCase.mode, &buf))
		})
	}
}

func TestIsColorEnabled_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	assert.False(t, pretty.IsColorEnabled(pretty.ColorAuto, os.Stdout))
	assert.True(t, pretty.IsColorEnabled(pretty.ColorAlways, os.Stdout), "always wins over NO_COLOR")
}
