package exclude_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/annotext/pkg/config"
	"github.com/yaklabco/annotext/pkg/exclude"
	"github.com/yaklabco/annotext/pkg/spaces"
	"github.com/yaklabco/annotext/pkg/textpos"
)

const document = "<!-- meta: 1 -->\n# Title\n\nText here.\n\n" +
	"```yaml\na: 1\n```\n\n" +
	"```\nkey: value\nother: 2\n```\n" +
	"End.\n"

func blockTexts(src string, blocks []exclude.Block) []string {
	texts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		texts = append(texts, src[b.StartByte:b.EndByte])
	}
	return texts
}

func TestDetector_Blocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.ExcludeConfig
		want []string
	}{
		{
			name: "comments only",
			cfg:  config.ExcludeConfig{HTML: config.HTMLComments},
			want: []string{"<!-- meta: 1 -->\n"},
		},
		{
			name: "nothing excluded",
			cfg:  config.ExcludeConfig{HTML: config.HTMLNone},
			want: []string{},
		},
		{
			name: "labelled fence",
			cfg:  config.ExcludeConfig{HTML: config.HTMLNone, Fences: []string{"YML"}},
			want: []string{"```yaml\na: 1\n```\n"},
		},
		{
			name: "detected fence",
			cfg:  config.ExcludeConfig{HTML: config.HTMLComments, Fences: []string{"yaml"}, DetectLanguage: true},
			want: []string{
				"<!-- meta: 1 -->\n",
				"```yaml\na: 1\n```\n",
				"```\nkey: value\nother: 2\n```\n",
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			detector := exclude.New(config.FlavorCommonMark, testCase.cfg)
			blocks, err := detector.Blocks(context.Background(), []byte(document))
			require.NoError(t, err)

			assert.Equal(t, testCase.want, blockTexts(document, blocks))
		})
	}
}

func TestDetector_DetectedLanguageIsReported(t *testing.T) {
	t.Parallel()

	detector := exclude.New(config.FlavorCommonMark, config.ExcludeConfig{
		Fences:         []string{"yaml"},
		DetectLanguage: true,
	})
	blocks, err := detector.Blocks(context.Background(), []byte(document))
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, exclude.KindFence, blocks[0].Kind)
	assert.Equal(t, "yaml", blocks[0].Language)
	assert.False(t, blocks[0].Detected)
	assert.True(t, blocks[1].Detected)
}

func TestDetector_HTMLModes(t *testing.T) {
	t.Parallel()

	src := "<div>\nhi\n</div>\n\nAfter.\n"

	all := exclude.New(config.FlavorCommonMark, config.ExcludeConfig{HTML: config.HTMLAll})
	blocks, err := all.Blocks(context.Background(), []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"<div>\nhi\n</div>\n"}, blockTexts(src, blocks))

	comments := exclude.New(config.FlavorCommonMark, config.ExcludeConfig{HTML: config.HTMLComments})
	blocks, err = comments.Blocks(context.Background(), []byte(src))
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestDetector_FenceVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "tilde fence", src: "Intro.\n\n~~~ Mermaid\ngraph TD\n~~~\nAfter.\n", want: "~~~ Mermaid\ngraph TD\n~~~\n"},
		{name: "unclosed fence", src: "Intro.\n\n```mermaid\ngraph TD\n", want: "```mermaid\ngraph TD\n"},
		{name: "empty labelled fence", src: "```mermaid\n```\nAfter.\n", want: "```mermaid\n```\n"},
	}

	detector := exclude.New(config.FlavorCommonMark, config.ExcludeConfig{Fences: []string{"mermaid"}})
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			blocks, err := detector.Blocks(context.Background(), []byte(testCase.src))
			require.NoError(t, err)
			assert.Equal(t, []string{testCase.want}, blockTexts(testCase.src, blocks))
		})
	}
}

func TestDetector_RangesAreUTF16(t *testing.T) {
	t.Parallel()

	src := "é😀\n\n<!-- x -->\n"
	detector := exclude.New(config.FlavorCommonMark, config.ExcludeConfig{HTML: config.HTMLComments})

	ranges, err := detector.Ranges(context.Background(), []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []textpos.Range{{Start: 5, End: 16}}, ranges)
}

func TestDetector_FeedsSpaces(t *testing.T) {
	t.Parallel()

	detector := exclude.New(config.FlavorGFM, config.ExcludeConfig{HTML: config.HTMLComments})
	ranges, err := detector.Ranges(context.Background(), []byte(document))
	require.NoError(t, err)

	sp, err := spaces.Derive(document, ranges)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sp.Cleaned.String(), "# Title"))
}

func TestDetector_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exclude.New(config.FlavorCommonMark, config.ExcludeConfig{}).Blocks(ctx, []byte(document))
	require.ErrorIs(t, err, context.Canceled)
}
