package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/annotext/pkg/config"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()

	assert.Equal(t, config.FlavorCommonMark, cfg.Flavor)
	assert.Equal(t, 1, cfg.Validation.Tolerance)
	assert.Equal(t, 500, cfg.Validation.MaxSentenceSpan)
	assert.Equal(t, config.HTMLComments, cfg.Exclude.HTML)
	assert.Equal(t, config.DefaultStorePath, cfg.Store.Path)
	assert.True(t, cfg.BackupsActive())
}

func TestBackupsActive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   bool
	}{
		{name: "defaults", mutate: func(*config.Config) {}, want: true},
		{name: "disabled", mutate: func(c *config.Config) { c.Backups.Enabled = false }, want: false},
		{name: "mode none", mutate: func(c *config.Config) { c.Backups.Mode = "none" }, want: false},
		{name: "cli override", mutate: func(c *config.Config) { c.NoBackups = true }, want: false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig()
			testCase.mutate(cfg)
			assert.Equal(t, testCase.want, cfg.BackupsActive())
		})
	}
}

func TestConfigClone(t *testing.T) {
	t.Parallel()

	t.Run("nil config returns nil", func(t *testing.T) {
		t.Parallel()

		var c *config.Config
		assert.Nil(t, c.Clone())
	})

	t.Run("deep copies fence list", func(t *testing.T) {
		t.Parallel()

		original := config.NewConfig()
		original.Exclude.Fences = []string{"yaml", "mermaid"}
		original.DryRun = true

		clone := original.Clone()
		require.NotNil(t, clone)
		assert.NotSame(t, original, clone)
		assert.True(t, clone.DryRun)

		clone.Exclude.Fences[0] = "json"
		assert.Equal(t, "yaml", original.Exclude.Fences[0])
	})
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	original := config.NewConfig()
	original.Exclude.Fences = []string{"mermaid"}
	original.DryRun = true

	for _, enc := range []config.Encoding{config.EncodingYAML, config.EncodingTOML} {
		t.Run(string(enc), func(t *testing.T) {
			t.Parallel()

			data, err := original.Encode(enc, "# annotext configuration\n")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(data), "# annotext configuration\n\n"))
			assert.Contains(t, string(data), "max_sentence_span")
			assert.NotContains(t, string(data), "dry")

			parsed, unknown, err := config.Decode(enc, data)
			require.NoError(t, err)
			assert.Empty(t, unknown)
			assert.Equal(t, original.Validation, parsed.Validation)
			assert.Equal(t, original.Exclude, parsed.Exclude)
			assert.Equal(t, original.Store, parsed.Store)
			assert.False(t, parsed.DryRun)
		})
	}
}

func TestDecode_UnknownKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		enc  config.Encoding
		data string
	}{
		{name: "yaml", enc: config.EncodingYAML, data: "flavor: gfm\nmystery: 1\nvalidation:\n  tolerance: 2\n"},
		{name: "toml", enc: config.EncodingTOML, data: "flavor = \"gfm\"\nmystery = 1\n\n[validation]\ntolerance = 2\n"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			cfg, unknown, err := config.Decode(testCase.enc, []byte(testCase.data))
			require.NoError(t, err)
			assert.Equal(t, config.FlavorGFM, cfg.Flavor)
			assert.Equal(t, 2, cfg.Validation.Tolerance)
			assert.Equal(t, []string{"mystery"}, unknown)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	_, _, err := config.Decode(config.EncodingYAML, []byte("validation: [unclosed"))
	require.ErrorContains(t, err, "parse yaml")

	_, _, err = config.Decode(config.EncodingYAML, []byte("validation:\n  tolerance: lots\n"))
	require.ErrorContains(t, err, "parse yaml")

	_, _, err = config.Decode(config.EncodingTOML, []byte("flavor = "))
	require.ErrorContains(t, err, "parse toml")

	cfg, _, err := config.Decode(config.EncodingYAML, nil)
	require.NoError(t, err)
	assert.Equal(t, &config.Config{}, cfg)
}

func TestDecode_TOMLLists(t *testing.T) {
	t.Parallel()

	cfg, _, err := config.Decode(config.EncodingTOML, []byte("[exclude]\nhtml = \"all\"\nfences = [\"yaml\", \"toml\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, config.HTMLAll, cfg.Exclude.HTML)
	assert.Equal(t, []string{"yaml", "toml"}, cfg.Exclude.Fences)
}

func TestEncodingFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, config.EncodingTOML, config.EncodingFor(".annotext.toml"))
	assert.Equal(t, config.EncodingTOML, config.EncodingFor("CONFIG.TOML"))
	assert.Equal(t, config.EncodingYAML, config.EncodingFor(".annotext.yml"))
	assert.Equal(t, config.EncodingYAML, config.EncodingFor("config"))
}
