package configloader

import "github.com/yaklabco/annotext/pkg/config"

// set replaces *dst with v unless v is the zero value.
func set[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

// merge returns base overlaid with the values override sets. A zero value
// means unset, so a layer can turn a boolean on but not off, and a nil
// list keeps the lower layer's list while an empty one clears it.
func merge(base, override *config.Config) *config.Config {
	switch {
	case base == nil:
		return override
	case override == nil:
		return base
	}

	out := base.Clone()

	set(&out.LogLevel, override.LogLevel)
	set(&out.Flavor, override.Flavor)
	set(&out.Format, override.Format)
	set(&out.DryRun, override.DryRun)
	set(&out.NoBackups, override.NoBackups)

	set(&out.Validation.Tolerance, override.Validation.Tolerance)
	set(&out.Validation.MaxSentenceSpan, override.Validation.MaxSentenceSpan)

	set(&out.Exclude.HTML, override.Exclude.HTML)
	set(&out.Exclude.DetectLanguage, override.Exclude.DetectLanguage)
	if override.Exclude.Fences != nil {
		out.Exclude.Fences = append([]string(nil), override.Exclude.Fences...)
	}

	set(&out.Store.Path, override.Store.Path)
	set(&out.Backups.Mode, override.Backups.Mode)
	set(&out.Backups.Enabled, override.Backups.Enabled)
	set(&out.Watch.DebounceMs, override.Watch.DebounceMs)

	return out
}

// MergeAll merges configs in order; later ones win.
func MergeAll(configs ...*config.Config) *config.Config {
	var out *config.Config
	for _, cfg := range configs {
		out = merge(out, cfg)
	}
	return out
}
