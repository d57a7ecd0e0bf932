// Package runner syncs many documents concurrently.
package runner

// Options controls document discovery and concurrency.
type Options struct {
	// Paths are the files or directories to process. Empty means the
	// working directory.
	Paths []string

	// WorkingDir resolves relative Paths. Empty means the process working
	// directory.
	WorkingDir string

	// Extensions are the lowercase document extensions, with leading dot.
	// Empty means DefaultExtensions().
	Extensions []string

	// ExcludeGlobs skip matching files and directories below a searched
	// directory, e.g. "vendor/**".
	ExcludeGlobs []string

	// FollowSymlinks walks directory symlinks.
	FollowSymlinks bool

	// Jobs caps the number of concurrent workers. 0 or negative means
	// runtime.NumCPU().
	Jobs int

	// GroupKey assigns each file to a group. Files of one group are
	// processed in order by a single worker, so a group can share a
	// resource such as a database. Nil puts every file in its own group.
	GroupKey func(path string) string
}

// DefaultExtensions returns the default set of Markdown file extensions.
func DefaultExtensions() []string {
	return []string{".md", ".markdown"}
}

func (o Options) effectiveExtensions() []string {
	if len(o.Extensions) == 0 {
		return DefaultExtensions()
	}
	return o.Extensions
}

func (o Options) effectivePaths() []string {
	if len(o.Paths) == 0 {
		return []string{"."}
	}
	return o.Paths
}

func (o Options) groupKey(path string) string {
	if o.GroupKey == nil {
		return path
	}
	return o.GroupKey(path)
}
