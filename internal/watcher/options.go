package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

// Options configures the inbox watcher behavior.
type Options struct {
	// Extensions limits events to files with these extensions (lowercase,
	// with dot). Defaults to EPUB files.
	Extensions []string

	// SettleDelay is how long a file must stop changing before an event is
	// emitted. Book files are often copied into the inbox slowly, so the
	// default is generous.
	SettleDelay time.Duration

	// IgnoreHidden skips dotfiles.
	IgnoreHidden bool
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 2 * time.Second
	}
	if o.Extensions == nil {
		o.Extensions = []string{".epub"}
		o.IgnoreHidden = true
	}
}

// wanted checks whether a path is a book file this watcher cares about.
func (o *Options) wanted(path string) bool {
	base := filepath.Base(path)
	if o.IgnoreHidden && strings.HasPrefix(base, ".") {
		return false
	}

	ext := strings.ToLower(filepath.Ext(base))
	for _, want := range o.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}
