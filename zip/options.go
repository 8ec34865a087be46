package zip

import (
	"github.com/chronos-tachyon/assert"
)

// Option represents a configuration option for Flatten, Write, or Read.
type Option func(*options)

type options struct {
	comment          string
	methods          map[string]Method
	filenameEncoding FilenameEncoding
	filter           FilterFunc
}

func (o *options) reset() {
	*o = options{
		filenameEncoding: AutoFilenameEncoding,
	}
}

func (o *options) apply(opts []Option) {
	for _, opt := range opts {
		opt(o)
	}
}

func (o *options) resolveMethod(name string) (Method, error) {
	if o.methods != nil {
		if m, ok := o.methods[name]; ok {
			return m, nil
		}
	}
	return ParseMethod(name)
}

// FilenameEncoding selects how Write encodes entry names and decides the
// UTF-8 general-purpose bit flag (PKWARE APPNOTE.TXT §4.4.4 bit 11).
type FilenameEncoding byte

const (
	// AutoFilenameEncoding sets the UTF-8 flag only for names that contain
	// a byte outside the 7-bit ASCII range.
	AutoFilenameEncoding FilenameEncoding = iota

	// UTF8FilenameEncoding always encodes names as UTF-8 and sets the flag.
	UTF8FilenameEncoding

	// Latin1FilenameEncoding never sets the flag. Names containing a rune
	// outside Latin-1 (U+0000-U+00FF) are rejected at Write time.
	Latin1FilenameEncoding
)

// FilterFunc is a caller-supplied predicate evaluated by Read once per
// central directory entry, before that entry's data is decompressed. When it
// returns false, Read skips extraction for that entry; its Entry is still
// returned with Data left nil.
type FilterFunc func(name string, compressedSize, uncompressedSize uint64, method Method) bool

// WithArchiveComment sets the archive-level comment stored after the End Of
// Central Directory record (Write), or is ignored (Read, Flatten).
func WithArchiveComment(comment string) Option {
	assert.Assertf(len(comment) <= 0xFFFF, "archive comment length %d exceeds uint16_t", len(comment))
	return func(o *options) { o.comment = comment }
}

// WithCompressionMethods overrides the registry that Flatten consults when
// an EntryOptions names its compression method by string. Names absent from
// registry still fall back to the built-in "store"/"deflate" names.
func WithCompressionMethods(registry map[string]Method) Option {
	return func(o *options) { o.methods = registry }
}

// WithFilenameEncoding selects the FilenameEncoding strategy used by Write.
// Ignored by Read, which always follows the general-purpose bit flag already
// present in the archive it is parsing.
func WithFilenameEncoding(enc FilenameEncoding) Option {
	return func(o *options) { o.filenameEncoding = enc }
}

// WithFilter installs a FilterFunc consulted by Read. Ignored by Write and
// Flatten.
func WithFilter(filter FilterFunc) Option {
	return func(o *options) { o.filter = filter }
}
