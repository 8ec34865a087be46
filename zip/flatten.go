package zip

import (
	"strings"
	"time"

	"github.com/chronos-tachyon/assert"
	"github.com/hashicorp/go-multierror"

	flate "github.com/chronos-tachyon/zipflate"
)

// EntryOptions carries the per-entry and archive-wide settings Flatten
// merges to produce each Entry's effective metadata. A nil Method or an
// empty string field means "inherit from the enclosing scope"; the
// outermost (global) EntryOptions passed to Flatten is the final fallback.
type EntryOptions struct {
	Method        *Method
	Compression   string
	ModTime       time.Time
	ExternalAttrs uint32
	ExtraField    []byte
	Comment       string
}

func mergeEntryOptions(outer, inner EntryOptions) EntryOptions {
	eff := outer
	if inner.Method != nil {
		eff.Method = inner.Method
	}
	if inner.Compression != "" {
		eff.Compression = inner.Compression
	}
	if !inner.ModTime.IsZero() {
		eff.ModTime = inner.ModTime
	}
	if inner.ExternalAttrs != 0 {
		eff.ExternalAttrs = inner.ExternalAttrs
	}
	if inner.ExtraField != nil {
		eff.ExtraField = inner.ExtraField
	}
	if inner.Comment != "" {
		eff.Comment = inner.Comment
	}
	return eff
}

// Node is one node of the tree Flatten walks: either a file (Data non-nil,
// even if empty) or a directory (a list of named children). Construct nodes
// with File and Dir rather than composite-literal, since the zero Node is
// ambiguous between "empty file" and "empty directory".
type Node struct {
	isDir    bool
	data     []byte
	children []Child
	options  EntryOptions
}

// Child pairs a path component with the Node beneath it. A Name containing
// "/" is split at flatten time, synthesizing one directory Entry per
// intermediate component.
type Child struct {
	Name string
	Node Node
}

// File constructs a leaf Node carrying data. data is retained, not copied.
func File(data []byte, opts EntryOptions) Node {
	return Node{data: data, options: opts}
}

// Dir constructs a directory Node with the given children, in order.
func Dir(children []Child, opts EntryOptions) Node {
	return Node{isDir: true, children: children, options: opts}
}

// Entry is one flattened (full_path, bytes, effective_options) triple, and
// also the shape Write consumes and Read produces.
type Entry struct {
	Name          string
	IsDir         bool
	Data          []byte
	Method        Method
	ModTime       time.Time
	ExternalAttrs uint32
	ExtraField    []byte
	Comment       string

	// CompressedSize, UncompressedSize, and CRC32 are populated by Read
	// from the central directory; Write ignores them on input and
	// recomputes them from Data.
	CompressedSize   uint64
	UncompressedSize uint64
	CRC32            uint32
}

// Flatten walks root (which must be a directory Node; the archive has no
// name to attach to a bare top-level file) into an ordered slice of Entry,
// synthesizing one directory Entry per unique directory path and merging
// global with each node's own EntryOptions (the node's own settings win).
// A duplicate full path for a file, or a path claimed by both a file and a
// directory, accumulates a DuplicatePath error per occurrence rather than
// aborting the walk; all accumulated errors are returned together.
func Flatten(root Node, global EntryOptions, opts ...Option) ([]Entry, error) {
	assert.Assertf(root.isDir, "zip: Flatten root must be a directory Node")

	var o options
	o.reset()
	o.apply(opts)

	fl := &flattener{opts: &o, seen: make(map[string]pathKind)}
	fl.walkChildren(root.children, "", mergeEntryOptions(global, root.options))

	if len(fl.errlist) == 0 {
		return fl.entries, nil
	}
	if len(fl.errlist) == 1 {
		return fl.entries, fl.errlist[0]
	}
	return fl.entries, &multierror.Error{Errors: fl.errlist}
}

type pathKind struct {
	isDir bool
}

type flattener struct {
	opts    *options
	entries []Entry
	errlist []error
	seen    map[string]pathKind
}

func (fl *flattener) walkChildren(children []Child, prefix string, parentOpts EntryOptions) {
	for _, child := range children {
		fl.walkNamed(child.Name, child.Node, prefix, parentOpts)
	}
}

func (fl *flattener) walkNamed(name string, node Node, prefix string, parentOpts EntryOptions) {
	components := splitPathComponents(name)
	if len(components) == 0 {
		fl.errlist = append(fl.errlist, flate.ZipError{
			ErrCode: flate.DuplicatePath,
			Path:    prefix,
			Problem: "path component is empty after splitting on '/'",
		})
		return
	}

	effective := mergeEntryOptions(parentOpts, node.options)

	path := prefix
	for _, comp := range components[:len(components)-1] {
		path = joinPath(path, comp)
		fl.emitDir(path, effective)
	}
	path = joinPath(path, components[len(components)-1])

	if node.isDir {
		fl.emitDir(path, effective)
		fl.walkChildren(node.children, path, effective)
		return
	}

	fl.emitFile(path, node.data, effective)
}

func splitPathComponents(name string) []string {
	parts := strings.Split(name, "/")
	components := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			components = append(components, p)
		}
	}
	return components
}

func joinPath(prefix, component string) string {
	if prefix == "" {
		return component
	}
	return prefix + "/" + component
}

func (fl *flattener) emitDir(path string, opts EntryOptions) {
	if prev, ok := fl.seen[path]; ok {
		if !prev.isDir {
			fl.errlist = append(fl.errlist, flate.ZipError{
				ErrCode: flate.DuplicatePath,
				Path:    path,
				Problem: "path is already claimed by a file",
			})
		}
		return
	}
	fl.seen[path] = pathKind{isDir: true}

	fl.entries = append(fl.entries, Entry{
		Name:          path + "/",
		IsDir:         true,
		Method:        StoreMethod,
		ModTime:       opts.ModTime,
		ExternalAttrs: opts.ExternalAttrs,
		ExtraField:    opts.ExtraField,
		Comment:       opts.Comment,
	})
}

func (fl *flattener) emitFile(path string, data []byte, opts EntryOptions) {
	if prev, ok := fl.seen[path]; ok {
		kind := "file"
		if prev.isDir {
			kind = "directory"
		}
		fl.errlist = append(fl.errlist, flate.ZipError{
			ErrCode: flate.DuplicatePath,
			Path:    path,
			Problem: "path is already claimed by a " + kind,
		})
		return
	}
	fl.seen[path] = pathKind{isDir: false}

	method, err := fl.resolveMethod(opts)
	if err != nil {
		fl.errlist = append(fl.errlist, err)
		return
	}

	fl.entries = append(fl.entries, Entry{
		Name:          path,
		Data:          data,
		Method:        method,
		ModTime:       opts.ModTime,
		ExternalAttrs: opts.ExternalAttrs,
		ExtraField:    opts.ExtraField,
		Comment:       opts.Comment,
	})
}

func (fl *flattener) resolveMethod(opts EntryOptions) (Method, error) {
	if opts.Method != nil {
		return *opts.Method, nil
	}
	if opts.Compression != "" {
		return fl.opts.resolveMethod(opts.Compression)
	}
	return DeflateMethod, nil
}
