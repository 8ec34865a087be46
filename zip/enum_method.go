package zip

import (
	"fmt"

	"github.com/chronos-tachyon/enumhelper"
)

// Method indicates the per-entry compression method recorded in a ZIP
// local/central directory header. The numeric values are the wire values
// PKWARE APPNOTE.TXT assigns to each method, not an arbitrary enumeration.
type Method uint16

const (
	// StoreMethod indicates that the entry's bytes are stored verbatim,
	// with no compression.
	StoreMethod Method = 0

	// DeflateMethod indicates that the entry's bytes are compressed with
	// DEFLATE (RFC 1951).
	DeflateMethod Method = 8
)

// methodData holds only StoreMethod (value 0): enumhelper.DereferenceEnumData
// indexes this slice positionally by the constant's numeric value, and
// DeflateMethod's wire value (8) is PKWARE's, not a small ordinal, so
// GoString special-cases it below rather than growing this slice out to
// index 8.
var methodData = []enumhelper.EnumData{
	{GoName: "StoreMethod", Name: "store"},
}

var methodNameTable = map[Method]string{
	StoreMethod:   "store",
	DeflateMethod: "deflate",
}

var methodParseTable = map[string]Method{
	"store":   StoreMethod,
	"deflate": DeflateMethod,
}

// IsValid returns true if m is a Method this package knows how to read and
// write. Every other value encountered while reading an archive is reported
// as UnknownCompressionMethod.
func (m Method) IsValid() bool {
	_, ok := methodNameTable[m]
	return ok
}

// String returns the registry name used by WithCompressionMethods and by
// EntryOptions.Compression ("store" or "deflate"), or a numeric fallback for
// an unrecognized wire value.
func (m Method) String() string {
	if name, ok := methodNameTable[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", uint16(m))
}

// GoString returns the Go string representation of this Method constant.
func (m Method) GoString() string {
	if m == StoreMethod {
		return enumhelper.DereferenceEnumData("Method", methodData, uint(m)).GoName
	}
	if m == DeflateMethod {
		return "DeflateMethod"
	}
	return m.String()
}

// ParseMethod resolves a registry name ("store", "deflate") to a Method.
// It is the default compressor registry consulted by Flatten when an entry
// names a compression method that WithCompressionMethods did not override.
func ParseMethod(name string) (Method, error) {
	if m, ok := methodParseTable[name]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("zip: unrecognized compression method name %q", name)
}

var _ fmt.Stringer = Method(0)
var _ fmt.GoStringer = Method(0)
