package flate

import (
	"fmt"
	"time"
)

// ErrorCode identifies the kind of error raised by this module's
// compression, decompression, and archive operations.
type ErrorCode int

const (
	// UnexpectedEOF indicates that the bit cursor crossed the end of the
	// input buffer while decoding a symbol.
	UnexpectedEOF ErrorCode = iota + 1

	// InvalidBlockType indicates a DEFLATE block whose BTYPE field was 11
	// (reserved).
	InvalidBlockType

	// InvalidLengthLiteral indicates that a literal/length symbol decoded
	// to a length code with no assigned meaning.
	InvalidLengthLiteral

	// InvalidDistance indicates a distance code with no assigned meaning,
	// or a distance that reaches past the available output and dictionary.
	InvalidDistance

	// InvalidHeader indicates that a zlib or gzip header or footer failed
	// validation, or that a DEFLATE block's own structural framing (a
	// stored block's length complement, a dynamic block's code-length
	// table) failed validation.
	InvalidHeader

	// ExtraFieldTooLong indicates a per-entry ZIP extra field payload
	// exceeding 65535 bytes.
	ExtraFieldTooLong

	// InvalidDate indicates a ZIP entry modification time outside the
	// MS-DOS date range (1980-01-01 through 2099-12-31).
	InvalidDate

	// InvalidZipData indicates that no End Of Central Directory signature
	// was found within the trailing scan window of a purported ZIP archive.
	InvalidZipData

	// UnknownCompressionMethod indicates a ZIP entry whose compression
	// method is neither 0 (store) nor 8 (DEFLATE), encountered while the
	// caller requested extraction of that entry.
	UnknownCompressionMethod

	// FilenameTooLong indicates a ZIP entry name whose UTF-8 or Latin-1
	// encoding exceeds 65535 bytes, or a name that contains a rune outside
	// Latin-1 when Latin-1 name encoding was requested.
	FilenameTooLong

	// DuplicatePath indicates that the directory flattener encountered a
	// full path already claimed by an entry of a different kind (file vs.
	// directory), or a second file at a path already claimed by a file.
	DuplicatePath
)

var errorCodeNames = [...]string{
	UnexpectedEOF:             "UnexpectedEOF",
	InvalidBlockType:          "InvalidBlockType",
	InvalidLengthLiteral:      "InvalidLengthLiteral",
	InvalidDistance:           "InvalidDistance",
	InvalidHeader:             "InvalidHeader",
	ExtraFieldTooLong:         "ExtraFieldTooLong",
	InvalidDate:               "InvalidDate",
	InvalidZipData:            "InvalidZipData",
	UnknownCompressionMethod:  "UnknownCompressionMethod",
	FilenameTooLong:           "FilenameTooLong",
	DuplicatePath:             "DuplicatePath",
}

// String returns the name of this ErrorCode constant.
func (code ErrorCode) String() string {
	if int(code) >= 0 && int(code) < len(errorCodeNames) && errorCodeNames[code] != "" {
		return errorCodeNames[code]
	}
	return fmt.Sprintf("ErrorCode(%d)", int(code))
}

// CorruptInputError is returned when the stream being decompressed contains
// data that violates the compression format standard.
type CorruptInputError struct {
	Kind         ErrorCode
	OffsetTotal  uint64
	OffsetStream uint64
	Problem      string
}

// Error fulfills the error interface.
func (err CorruptInputError) Error() string {
	return fmt.Sprintf("corrupt input at/near byte offset %d: %s", err.OffsetStream, err.Problem)
}

// Code fulfills the codeError interface used by the ZIP layer's error
// inspection helpers.
func (err CorruptInputError) Code() ErrorCode {
	return err.Kind
}

var _ error = CorruptInputError{}

// ZipError is returned by the zip package's Flatten, Write and Read when the
// archive-level request
// cannot be satisfied: a malformed directory entry, an out-of-range
// modification time, a name or extra field that exceeds the ZIP format's
// 16-bit length fields, or a buffer that does not contain a locatable
// End Of Central Directory record.
type ZipError struct {
	ErrCode    ErrorCode
	Path       string
	MTime      time.Time
	MethodCode uint16
	Problem    string
}

// Error fulfills the error interface.
func (err ZipError) Error() string {
	if err.Path != "" {
		return fmt.Sprintf("%v: %s: %s", err.ErrCode, err.Path, err.Problem)
	}
	return fmt.Sprintf("%v: %s", err.ErrCode, err.Problem)
}

// Code fulfills the codeError interface.
func (err ZipError) Code() ErrorCode {
	return err.ErrCode
}

var _ error = ZipError{}

// codeError is fulfilled by every error type this module raises that carries
// a stable ErrorCode, letting callers branch on errors.As(err, ...) without
// needing to know the concrete error type.
type codeError interface {
	error
	Code() ErrorCode
}

var (
	_ codeError = CorruptInputError{}
	_ codeError = ZipError{}
)
