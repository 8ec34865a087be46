package zip

import (
	"encoding/binary"
	"math"

	flate "github.com/chronos-tachyon/zipflate"
)

const (
	maxEOCDScan = 65557 // 22-byte EOCD + max 65535-byte comment

	zip64SizeFieldSentinel = math.MaxUint32
)

// Read parses a complete in-memory ZIP archive, returning one Entry per
// central directory record in on-disk order. Entries whose data a
// WithFilter predicate rejects are returned with Data left nil.
func Read(data []byte, opts ...Option) ([]Entry, error) {
	var o options
	o.reset()
	o.apply(opts)

	eocdOff, err := locateEOCD(data)
	if err != nil {
		return nil, err
	}

	count, cdOffset, err := resolveDirectoryLocation(data, eocdOff)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, count)
	pos := cdOffset
	for i := uint64(0); i < count; i++ {
		ent, next, err := readCentralRecord(data, pos, &o)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ent)
		pos = next
	}
	return entries, nil
}

func locateEOCD(data []byte) (uint64, error) {
	n := len(data)
	if n < eocdSize {
		return 0, errNoEOCD()
	}

	start := n - eocdSize
	limit := start - maxEOCDScan
	if limit < 0 {
		limit = 0
	}

	for off := start; off >= limit; off-- {
		if binary.LittleEndian.Uint32(data[off:off+4]) == eocdSignature {
			return uint64(off), nil
		}
		if off == 0 {
			break
		}
	}
	return 0, errNoEOCD()
}

func errNoEOCD() error {
	return flate.ZipError{
		ErrCode: flate.InvalidZipData,
		Problem: "no End Of Central Directory signature found within the trailing scan window",
	}
}

// resolveDirectoryLocation returns the entry count and central-directory
// start offset, consulting the ZIP64 EOCD locator when the plain EOCD
// fields are saturated.
func resolveDirectoryLocation(data []byte, eocdOff uint64) (count, cdOffset uint64, err error) {
	count = uint64(binary.LittleEndian.Uint16(data[eocdOff+10 : eocdOff+12]))
	cdOffset = uint64(binary.LittleEndian.Uint32(data[eocdOff+16 : eocdOff+20]))
	cdSizeField := binary.LittleEndian.Uint32(data[eocdOff+12 : eocdOff+16])

	needZip64 := count == math.MaxUint16 || cdOffset == zip64SizeFieldSentinel || cdSizeField == zip64SizeFieldSentinel
	if !needZip64 {
		return count, cdOffset, nil
	}

	if eocdOff < zip64LocatorSize {
		return 0, 0, flate.ZipError{
			ErrCode: flate.InvalidZipData,
			Problem: "EOCD signals ZIP64 but no room precedes it for a ZIP64 locator",
		}
	}
	locatorOff := eocdOff - zip64LocatorSize
	if binary.LittleEndian.Uint32(data[locatorOff:locatorOff+4]) != zip64LocatorSignature {
		return 0, 0, flate.ZipError{
			ErrCode: flate.InvalidZipData,
			Problem: "ZIP64 end-of-central-directory locator signature not found",
		}
	}

	zip64EOCDOff := binary.LittleEndian.Uint64(data[locatorOff+8 : locatorOff+16])
	if zip64EOCDOff+zip64EOCDSize > uint64(len(data)) {
		return 0, 0, flate.ZipError{
			ErrCode: flate.InvalidZipData,
			Problem: "ZIP64 end-of-central-directory record offset is out of range",
		}
	}
	if binary.LittleEndian.Uint32(data[zip64EOCDOff:zip64EOCDOff+4]) != zip64EOCDSignature {
		return 0, 0, flate.ZipError{
			ErrCode: flate.InvalidZipData,
			Problem: "ZIP64 end-of-central-directory record signature not found",
		}
	}

	count = binary.LittleEndian.Uint64(data[zip64EOCDOff+32 : zip64EOCDOff+40])
	cdOffset = binary.LittleEndian.Uint64(data[zip64EOCDOff+48 : zip64EOCDOff+56])
	return count, cdOffset, nil
}

// readCentralRecord decodes the central directory record at pos, returning
// the Entry it describes and the offset of the record that follows it.
func readCentralRecord(data []byte, pos uint64, o *options) (Entry, uint64, error) {
	if pos+centralHeaderSize > uint64(len(data)) {
		return Entry{}, 0, flate.ZipError{ErrCode: flate.InvalidZipData, Problem: "central directory record runs past end of buffer"}
	}
	hdr := data[pos : pos+centralHeaderSize]
	if binary.LittleEndian.Uint32(hdr[0:4]) != centralHeaderSignature {
		return Entry{}, 0, flate.ZipError{ErrCode: flate.InvalidZipData, Problem: "central directory record signature not found"}
	}

	flags := binary.LittleEndian.Uint16(hdr[8:10])
	method := Method(binary.LittleEndian.Uint16(hdr[10:12]))
	dosTime := binary.LittleEndian.Uint32(hdr[12:16])
	crc32 := binary.LittleEndian.Uint32(hdr[16:20])
	compSize := uint64(binary.LittleEndian.Uint32(hdr[20:24]))
	uncompSize := uint64(binary.LittleEndian.Uint32(hdr[24:28]))
	nameLen := uint64(binary.LittleEndian.Uint16(hdr[28:30]))
	extraLen := uint64(binary.LittleEndian.Uint16(hdr[30:32]))
	commentLen := uint64(binary.LittleEndian.Uint16(hdr[32:34]))
	attrs := binary.LittleEndian.Uint32(hdr[38:42])
	localOff := uint64(binary.LittleEndian.Uint32(hdr[42:46]))

	fieldsEnd := pos + centralHeaderSize
	nameBytes := data[fieldsEnd : fieldsEnd+nameLen]
	extraBytes := data[fieldsEnd+nameLen : fieldsEnd+nameLen+extraLen]
	commentBytes := data[fieldsEnd+nameLen+extraLen : fieldsEnd+nameLen+extraLen+commentLen]

	if z := findZip64Extra(extraBytes); z != nil {
		localOff, uncompSize, compSize = applyZip64Extra(z, localOff, uncompSize, compSize)
	}

	name := decodeEntryName(nameBytes, flags)
	isDir := len(name) > 0 && name[len(name)-1] == '/'

	ent := Entry{
		Name:             name,
		IsDir:            isDir,
		Method:           method,
		ModTime:          unpackMSDOSTime(dosTime),
		ExternalAttrs:    attrs,
		ExtraField:       append([]byte(nil), extraBytes...),
		Comment:          string(commentBytes),
		CompressedSize:   compSize,
		UncompressedSize: uncompSize,
		CRC32:            crc32,
	}

	if !isDir && (o.filter == nil || o.filter(name, compSize, uncompSize, method)) {
		payload, err := extractEntry(data, localOff, method, compSize, uncompSize)
		if err != nil {
			return Entry{}, 0, err
		}
		ent.Data = payload
	}

	next := fieldsEnd + nameLen + extraLen + commentLen
	return ent, next, nil
}

// findZip64Extra locates the id=1 record within a packed extra-field area.
func findZip64Extra(extra []byte) []byte {
	for len(extra) >= 4 {
		id := binary.LittleEndian.Uint16(extra[0:2])
		size := uint64(binary.LittleEndian.Uint16(extra[2:4]))
		if uint64(len(extra)) < 4+size {
			return nil
		}
		payload := extra[4 : 4+size]
		if id == zip64ExtraFieldID {
			return payload
		}
		extra = extra[4+size:]
	}
	return nil
}

// applyZip64Extra substitutes the 8-byte ZIP64 fields that are actually
// present, in the fixed order PKWARE APPNOTE.TXT §4.5.3 specifies:
// uncompressed size, compressed size, then local-header offset — each one
// present in the extra field only if its 32-bit home field was saturated.
func applyZip64Extra(z []byte, localOff, uncompSize, compSize uint64) (newLocalOff, newUncompSize, newCompSize uint64) {
	newLocalOff, newUncompSize, newCompSize = localOff, uncompSize, compSize
	idx := 0

	if uncompSize == zip64SizeFieldSentinel && idx+8 <= len(z) {
		newUncompSize = binary.LittleEndian.Uint64(z[idx : idx+8])
		idx += 8
	}
	if compSize == zip64SizeFieldSentinel && idx+8 <= len(z) {
		newCompSize = binary.LittleEndian.Uint64(z[idx : idx+8])
		idx += 8
	}
	if localOff == zip64SizeFieldSentinel && idx+8 <= len(z) {
		newLocalOff = binary.LittleEndian.Uint64(z[idx : idx+8])
		idx += 8
	}
	return
}

func decodeEntryName(raw []byte, flags uint16) string {
	if flags&flagUTF8Name != 0 {
		return string(raw)
	}
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}

// extractEntry re-reads the local header's own name/extra lengths (which
// may differ from the central directory's) to find the start of the
// compressed payload, then decompresses or copies it per method.
func extractEntry(data []byte, localOff uint64, method Method, compSize, uncompSize uint64) ([]byte, error) {
	if localOff+localHeaderSize > uint64(len(data)) {
		return nil, flate.ZipError{ErrCode: flate.InvalidZipData, Problem: "local header offset is out of range"}
	}
	lhdr := data[localOff : localOff+localHeaderSize]
	if binary.LittleEndian.Uint32(lhdr[0:4]) != localHeaderSignature {
		return nil, flate.ZipError{ErrCode: flate.InvalidZipData, Problem: "local file header signature not found"}
	}
	localNameLen := uint64(binary.LittleEndian.Uint16(lhdr[26:28]))
	localExtraLen := uint64(binary.LittleEndian.Uint16(lhdr[28:30]))

	dataOffset := localOff + localHeaderSize + localNameLen + localExtraLen
	if dataOffset+compSize > uint64(len(data)) {
		return nil, flate.ZipError{ErrCode: flate.InvalidZipData, Problem: "entry payload runs past end of buffer"}
	}
	payload := data[dataOffset : dataOffset+compSize]

	switch method {
	case StoreMethod:
		return append([]byte(nil), payload...), nil
	case DeflateMethod:
		out, err := flate.Inflate(payload)
		if err != nil {
			return nil, err
		}
		if uint64(len(out)) != uncompSize {
			return nil, flate.ZipError{
				ErrCode: flate.InvalidZipData,
				Problem: "decompressed size does not match the size recorded in the central directory",
			}
		}
		return out, nil
	default:
		return nil, flate.ZipError{
			ErrCode:    flate.UnknownCompressionMethod,
			MethodCode: uint16(method),
			Problem:    "central directory names a compression method this package cannot read",
		}
	}
}
