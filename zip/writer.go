package zip

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/chronos-tachyon/assert"

	flate "github.com/chronos-tachyon/zipflate"
)

const (
	localHeaderSignature   = 0x04034b50
	centralHeaderSignature = 0x02014b50
	eocdSignature          = 0x06054b50
	zip64EOCDSignature     = 0x06064b50
	zip64LocatorSignature  = 0x07064b50

	zip64ExtraFieldID = 0x0001

	versionNeeded = 20
	versionUnix   = 3 // host system byte for "version made by"

	localHeaderSize   = 30
	centralHeaderSize = 46
	eocdSize          = 22
	zip64EOCDSize     = 56
	zip64LocatorSize  = 20
)

const (
	flagUTF8Name = 1 << 11
)

// writeEntry is the writer's internal, fully-resolved view of one Entry: its
// name bytes and flags already decided, its payload already compressed (or
// left alone for Store), ready to be measured and then laid out.
type writeEntry struct {
	name       []byte
	flags      uint16
	method     Method
	modTime    uint32
	crc32      uint32
	compressed []byte
	uncompSize uint64
	extra      []byte // local-header copy: original extra + ZIP64 sizes placeholder, if needed
	attrs      uint32
	comment    string
	localOff   uint64

	sizesOverflow  bool
	offsetOverflow bool
	centralExtra   []byte // central-directory copy, built once sizesOverflow/offsetOverflow are known
}

// Write assembles entries into a single in-memory ZIP archive. Entries are
// written in the order given; Flatten's output, passed through unmodified,
// preserves host insertion order.
func Write(entries []Entry, opts ...Option) ([]byte, error) {
	var o options
	o.reset()
	o.apply(opts)

	prepared := make([]writeEntry, len(entries))
	for i, ent := range entries {
		we, err := prepareEntry(ent, &o)
		if err != nil {
			return nil, err
		}
		prepared[i] = we
	}

	total, useZip64 := sizeArchive(prepared, o.comment)
	out := make([]byte, 0, total)

	for i := range prepared {
		assert.Assertf(prepared[i].localOff == uint64(len(out)), "zip: entry %d local offset mismatch: want %d, have %d", i, prepared[i].localOff, len(out))
		out = appendLocalHeader(out, &prepared[i])
	}

	cdStart := uint64(len(out))
	for i := range prepared {
		out = appendCentralHeader(out, &prepared[i])
	}
	cdSize := uint64(len(out)) - cdStart

	out = appendEOCD(out, uint64(len(prepared)), cdSize, cdStart, o.comment, useZip64)

	assert.Assertf(uint64(len(out)) == total, "zip: sizing pass predicted %d bytes, wrote %d", total, len(out))
	return out, nil
}

func prepareEntry(ent Entry, o *options) (writeEntry, error) {
	name, flags, err := encodeEntryName(ent.Name, o.filenameEncoding)
	if err != nil {
		return writeEntry{}, err
	}
	if len(name) > math.MaxUint16 {
		return writeEntry{}, flate.ZipError{
			ErrCode: flate.FilenameTooLong,
			Path:    ent.Name,
			Problem: "encoded name exceeds 65535 bytes",
		}
	}
	if len(ent.ExtraField) > math.MaxUint16 {
		return writeEntry{}, flate.ZipError{
			ErrCode: flate.ExtraFieldTooLong,
			Path:    ent.Name,
			Problem: "extra field exceeds 65535 bytes",
		}
	}

	modTime := ent.ModTime
	if modTime.IsZero() {
		modTime = defaultModTime
	}
	dosTime, err := packMSDOSTime(modTime)
	if err != nil {
		return writeEntry{}, err
	}

	we := writeEntry{
		name:       name,
		flags:      flags,
		modTime:    dosTime,
		extra:      ent.ExtraField,
		attrs:      ent.ExternalAttrs,
		comment:    ent.Comment,
		uncompSize: uint64(len(ent.Data)),
	}

	if ent.IsDir {
		we.method = StoreMethod
		we.crc32 = 0
		we.compressed = nil
		return we, nil
	}

	we.crc32 = flate.CRC32(ent.Data)

	method := ent.Method
	compressed := ent.Data
	if method == DeflateMethod {
		deflated, allStored, err := deflateEntry(ent.Data)
		if err != nil {
			return writeEntry{}, err
		}
		if allStored {
			method = StoreMethod
		} else {
			compressed = deflated
		}
	} else if !method.IsValid() {
		return writeEntry{}, flate.ZipError{
			ErrCode:    flate.UnknownCompressionMethod,
			Path:       ent.Name,
			MethodCode: uint16(method),
			Problem:    "Entry.Method is neither Store nor Deflate",
		}
	}

	we.method = method
	we.compressed = compressed
	return we, nil
}

// defaultModTime is substituted for an Entry with a zero ModTime, since
// PKWARE's MS-DOS date field cannot represent the Go zero time.
var defaultModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// deflateEntry compresses data as a raw DEFLATE stream while watching, via a
// Tracer, whether every block the encoder emitted was a stored block. When
// it was, the caller downgrades the entry's ZIP method to Store rather than
// keep a DEFLATE stream that is nothing but stored blocks with extra framing
// on top.
func deflateEntry(data []byte) (compressed []byte, allStored bool, err error) {
	allStored = true
	sawBlock := false
	watch := flate.TracerFunc(func(ev flate.Event) {
		if ev.Type == flate.BlockBeginEvent && ev.Block != nil {
			sawBlock = true
			if ev.Block.Type != flate.StoredBlock {
				allStored = false
			}
		}
	})

	enc := flate.NewEncoder(flate.WithFormat(flate.RawFormat), flate.WithTracers(watch))
	if _, err = enc.Write(data); err != nil {
		return nil, false, err
	}
	compressed, err = enc.Close()
	if err != nil {
		return nil, false, err
	}
	if !sawBlock {
		allStored = false
	}
	return compressed, allStored, nil
}

func encodeEntryName(name string, enc FilenameEncoding) ([]byte, uint16, error) {
	switch enc {
	case UTF8FilenameEncoding:
		return []byte(name), flagUTF8Name, nil
	case Latin1FilenameEncoding:
		raw, err := encodeLatin1(name)
		if err != nil {
			return nil, 0, flate.ZipError{ErrCode: flate.FilenameTooLong, Path: name, Problem: err.Error()}
		}
		return raw, 0, nil
	default:
		if isASCII(name) {
			return []byte(name), 0, nil
		}
		return []byte(name), flagUTF8Name, nil
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func encodeLatin1(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0x00FF {
			return nil, errInvalidLatin1(s)
		}
		out = append(out, byte(r))
	}
	return out, nil
}

type errInvalidLatin1 string

func (e errInvalidLatin1) Error() string {
	return "name " + string(e) + " contains a rune outside Latin-1"
}

func needsZip64(we *writeEntry) bool {
	return we.uncompSize > math.MaxUint32 || uint64(len(we.compressed)) > math.MaxUint32
}

// sizeArchive decides, entry by entry and then archive-wide, exactly which
// fields need ZIP64 treatment, builds each entry's final local and central
// extra-field bytes accordingly, and returns the exact total byte count
// Write will produce. Local-header offsets only depend on the local-header
// and payload sizes of preceding entries (never on central-directory
// layout), so they can be assigned here in the same forward pass that picks
// local extra-field sizes, with no circularity.
func sizeArchive(prepared []writeEntry, comment string) (uint64, bool) {
	useZip64 := len(prepared) > math.MaxUint16

	var off uint64
	for i := range prepared {
		we := &prepared[i]
		we.sizesOverflow = needsZip64(we)
		if we.sizesOverflow {
			we.extra = appendZip64ExtraPlaceholder(we.extra)
			useZip64 = true
		}
		we.localOff = off
		off += localHeaderSize + uint64(len(we.name)) + uint64(len(we.extra)) + uint64(len(we.compressed))
	}

	for i := range prepared {
		if prepared[i].localOff > math.MaxUint32 {
			prepared[i].offsetOverflow = true
			useZip64 = true
		}
	}

	var total uint64
	for i := range prepared {
		we := &prepared[i]
		we.centralExtra = buildCentralExtra(we)
		total += localHeaderSize + uint64(len(we.name)) + uint64(len(we.extra)) + uint64(len(we.compressed))
		total += centralHeaderSize + uint64(len(we.name)) + uint64(len(we.centralExtra)) + uint64(len(we.comment))
	}
	total += eocdSize + uint64(len(comment))

	if useZip64 {
		total += zip64EOCDSize + zip64LocatorSize
	}

	return total, useZip64
}

// buildCentralExtra assembles the central-directory copy of this entry's
// extra field: its original bytes (never the local-header ZIP64 placeholder,
// which is a local-header-only artifact) followed by a ZIP64 tag carrying
// whichever subfields actually overflowed their 32-bit home, in the fixed
// order PKWARE APPNOTE.TXT §4.5.3 requires: uncompressed size, compressed
// size, then local-header offset.
func buildCentralExtra(we *writeEntry) []byte {
	if !we.sizesOverflow && !we.offsetOverflow {
		return we.baseExtra()
	}

	var payload []byte
	if we.sizesOverflow {
		var sizes [16]byte
		binary.LittleEndian.PutUint64(sizes[0:8], we.uncompSize)
		binary.LittleEndian.PutUint64(sizes[8:16], uint64(len(we.compressed)))
		payload = append(payload, sizes[:]...)
	}
	if we.offsetOverflow {
		var off [8]byte
		binary.LittleEndian.PutUint64(off[:], we.localOff)
		payload = append(payload, off[:]...)
	}

	var tag [4]byte
	binary.LittleEndian.PutUint16(tag[0:2], zip64ExtraFieldID)
	binary.LittleEndian.PutUint16(tag[2:4], uint16(len(payload)))

	base := we.baseExtra()
	out := make([]byte, 0, len(base)+4+len(payload))
	out = append(out, base...)
	out = append(out, tag[:]...)
	out = append(out, payload...)
	return out
}

// baseExtra returns this entry's extra-field bytes with the local-header
// ZIP64 sizes placeholder stripped back off, if one was added.
func (we *writeEntry) baseExtra() []byte {
	if !we.sizesOverflow {
		return we.extra
	}
	return we.extra[:len(we.extra)-20]
}

// appendZip64ExtraPlaceholder reserves room for a ZIP64 extended-information
// extra field big enough to carry both sizes (16 bytes of payload); the
// local-header offset and disk-start subfields are only required in the
// central directory copy and are appended separately there.
func appendZip64ExtraPlaceholder(extra []byte) []byte {
	var tag [4]byte
	binary.LittleEndian.PutUint16(tag[0:2], zip64ExtraFieldID)
	binary.LittleEndian.PutUint16(tag[2:4], 16)
	out := make([]byte, 0, len(extra)+4+16)
	out = append(out, extra...)
	out = append(out, tag[:]...)
	out = append(out, make([]byte, 16)...)
	return out
}

func fillZip64Extra(extra []byte, uncompSize, compSize uint64) {
	id := binary.LittleEndian.Uint16(extra[0:2])
	assert.Assertf(id == zip64ExtraFieldID, "zip: expected ZIP64 extra field id, got %#04x", id)
	binary.LittleEndian.PutUint64(extra[4:12], uncompSize)
	binary.LittleEndian.PutUint64(extra[12:20], compSize)
}

func appendLocalHeader(out []byte, we *writeEntry) []byte {
	var hdr [localHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], localHeaderSignature)
	binary.LittleEndian.PutUint16(hdr[4:6], versionNeeded)
	binary.LittleEndian.PutUint16(hdr[6:8], we.flags)
	binary.LittleEndian.PutUint16(hdr[8:10], uint16(we.method))
	binary.LittleEndian.PutUint32(hdr[10:14], we.modTime)
	binary.LittleEndian.PutUint32(hdr[14:18], we.crc32)

	if we.sizesOverflow {
		fillZip64Extra(we.extra, we.uncompSize, uint64(len(we.compressed)))
		binary.LittleEndian.PutUint32(hdr[18:22], math.MaxUint32)
		binary.LittleEndian.PutUint32(hdr[22:26], math.MaxUint32)
	} else {
		binary.LittleEndian.PutUint32(hdr[18:22], uint32(len(we.compressed)))
		binary.LittleEndian.PutUint32(hdr[22:26], uint32(we.uncompSize))
	}

	binary.LittleEndian.PutUint16(hdr[26:28], uint16(len(we.name)))
	binary.LittleEndian.PutUint16(hdr[28:30], uint16(len(we.extra)))

	out = append(out, hdr[:]...)
	out = append(out, we.name...)
	out = append(out, we.extra...)
	out = append(out, we.compressed...)
	return out
}

func appendCentralHeader(out []byte, we *writeEntry) []byte {
	var hdr [centralHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], centralHeaderSignature)
	binary.LittleEndian.PutUint16(hdr[4:6], (versionUnix<<8)|versionNeeded)
	binary.LittleEndian.PutUint16(hdr[6:8], versionNeeded)
	binary.LittleEndian.PutUint16(hdr[8:10], we.flags)
	binary.LittleEndian.PutUint16(hdr[10:12], uint16(we.method))
	binary.LittleEndian.PutUint32(hdr[12:16], we.modTime)
	binary.LittleEndian.PutUint32(hdr[16:20], we.crc32)

	if we.sizesOverflow {
		binary.LittleEndian.PutUint32(hdr[20:24], math.MaxUint32)
		binary.LittleEndian.PutUint32(hdr[24:28], math.MaxUint32)
	} else {
		binary.LittleEndian.PutUint32(hdr[20:24], uint32(len(we.compressed)))
		binary.LittleEndian.PutUint32(hdr[24:28], uint32(we.uncompSize))
	}

	binary.LittleEndian.PutUint16(hdr[28:30], uint16(len(we.name)))
	binary.LittleEndian.PutUint16(hdr[30:32], uint16(len(we.centralExtra)))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(len(we.comment)))
	binary.LittleEndian.PutUint16(hdr[34:36], 0) // disk number start
	binary.LittleEndian.PutUint16(hdr[36:38], 0) // internal attrs
	binary.LittleEndian.PutUint32(hdr[38:42], we.attrs)

	if we.offsetOverflow {
		binary.LittleEndian.PutUint32(hdr[42:46], math.MaxUint32)
	} else {
		binary.LittleEndian.PutUint32(hdr[42:46], uint32(we.localOff))
	}

	out = append(out, hdr[:]...)
	out = append(out, we.name...)
	out = append(out, we.centralExtra...)
	out = append(out, []byte(we.comment)...)
	return out
}

func appendEOCD(out []byte, count, cdSize, cdOffset uint64, comment string, useZip64 bool) []byte {
	if useZip64 {
		out = appendZip64EOCD(out, count, cdSize, cdOffset)
		out = appendZip64Locator(out, uint64(len(out)))
	}

	var hdr [eocdSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], eocdSignature)
	binary.LittleEndian.PutUint16(hdr[4:6], 0) // this disk
	binary.LittleEndian.PutUint16(hdr[6:8], 0) // disk with CD

	entryCount16 := uint16(count)
	cdSize32 := uint32(cdSize)
	cdOffset32 := uint32(cdOffset)
	if count > math.MaxUint16 {
		entryCount16 = math.MaxUint16
	}
	if cdSize > math.MaxUint32 {
		cdSize32 = math.MaxUint32
	}
	if cdOffset > math.MaxUint32 {
		cdOffset32 = math.MaxUint32
	}

	binary.LittleEndian.PutUint16(hdr[8:10], entryCount16)
	binary.LittleEndian.PutUint16(hdr[10:12], entryCount16)
	binary.LittleEndian.PutUint32(hdr[12:16], cdSize32)
	binary.LittleEndian.PutUint32(hdr[16:20], cdOffset32)
	binary.LittleEndian.PutUint16(hdr[20:22], uint16(len(comment)))

	out = append(out, hdr[:]...)
	out = append(out, []byte(comment)...)
	return out
}

func appendZip64EOCD(out []byte, count, cdSize, cdOffset uint64) []byte {
	var hdr [zip64EOCDSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], zip64EOCDSignature)
	binary.LittleEndian.PutUint64(hdr[4:12], zip64EOCDSize-12)
	binary.LittleEndian.PutUint16(hdr[12:14], (versionUnix<<8)|versionNeeded)
	binary.LittleEndian.PutUint16(hdr[14:16], versionNeeded)
	binary.LittleEndian.PutUint32(hdr[16:20], 0) // this disk
	binary.LittleEndian.PutUint32(hdr[20:24], 0) // disk with CD
	binary.LittleEndian.PutUint64(hdr[24:32], count)
	binary.LittleEndian.PutUint64(hdr[32:40], count)
	binary.LittleEndian.PutUint64(hdr[40:48], cdSize)
	binary.LittleEndian.PutUint64(hdr[48:56], cdOffset)
	return append(out, hdr[:]...)
}

func appendZip64Locator(out []byte, zip64EOCDOffset uint64) []byte {
	var hdr [zip64LocatorSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], zip64LocatorSignature)
	binary.LittleEndian.PutUint32(hdr[4:8], 0) // disk with ZIP64 EOCD
	binary.LittleEndian.PutUint64(hdr[8:16], zip64EOCDOffset-zip64EOCDSize)
	binary.LittleEndian.PutUint32(hdr[16:20], 1) // total number of disks
	return append(out, hdr[:]...)
}
