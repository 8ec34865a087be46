package flate

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"sync"

	"github.com/chronos-tachyon/assert"
	"github.com/hashicorp/go-multierror"

	"github.com/chronos-tachyon/zipflate/internal/adler32"
	"github.com/chronos-tachyon/zipflate/internal/crc32"
	"github.com/chronos-tachyon/zipflate/internal/huffman"
	"github.com/chronos-tachyon/zipflate/internal/lz77"
)

// Encoder compresses a complete byte sequence into a single zlib, gzip, or
// raw DEFLATE stream. Unlike the io.Writer-based streaming writer this
// package used to expose, an Encoder never suspends mid-stream: Write only
// buffers, and the match-finder, block splitter, and framing all run once,
// synchronously, inside Close.
type Encoder struct {
	mu sync.Mutex

	format   Format
	method   Method
	strategy Strategy
	clevel   CompressLevel
	mlevel   MemoryLevel
	wbits    WindowBits
	dict     []byte
	tracers  []Tracer
	header   Header

	cfg compressConfig

	pending []byte
	out     []byte
	err     error
	state   writerState

	obBlock block
	obLen   byte

	inputBytesAdler32 adler32.Hash
	inputBytesCRC32   crc32.Hash
	outputBytesCRC32  crc32.Hash
	inputBytesTotal   uint64
	inputBytesStream  uint64
	outputBytesTotal  uint64
	outputBytesStream uint64
	numStreams        uint
}

// NewEncoder constructs a new Encoder with the given options.
func NewEncoder(opts ...Option) *Encoder {
	var o options
	o.reset()
	o.apply(opts)
	o.populateWriterDefaults()

	e := &Encoder{
		format:   o.format,
		method:   o.method,
		strategy: o.strategy,
		clevel:   o.clevel,
		mlevel:   o.mlevel,
		wbits:    o.wbits,
		dict:     o.dict,
		tracers:  o.tracers,
	}
	e.cfg = e.compressConfig()
	return e
}

func (e *Encoder) compressConfig() compressConfig {
	switch {
	case e.clevel == 0:
		return compressConfigs[2]
	case e.strategy == HuffmanOnlyStrategy:
		return compressConfigs[1]
	case e.strategy == HuffmanRLEStrategy:
		return compressConfigs[0]
	case e.clevel > 0:
		return compressConfigs[2+e.clevel]
	default:
		return compressConfigs[2+6]
	}
}

// SetHeader sets a custom gzip header when writing in GZIPFormat.
func (e *Encoder) SetHeader(header Header) error {
	var errlist []error

	errlist = checkHeaderFileName(header, errlist)
	errlist = checkHeaderComment(header, errlist)
	errlist = checkHeaderLastModified(header, errlist)
	errlist = checkHeaderOSType(header, errlist)
	errlist = checkHeaderExtraData(header, errlist)

	if len(errlist) == 0 {
		e.mu.Lock()
		e.header = header
		e.mu.Unlock()
		return nil
	}

	if len(errlist) == 1 {
		return errlist[0]
	}

	return &multierror.Error{Errors: errlist}
}

func checkHeaderFileName(header Header, errlist []error) []error {
	if len(header.FileName) >= 256 {
		errlist = append(errlist, errors.New("Header.FileName is longer than 256 bytes"))
	}
	if index := strings.IndexByte(header.FileName, 0x00); index >= 0 {
		errlist = append(errlist, errors.New("Header.FileName contains embedded NUL byte"))
	}
	if index := strings.IndexByte(header.FileName, 0x2f); index >= 0 {
		errlist = append(errlist, errors.New("Header.FileName contains embedded '/' byte"))
	}
	if index := strings.IndexByte(header.FileName, 0x5c); index >= 0 {
		errlist = append(errlist, errors.New("Header.FileName contains embedded '\\' byte"))
	}
	return errlist
}

func checkHeaderComment(header Header, errlist []error) []error {
	if len(header.Comment) >= 256 {
		errlist = append(errlist, errors.New("Header.Comment is longer than 256 bytes"))
	}
	if index := strings.IndexByte(header.Comment, 0x00); index >= 0 {
		errlist = append(errlist, errors.New("Header.Comment contains embedded NUL byte"))
	}
	return errlist
}

func checkHeaderLastModified(header Header, errlist []error) []error {
	if !header.LastModified.IsZero() {
		s64 := header.LastModified.Unix()
		if s64 < 0 || (s64 >= 0 && uint64(s64) >= uint64(math.MaxUint32)) {
			errlist = append(errlist, errors.New("Header.LastModified is out of range for unsigned 32-bit time_t"))
		}
	}
	return errlist
}

func checkHeaderOSType(header Header, errlist []error) []error {
	if !header.OSType.IsValid() {
		errlist = append(errlist, errors.New("Header.OSType is not valid"))
	}
	return errlist
}

func checkHeaderExtraData(header Header, errlist []error) []error {
	for index, rec := range header.ExtraData.Records {
		if recLen := 4 + uint(len(rec.Bytes)); recLen > uint(math.MaxUint16) {
			errlist = append(errlist, fmt.Errorf("Header.ExtraData.Records[%d] encodes to %d bytes, which is beyond uint16_t", index, recLen))
		}
	}
	if xdata := header.ExtraData.AsBytes(); uint(len(xdata)) > uint(math.MaxUint16) {
		errlist = append(errlist, fmt.Errorf("Header.ExtraData encodes to %d bytes, which is beyond uint16_t", uint(len(xdata))))
	}
	return errlist
}

// Write buffers p for compression. The actual match-finding and framing work
// happens once, inside Close; Write never blocks and never fails except
// after the Encoder is closed or has recorded an error.
func (e *Encoder) Write(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case closedStreamWriterState, closedWriterState:
		return 0, fs.ErrClosed
	case errorWriterState:
		return 0, e.err
	}

	e.state = openStreamWriterState
	e.pending = append(e.pending, p...)
	return len(p), nil
}

// Close compresses every byte buffered by prior calls to Write as a single
// complete stream and returns the result. The Encoder must not be reused
// afterward.
func (e *Encoder) Close() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == closedWriterState {
		return nil, fs.ErrClosed
	}
	if e.state == errorWriterState {
		return nil, e.err
	}

	data := e.pending
	e.pending = nil
	e.state = closingStreamWriterState

	if !e.writeHeader(data) || !e.encodeBody(data) || !e.writeFooter() {
		e.state = errorWriterState
		return nil, e.err
	}

	e.state = closedWriterState
	return e.out, nil
}

func (e *Encoder) encodeBody(data []byte) bool {
	e.inputBytesAdler32.Write(data)
	e.inputBytesCRC32.Write(data)
	e.inputBytesTotal += uint64(len(data))
	e.inputBytesStream += uint64(len(data))

	if e.clevel == 0 {
		return e.compressStoreAll(data)
	}
	return e.compressTokenizedAll(data)
}

// compressStoreAll implements the level-0 "store" path: split the input into
// chunks no larger than a uint16_t can hold and wrap each in a stored block.
func (e *Encoder) compressStoreAll(data []byte) bool {
	const storedBlockSize = math.MaxUint16

	if len(data) == 0 {
		return writeStoredBlock(e, nil, true)
	}

	for len(data) > 0 {
		n := len(data)
		if n > storedBlockSize {
			n = storedBlockSize
		}
		isFinal := n == len(data)
		if !writeStoredBlock(e, data[:n], isFinal) {
			return false
		}
		data = data[n:]
	}
	return true
}

func (e *Encoder) compressTokenizedAll(data []byte) bool {
	events := e.tokenizeBody(data)
	return e.emitBlocks(data, events)
}

// tokenizeBody dispatches to the match finder appropriate for the Encoder's
// Strategy: HuffmanOnlyStrategy never matches, HuffmanRLEStrategy only
// matches against the immediately preceding byte (distance 1), and every
// other strategy uses the hash-chain LZ77 finder tuned by compressConfigs.
func (e *Encoder) tokenizeBody(data []byte) []lz77.Event {
	switch e.strategy {
	case HuffmanOnlyStrategy:
		events := make([]lz77.Event, len(data))
		for i, ch := range data {
			events[i] = lz77.Event{Literal: ch}
		}
		return events

	case HuffmanRLEStrategy:
		return tokenizeRLE(data)

	default:
		cfg := lz77.Config{
			MemLevel: byte(e.mlevel) + 11, // 12 .. 20 ⇒ [4096 entries .. 1 mebientries]
			Good:     e.cfg.good,
			Lazy:     e.cfg.lazy,
			Nice:     e.cfg.nice,
			Chain:    e.cfg.chain,
		}
		return lz77.Tokenize(data, cfg)
	}
}

// tokenizeRLE emits one literal byte at the start of each run, then chops
// the remainder of the run into distance-1 matches no longer than
// lz77.MaxMatch.
func tokenizeRLE(data []byte) []lz77.Event {
	n := len(data)
	events := make([]lz77.Event, 0, n)

	i := 0
	for i < n {
		j := i + 1
		for j < n && data[j] == data[i] {
			j++
		}
		runLen := j - i

		events = append(events, lz77.Event{Literal: data[i]})
		i++
		remaining := runLen - 1

		for remaining >= lz77.MinMatch {
			length := remaining
			if length > lz77.MaxMatch {
				length = lz77.MaxMatch
			}
			events = append(events, lz77.Event{IsMatch: true, Length: uint16(length), Distance: 1})
			i += length
			remaining -= length
		}

		for remaining > 0 {
			events = append(events, lz77.Event{Literal: data[i]})
			i++
			remaining--
		}
	}

	return events
}

// emitBlocks splits a tokenized stream into DEFLATE blocks, accumulating
// symbols until either 7000 matches or 24576 total tokens have been
// produced, mirroring the block emission policy of the reference
// implementation this package's algorithms are grounded on.
func (e *Encoder) emitBlocks(data []byte, events []lz77.Event) bool {
	const maxMatches = 7000
	const maxTokens = 24576

	bb := takeBytesBuffer()
	defer giveBytesBuffer(bb)

	tokens := takeTokens()
	defer giveTokens(tokens)

	pos := 0
	numMatches := 0

	flush := func(isFinal bool) bool {
		*tokens = append(*tokens, makeStopToken())
		var ok bool
		if e.strategy == FixedStrategy {
			ok = writeStaticBlock(e, *tokens, isFinal)
		} else {
			ok = compressTokens(e, bb.Bytes(), *tokens, isFinal)
		}
		bb.Reset()
		*tokens = (*tokens)[:0]
		numMatches = 0
		return ok
	}

	if len(events) == 0 {
		return flush(true)
	}

	for idx, ev := range events {
		if ev.IsMatch {
			length := int(ev.Length)
			bb.Write(data[pos : pos+length])
			*tokens = append(*tokens, makeCopyToken(ev.Length, ev.Distance))
			pos += length
			numMatches++
		} else {
			bb.WriteByte(ev.Literal)
			*tokens = append(*tokens, makeLiteralToken(ev.Literal))
			pos++
		}

		last := idx == len(events)-1
		if numMatches >= maxMatches || uint(len(*tokens)) >= maxTokens || last {
			if !flush(last) {
				return false
			}
		}
	}
	return true
}

func (e *Encoder) writeHeader(data []byte) bool {
	e.inputBytesStream = 0
	e.outputBytesStream = 0
	e.numStreams++

	e.sendEvent(Event{
		Type: StreamBeginEvent,
	})

	if e.header.DataType == UnknownData {
		e.header.DataType = BinaryData
		peek := data
		if len(peek) > 4096 {
			peek = peek[:4096]
		}
		if isText(peek) {
			e.header.DataType = TextData
		}
	}

	if e.header.OSType == OSTypeUnknown {
		e.header.OSType = OSTypeUnix
	}

	e.header.WindowBits = e.wbits
	e.header.CompressLevel = e.clevel

	var ok bool
	switch e.format {
	case RawFormat:
		ok = true
	case ZlibFormat:
		ok = e.writeHeaderZlib()
	case GZIPFormat:
		ok = e.writeHeaderGZIP()
	default:
		assert.Raisef("Format %#v not implemented", e.format)
	}

	if !ok {
		return false
	}

	h := new(Header)
	*h = e.header
	e.sendEvent(Event{
		Type:   StreamHeaderEvent,
		Header: h,
	})

	e.inputBytesAdler32.Reset()
	e.inputBytesCRC32.Reset()
	return true
}

func (e *Encoder) writeFooter() bool {
	if !e.outputBitsFlush() {
		return false
	}

	a32 := e.inputBytesAdler32.Sum32()
	c32 := e.inputBytesCRC32.Sum32()

	e.sendEvent(Event{
		Type: StreamEndEvent,
		Footer: &FooterEvent{
			Adler32: Checksum32(a32),
			CRC32:   Checksum32(c32),
		},
	})

	var ok bool
	switch e.format {
	case RawFormat:
		ok = true
	case ZlibFormat:
		ok = e.writeFooterZlib(a32)
	case GZIPFormat:
		ok = e.writeFooterGZIP(c32)
	default:
		assert.Raisef("Format %#v not implemented", e.format)
	}

	if !ok {
		return false
	}

	e.sendEvent(Event{
		Type: StreamCloseEvent,
	})

	return true
}

func (e *Encoder) writeHeaderZlib() bool {
	var storage [6]byte
	var n uint = 2

	var fLevel byte
	if e.strategy == HuffmanOnlyStrategy || e.strategy == HuffmanRLEStrategy || e.clevel < 2 {
		fLevel = 0x00
	} else if e.clevel < 6 {
		fLevel = 0x01
	} else if e.clevel == 6 {
		fLevel = 0x02
	} else {
		fLevel = 0x03
	}

	storage[0] = ((byte(e.wbits-8) << 4) | 0x08)
	storage[1] = (fLevel << 6)

	if e.dict != nil {
		binary.BigEndian.PutUint32(storage[2:6], adler32.Checksum(e.dict))
		storage[1] |= 0x20
		n = 6
	}

	u16 := binary.BigEndian.Uint16(storage[0:2])
	remainder := (u16 % 31)
	if remainder == 0 {
		remainder = 31
	}
	storage[1] |= byte(31 - remainder)

	return e.outputBufferWrite(storage[0:n])
}

func (e *Encoder) writeFooterZlib(a32 uint32) bool {
	var storage [4]byte
	binary.BigEndian.PutUint32(storage[0:4], a32)
	return e.outputBufferWrite(storage[0:4])
}

func (e *Encoder) writeHeaderGZIP() bool {
	e.outputBytesCRC32.Reset()

	var header [10]byte

	header[0] = 0x1f // ID1
	header[1] = 0x8b // ID2
	header[2] = 0x08 // CM  (0x08 = DEFLATE)
	header[3] = 0x02 // FLG (0x02 = FHCRC)
	header[4] = 0x00 // MTIME[0]
	header[5] = 0x00 // MTIME[1]
	header[6] = 0x00 // MTIME[2]
	header[7] = 0x00 // MTIME[3]
	header[8] = 0x00 // XFL (0x00 = other)
	header[9] = 0xff // OS  (0xff = unknown)

	bits0 := writeHeaderGZIPDataType(e.header)
	bits1, func1 := writeHeaderGZIPExtraData(e.header)
	bits2, func2 := writeHeaderGZIPFileName(e.header)
	bits3, func3 := writeHeaderGZIPComment(e.header)

	header[3] |= (bits0 | bits1 | bits2 | bits3)

	if !e.header.LastModified.IsZero() {
		s64 := e.header.LastModified.Unix()
		u32 := uint32(uint64(s64))
		binary.LittleEndian.PutUint32(header[4:8], u32)
	}

	if e.strategy == HuffmanOnlyStrategy || e.strategy == HuffmanRLEStrategy || e.clevel < 2 {
		header[8] = 0x04
	} else if e.clevel == BestCompression {
		header[8] = 0x02
	}

	if osByte, found := gzipOSTypeEncodeTable[e.header.OSType]; found {
		header[9] = osByte
	}

	ok := true
	ok = ok && e.outputBufferWrite(header[:])
	ok = ok && func1(e)
	ok = ok && func2(e)
	ok = ok && func3(e)

	c32 := e.outputBytesCRC32.Sum32()

	ok = ok && e.outputBufferWriteU16(binary.LittleEndian, uint16(c32))
	return ok
}

func writeHeaderGZIPDataType(header Header) byte {
	if header.DataType != TextData {
		return 0x00
	}
	// 0x01 = FTEXT
	return 0x01
}

func writeHeaderGZIPExtraData(header Header) (byte, func(*Encoder) bool) {
	if len(header.ExtraData.Records) == 0 {
		return 0x00, func(*Encoder) bool { return true }
	}

	// 0x04 = FEXTRA
	return 0x04, func(e *Encoder) bool {
		xdata := e.header.ExtraData.AsBytes()
		xlen := uint16(len(xdata))
		ok := e.outputBufferWriteU16(binary.LittleEndian, xlen)
		ok = ok && e.outputBufferWrite(xdata)
		return ok
	}
}

func writeHeaderGZIPFileName(header Header) (byte, func(*Encoder) bool) {
	if header.FileName == "" {
		return 0x00, func(*Encoder) bool { return true }
	}

	// 0x08 = FNAME
	return 0x08, func(e *Encoder) bool {
		return e.outputBufferWriteStringZ(header.FileName)
	}
}

func writeHeaderGZIPComment(header Header) (byte, func(*Encoder) bool) {
	if header.Comment == "" {
		return 0x00, func(*Encoder) bool { return true }
	}

	// 0x10 = FCOMMENT
	return 0x10, func(e *Encoder) bool {
		return e.outputBufferWriteStringZ(header.Comment)
	}
}

func (e *Encoder) writeFooterGZIP(c32 uint32) bool {
	ok1 := e.outputBufferWriteU32(binary.LittleEndian, c32)
	ok2 := e.outputBufferWriteU32(binary.LittleEndian, uint32(e.inputBytesStream))
	return ok1 && ok2
}

func (e *Encoder) outputBufferWrite(buf []byte) bool {
	if !e.outputBitsFlush() {
		return false
	}

	e.out = append(e.out, buf...)
	e.outputBytesCRC32.Write(buf)
	e.outputBytesTotal += uint64(len(buf))
	e.outputBytesStream += uint64(len(buf))
	return true
}

func (e *Encoder) outputBufferWriteU16(bo binary.ByteOrder, u16 uint16) bool {
	var tmp [2]byte
	bo.PutUint16(tmp[:], u16)
	return e.outputBufferWrite(tmp[:])
}

func (e *Encoder) outputBufferWriteU32(bo binary.ByteOrder, u32 uint32) bool {
	var tmp [4]byte
	bo.PutUint32(tmp[:], u32)
	return e.outputBufferWrite(tmp[:])
}

func (e *Encoder) outputBufferWriteStringZ(str string) bool {
	strLen := len(str)
	last := strLen - 1
	index := strings.IndexByte(str, 0)
	var tmp []byte
	if index < 0 {
		tmp = make([]byte, strLen+1)
		copy(tmp, str)
		tmp[strLen] = 0
	} else if index == last {
		tmp = make([]byte, strLen)
		copy(tmp, str)
		tmp[last] = 0
	} else {
		assert.Raisef("string %q contains embedded ASCII NUL byte", str)
	}
	return e.outputBufferWrite(tmp)
}

func (e *Encoder) outputBitsWrite(inLen byte, inBlock block) bool {
	assert.Assertf(e.obLen <= bitsPerBlock, "obLen %d > bitsPerBlock %d", e.obLen, bitsPerBlock)
	assert.Assertf(inLen <= bitsPerBlock, "inLen %d > bitsPerBlock %d", inLen, bitsPerBlock)

	for inLen != 0 {
		shiftA := e.obLen
		shiftB := byte(bitsPerBlock - shiftA)
		if shiftB > inLen {
			shiftB = inLen
		}
		maskB := makeMask(shiftB)
		e.obBlock = e.obBlock | ((inBlock & maskB) << shiftA)
		inBlock = (inBlock >> shiftB)
		e.obLen += shiftB
		inLen -= shiftB

		if e.obLen == bitsPerBlock {
			if !e.outputBitsFlush() {
				return false
			}
		}
	}
	return true
}

func (e *Encoder) outputBitsWriteHC(hc huffman.Code) bool {
	return e.outputBitsWrite(hc.Size, block(hc.Bits))
}

func (e *Encoder) outputBitsFlush() bool {
	if e.obLen == 0 {
		return true
	}

	var tmp [bytesPerBlock]byte
	n := ((e.obLen + 7) / 8)
	bytesFromBlock(binary.LittleEndian, tmp[:], e.obBlock)
	e.obLen = 0
	e.obBlock = 0
	return e.outputBufferWrite(tmp[:n])
}

func (e *Encoder) sendEvent(event Event) {
	event.InputBytesTotal = e.inputBytesTotal
	event.InputBytesStream = e.inputBytesStream
	event.OutputBytesTotal = e.outputBytesTotal
	event.OutputBytesStream = e.outputBytesStream
	event.NumStreams = e.numStreams
	event.Format = e.format
	for _, tr := range e.tracers {
		tr.OnEvent(event)
	}
}

var _ bitwriter = (*Encoder)(nil)
