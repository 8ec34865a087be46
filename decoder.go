package flate

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/chronos-tachyon/assert"

	"github.com/chronos-tachyon/zipflate/internal/adler32"
	"github.com/chronos-tachyon/zipflate/internal/crc32"
	"github.com/chronos-tachyon/zipflate/internal/huffman"
)

// Decoder decompresses a complete raw DEFLATE, zlib, or gzip byte slice in a
// single synchronous pass.  Unlike the classic io.Reader-shaped decompressor,
// there is no progressive decode: Decode consumes all of its input and
// produces all of its output before returning.
type Decoder struct {
	format  Format
	mlevel  MemoryLevel
	wbits   WindowBits
	dict    []byte
	tracers []Tracer

	in    []byte
	inPos uint

	ibBlock block
	ibLen   byte

	out []byte

	header       Header
	actualFormat Format

	hLL *huffman.Decoder
	hD  *huffman.Decoder

	hd0 huffman.Decoder
	hd1 huffman.Decoder
	hd2 huffman.Decoder

	inputBytesHeaderCRC32 crc32.Hash
	outputBytesAdler32    adler32.Hash
	outputBytesCRC32      crc32.Hash

	inputBytesTotal   uint64
	inputBytesStream  uint64
	outputBytesTotal  uint64
	outputBytesStream uint64
	numStreams        uint

	err    error
	closed bool
}

// NewDecoder allocates and returns a new Decoder.
func NewDecoder(opts ...Option) *Decoder {
	var o options
	o.reset()
	o.apply(opts)
	o.populateReaderDefaults()

	return &Decoder{
		format:  o.format,
		mlevel:  o.mlevel,
		wbits:   o.wbits,
		dict:    o.dict,
		tracers: o.tracers,
	}
}

// Format returns the configured Format.
func (d *Decoder) Format() Format {
	return d.format
}

// MemoryLevel returns the configured MemoryLevel.
func (d *Decoder) MemoryLevel() MemoryLevel {
	return d.mlevel
}

// WindowBits returns the configured maximum WindowBits.
func (d *Decoder) WindowBits() WindowBits {
	return d.wbits
}

// Dict returns the configured pre-shared LZ77 dictionary, or nil.
func (d *Decoder) Dict() []byte {
	if d.dict == nil {
		return nil
	}
	tmp := make([]byte, len(d.dict))
	copy(tmp, d.dict)
	return tmp
}

// Tracers returns the configured list of Tracers.
func (d *Decoder) Tracers() []Tracer {
	if d.tracers == nil {
		return nil
	}
	tmp := make([]Tracer, len(d.tracers))
	copy(tmp, d.tracers)
	return tmp
}

// Decode decompresses data, which must hold one or more back-to-back
// compressed streams, and returns the fully decompressed result.
func (d *Decoder) Decode(data []byte) ([]byte, error) {
	d.in = data
	d.inPos = 0
	d.ibBlock = 0
	d.ibLen = 0
	d.out = make([]byte, 0, len(data)*3+64)
	d.err = nil
	d.closed = false
	d.numStreams = 0
	d.inputBytesTotal = 0
	d.outputBytesTotal = 0

	for !d.atInputEnd() {
		if !d.readHeader() {
			break
		}

		for d.readFlateBlock() {
		}

		if !d.readFooter() {
			break
		}
	}

	if d.err != nil {
		return nil, d.err
	}
	return d.out, nil
}

func (d *Decoder) atInputEnd() bool {
	return d.ibLen == 0 && d.inPos >= uint(len(d.in))
}

func (d *Decoder) readHeader() bool {
	if d.closed {
		return false
	}

	d.inputBytesStream = 0
	d.outputBytesStream = 0
	d.numStreams++

	d.actualFormat = DefaultFormat
	d.outputBytesAdler32.Reset()
	d.outputBytesCRC32.Reset()

	d.sendEvent(Event{
		Type: StreamBeginEvent,
	})

	d.header = Header{}

	var ok bool
	switch d.format {
	case DefaultFormat:
		ok = d.readHeaderAuto()
	case RawFormat:
		ok = d.readHeaderRaw()
	case ZlibFormat:
		ok = d.readHeaderZlib()
	case GZIPFormat:
		ok = d.readHeaderGZIP()
	default:
		assert.Raisef("Format %#v not implemented", d.format)
	}

	if !ok {
		return false
	}

	h := new(Header)
	*h = d.header
	d.sendEvent(Event{
		Type:   StreamHeaderEvent,
		Header: h,
	})

	return true
}

func (d *Decoder) readFooter() bool {
	if d.closed {
		return false
	}

	d.inputBitsDiscard()

	a32 := d.outputBytesAdler32.Sum32()
	c32 := d.outputBytesCRC32.Sum32()

	d.sendEvent(Event{
		Type: StreamEndEvent,
		Footer: &FooterEvent{
			Adler32: Checksum32(a32),
			CRC32:   Checksum32(c32),
		},
	})

	var ok bool
	switch d.actualFormat {
	case RawFormat:
		ok = d.readFooterRaw()
	case ZlibFormat:
		ok = d.readFooterZlib(a32)
	case GZIPFormat:
		ok = d.readFooterGZIP(c32)
	default:
		assert.Raisef("Format %#v not implemented", d.format)
	}

	if !ok {
		return false
	}

	d.sendEvent(Event{
		Type: StreamCloseEvent,
	})

	return true
}

func (d *Decoder) readHeaderAuto() bool {
	if uint(len(d.in))-d.inPos < 2 {
		return d.readHeaderRaw()
	}

	p := d.in[d.inPos : d.inPos+2]
	if p[0] == 0x1f && p[1] == 0x8b {
		return d.readHeaderGZIP()
	}

	u16 := binary.BigEndian.Uint16(p)
	if (p[0]&0x0f) == 0x08 && (u16%31) == 0 {
		return d.readHeaderZlib()
	}

	return d.readHeaderRaw()
}

func (d *Decoder) readHeaderRaw() bool {
	d.actualFormat = RawFormat
	d.header.CompressLevel = DefaultCompression
	return true
}

func (d *Decoder) readFooterRaw() bool {
	return true
}

func (d *Decoder) readHeaderZlib() bool {
	p, ok := d.inputBufferRead(2)
	if !ok {
		d.propagateEOF()
		return false
	}

	u16 := binary.BigEndian.Uint16(p)
	if mod := u16 % 31; mod != 0 {
		d.corruptf(InvalidHeader, "invalid zlib header checksum -- expected %#04x mod 31 == 0, got %d", u16, mod)
		return false
	}

	method := p[0] & 0x0f
	if method != 0x08 {
		d.corruptf(InvalidHeader, "invalid zlib compression method -- expected 0x8 (DEFLATE), got %#x", method)
		return false
	}

	d.header.WindowBits = 8 + WindowBits(p[0]>>4)
	if d.header.WindowBits > d.wbits {
		d.corruptf(InvalidHeader, "zlib window size is too big -- data uses 2**%d, but this Decoder is limited to 2**%d", d.header.WindowBits, d.wbits)
		return false
	}

	d.header.CompressLevel = [4]CompressLevel{1, 2, DefaultCompression, 9}[p[1]>>6]

	bitFDICT := (p[1] & 0x20) != 0

	if bitFDICT {
		expectedAdler32, ok := d.inputBufferReadU32(binary.BigEndian)
		if !ok {
			d.propagateEOF()
			return false
		}

		if len(d.dict) == 0 {
			d.corruptf(InvalidHeader, "zlib stream was compressed with a pre-set dictionary -- Adler-32 checksum of the dictionary required to decompress this stream is %#08x", expectedAdler32)
			return false
		}

		computedAdler32 := adler32.Checksum(d.dict)
		if expectedAdler32 != computedAdler32 {
			d.corruptf(InvalidHeader, "zlib stream was compressed with a different pre-set dictionary -- Adler-32 checksum of the required dictionary is %#08x, checksum of the provided dictionary is %#08x", expectedAdler32, computedAdler32)
			return false
		}
	} else if len(d.dict) != 0 {
		computedAdler32 := adler32.Checksum(d.dict)
		d.corruptf(InvalidHeader, "zlib stream was not compressed with a pre-set dictionary -- Adler-32 checksum of the supplied dictionary is %#08x", computedAdler32)
		return false
	}

	d.actualFormat = ZlibFormat
	return true
}

func (d *Decoder) readFooterZlib(computedAdler32 uint32) bool {
	expectedAdler32, ok := d.inputBufferReadU32(binary.BigEndian)
	if !ok {
		d.propagateEOF()
		return false
	}

	if expectedAdler32 != computedAdler32 {
		d.corruptf(InvalidHeader, "invalid zlib Adler-32 checksum -- footer value %#08x, computed value %#08x", expectedAdler32, computedAdler32)
		return false
	}

	return true
}

func (d *Decoder) readHeaderGZIP() bool {
	d.inputBytesHeaderCRC32.Reset()

	p, ok := d.inputBufferRead(10)
	if !ok {
		d.propagateEOF()
		return false
	}

	if p[0] != 0x1f || p[1] != 0x8b {
		d.corruptf(InvalidHeader, "invalid gzip header identification bytes")
		return false
	}

	if p[2] != 0x08 {
		d.corruptf(InvalidHeader, "invalid gzip compression method %#02x -- expected 0x08 (DEFLATE)", p[2])
		return false
	}

	mtime := binary.LittleEndian.Uint32(p[4:8])
	if mtime != 0 {
		d.header.LastModified = time.Unix(int64(mtime), 0)
	}

	d.header.CompressLevel = DefaultCompression
	switch p[8] {
	case 0x02:
		d.header.CompressLevel = 9
	case 0x04:
		d.header.CompressLevel = 1
	}

	d.header.OSType = gzipOSTypeDecodeTable[p[9]]

	bitFTEXT := (p[3] & 0x01) != 0
	bitFHCRC := (p[3] & 0x02) != 0
	bitFEXTRA := (p[3] & 0x04) != 0
	bitFNAME := (p[3] & 0x08) != 0
	bitFCOMMENT := (p[3] & 0x10) != 0
	if (p[3] & 0xe0) != 0 {
		d.corruptf(InvalidHeader, "invalid gzip flag bits %#02x", p[3]&0xe0)
		return false
	}

	d.header.DataType = d.readHeaderGZIPDataType(bitFTEXT)

	ok = d.readHeaderGZIPExtraData(bitFEXTRA, &d.header)
	ok = ok && d.readHeaderGZIPFileName(bitFNAME, &d.header)
	ok = ok && d.readHeaderGZIPComment(bitFCOMMENT, &d.header)
	if !ok {
		return false
	}

	c32 := d.inputBytesHeaderCRC32.Sum32()

	if !d.readHeaderGZIPCRC16(bitFHCRC, c32) {
		return false
	}

	d.actualFormat = GZIPFormat
	return true
}

func (d *Decoder) readHeaderGZIPDataType(bit bool) DataType {
	dataType := BinaryData
	if bit {
		dataType = TextData
	}
	return dataType
}

func (d *Decoder) readHeaderGZIPExtraData(bit bool, header *Header) bool {
	if bit {
		rawXLen, ok := d.inputBufferReadU16(binary.LittleEndian)
		if !ok {
			d.propagateEOF()
			return false
		}

		rawXData, ok := d.inputBufferRead(uint(rawXLen))
		if !ok {
			d.propagateEOF()
			return false
		}

		header.ExtraData.Parse(rawXData)
	}
	return true
}

func (d *Decoder) readHeaderGZIPFileName(bit bool, header *Header) bool {
	if bit {
		str, ok := d.inputBufferReadStringZ()
		if !ok {
			d.propagateEOF()
			return false
		}

		header.FileName = str
	}
	return true
}

func (d *Decoder) readHeaderGZIPComment(bit bool, header *Header) bool {
	if bit {
		str, ok := d.inputBufferReadStringZ()
		if !ok {
			d.propagateEOF()
			return false
		}

		header.Comment = str
	}
	return true
}

func (d *Decoder) readHeaderGZIPCRC16(bit bool, c32 uint32) bool {
	if bit {
		expectedHeaderCRC16, ok := d.inputBufferReadU16(binary.LittleEndian)
		if !ok {
			d.propagateEOF()
			return false
		}

		computedHeaderCRC16 := uint16(c32)
		if computedHeaderCRC16 != expectedHeaderCRC16 {
			d.corruptf(InvalidHeader, "invalid gzip header CRC-16 checksum -- header value %#04x, computed value %#04x", expectedHeaderCRC16, computedHeaderCRC16)
			return false
		}
	}
	return true
}

func (d *Decoder) readFooterGZIP(computedCRC32 uint32) bool {
	expectedCRC32, ok := d.inputBufferReadU32(binary.LittleEndian)
	if !ok {
		d.propagateEOF()
		return false
	}

	contentLen, ok := d.inputBufferReadU32(binary.LittleEndian)
	if !ok {
		d.propagateEOF()
		return false
	}

	if expectedCRC32 != computedCRC32 {
		d.corruptf(InvalidHeader, "invalid gzip CRC-32 checksum -- footer value %#08x, computed value %#08x", expectedCRC32, computedCRC32)
		return false
	}

	if contentLen != uint32(d.outputBytesStream) {
		d.corruptf(InvalidHeader, "invalid gzip decompressed length (mod 2**32) -- footer value %d, computed value %d", contentLen, uint32(d.outputBytesStream))
		return false
	}

	return true
}

func (d *Decoder) readFlateBlock() (more bool) {
	if d.closed {
		return false
	}

	if ok := d.inputBitsFill(3); !ok {
		d.propagateEOF()
		return false
	}

	out := d.inputBitsRead(3)

	isOK := false
	isFinal := (out & 0x01) != 0
	blockType := BlockType(1+byte(out>>1)) & 0x03

	d.sendEvent(Event{
		Type: BlockBeginEvent,
		Block: &BlockEvent{
			Type:    blockType,
			IsFinal: isFinal,
		},
	})

	switch blockType {
	case StoredBlock:
		isOK = d.readFlateBlockStored()

	case StaticBlock:
		isOK = d.readFlateBlockStaticHuffman(isFinal)

	case DynamicBlock:
		isOK = d.readFlateBlockDynamicHuffman(isFinal)

	default:
		d.corruptf(InvalidBlockType, "BTYPE 11 is reserved")
	}

	if isOK {
		d.sendEvent(Event{
			Type: BlockEndEvent,
			Block: &BlockEvent{
				Type:    blockType,
				IsFinal: isFinal,
			},
		})
	}

	return isOK && !isFinal
}

func (d *Decoder) readFlateBlockStored() bool {
	len0, ok := d.inputBufferReadU16(binary.LittleEndian)
	if !ok {
		d.propagateEOF()
		return false
	}

	len1, ok := d.inputBufferReadU16(binary.LittleEndian)
	if !ok {
		d.propagateEOF()
		return false
	}

	if len1 != ^len0 {
		d.corruptf(InvalidHeader, "got LEN %#04x NLEN %#04x, expected NLEN %#04x", len0, len1, ^len0)
		return false
	}

	p, ok := d.inputBufferRead(uint(len0))
	if !ok {
		d.propagateEOF()
		return false
	}

	d.outputBufferWrite(p)

	return true
}

func (d *Decoder) readFlateBlockStaticHuffman(isFinal bool) bool {
	d.hLL, d.hD = getFixedHuffDecoders()

	d.sendEvent(Event{
		Type: BlockTreesEvent,
		Block: &BlockEvent{
			Type:    StaticBlock,
			IsFinal: isFinal,
		},
		Trees: &TreesEvent{
			LiteralLengthSizes: d.hLL.SizeBySymbol(),
			DistanceSizes:      d.hD.SizeBySymbol(),
		},
	})

	return d.decodeHuffmanBlock(StaticBlock, isFinal)
}

func (d *Decoder) readFlateBlockDynamicHuffman(isFinal bool) bool {
	if !d.readDynamicTrees(isFinal) {
		return false
	}
	return d.decodeHuffmanBlock(DynamicBlock, isFinal)
}

func (d *Decoder) decodeHuffmanBlock(blockType BlockType, isFinal bool) bool {
	hLL := d.hLL
	hD := d.hD

Loop:
	for {
		symbol, ok := d.readSymbol(hLL)
		if !ok {
			d.corruptf(InvalidLengthLiteral, "degenerate literal/length Huffman code")
			return false
		}

		t, ok := d.decodeLL(symbol)
		if !ok {
			return false
		}
		if t.distance == 0 && t.literalOrLength < 256 {
			d.outputBufferWriteByte(byte(t.literalOrLength))
			continue Loop
		}
		if t.distance == 0 {
			break Loop
		}

		symbol, ok = d.readSymbol(hD)
		if !ok {
			d.corruptf(InvalidDistance, "degenerate distance Huffman code")
			return false
		}

		t, ok = d.decodeD(symbol, t.literalOrLength)
		if !ok {
			return false
		}

		length := uint(t.literalOrLength)
		distance := uint(t.distance)
		for length != 0 {
			ch, ok := d.lookupByte(distance)
			if !ok {
				d.corruptf(InvalidDistance, "distance %d exceeds available output and dictionary", distance)
				return false
			}
			d.outputBufferWriteByte(ch)
			length--
		}
	}

	return true
}

func (d *Decoder) decodeLL(symbol huffman.Symbol) (token, bool) {
	var length uint32
	var additionalBits byte
	switch {
	case symbol < 256:
		ch := byte(symbol)
		return makeLiteralToken(ch), true

	case symbol == 256:
		return makeStopToken(), true

	case symbol < 265:
		length = uint32(symbol - 254)
		additionalBits = 0

	case symbol < 269:
		length = uint32(2*symbol - 519)
		additionalBits = 1

	case symbol < 273:
		length = uint32(4*symbol - 1057)
		additionalBits = 2

	case symbol < 277:
		length = uint32(8*symbol - 2149)
		additionalBits = 3

	case symbol < 281:
		length = uint32(16*symbol - 4365)
		additionalBits = 4

	case symbol < 285:
		length = uint32(32*symbol - 8861)
		additionalBits = 5

	case symbol == 285:
		length = 258
		additionalBits = 0

	default:
		d.corruptf(InvalidLengthLiteral, "invalid literal/length symbol %d", symbol)
		return makeInvalidToken(), false
	}

	if additionalBits != 0 {
		if ok := d.inputBitsFill(additionalBits); !ok {
			d.propagateEOF()
			return makeInvalidToken(), false
		}

		out := d.inputBitsRead(additionalBits)
		length += uint32(out)
	}

	return makeCopyToken(uint16(length), 1), true
}

func (d *Decoder) decodeD(symbol huffman.Symbol, length uint16) (token, bool) {
	var distance uint32
	var additionalBits byte
	switch {
	case symbol < 4:
		distance = uint32(symbol + 1)
		additionalBits = 0

	case symbol < logicalNumDCodes:
		x0 := byte(symbol-2) >> 1
		x1 := uint32(1) << (x0 + 1)
		x2 := uint32(0)
		if (symbol & 0x01) != 0 {
			x2 = uint32(1) << x0
		}
		distance = x1 + x2 + 1
		additionalBits = x0

	default:
		d.corruptf(InvalidDistance, "invalid distance symbol %d", symbol)
		return makeInvalidToken(), false
	}

	if additionalBits != 0 {
		if ok := d.inputBitsFill(additionalBits); !ok {
			d.propagateEOF()
			return makeInvalidToken(), false
		}

		out := d.inputBitsRead(additionalBits)
		distance += uint32(out)
	}

	return makeCopyToken(length, uint16(distance)), true
}

func (d *Decoder) readDynamicTrees(isFinal bool) bool {
	// https://www.rfc-editor.org/rfc/rfc1951.html - Section 3.2.7

	if ok := d.inputBitsFill(14); !ok {
		d.propagateEOF()
		return false
	}

	out := d.inputBitsRead(14)
	numLL := 257 + uint(out&0x1f)
	numD := 1 + uint((out>>5)&0x1f)
	numX := 4 + uint((out>>10)&0x0f)

	if numLL > logicalNumLLCodes {
		d.corruptf(InvalidHeader, "HLIT %d > %d", numLL, logicalNumLLCodes)
		return false
	}
	if numD > logicalNumDCodes {
		d.corruptf(InvalidHeader, "HDIST %d > %d", numD, logicalNumDCodes)
		return false
	}

	const numCodes = 19
	sX := [numCodes]byte{}

	for i := uint(0); i < numX; i++ {
		if ok := d.inputBitsFill(3); !ok {
			d.propagateEOF()
			return false
		}

		out = d.inputBitsRead(3)
		sX[scramble[i]] = byte(out)
	}

	if err := d.hd0.Init(sX[:]); err != nil {
		d.corruptf(InvalidHeader, "failed to initialize bootstrap Huffman decoder: %v", err)
		return false
	}

	total := numLL + numD
	combinedLengths := make([]byte, total)
	i := uint(0)
	for i < total {
		sym, ok := d.readSymbol(&d.hd0)
		if !ok {
			d.corruptf(InvalidHeader, "degenerate bootstrap Huffman code")
			return false
		}

		i, ok = d.decodeX(sym, combinedLengths, i, total)
		if !ok {
			return false
		}
	}

	sLL := make([]byte, physicalNumLLCodes)
	copy(sLL, combinedLengths[:numLL])

	sD := make([]byte, physicalNumDCodes)
	copy(sD, combinedLengths[numLL:])

	if err := d.hd1.Init(sLL); err != nil {
		d.corruptf(InvalidHeader, "failed to initialize literal/length Huffman decoder: %v", err)
		return false
	}

	if err := d.hd2.Init(sD); err != nil {
		d.corruptf(InvalidHeader, "failed to initialize distance Huffman decoder: %v", err)
		return false
	}

	d.sendEvent(Event{
		Type: BlockTreesEvent,
		Block: &BlockEvent{
			Type:    DynamicBlock,
			IsFinal: isFinal,
		},
		Trees: &TreesEvent{
			CodeCount:          uint16(numX),
			LiteralLengthCount: uint16(numLL),
			DistanceCount:      uint16(numD),
			CodeSizes:          sX[:],
			LiteralLengthSizes: sLL,
			DistanceSizes:      sD,
		},
	})

	d.hLL = &d.hd1
	d.hD = &d.hd2
	return true
}

func (d *Decoder) decodeX(sym huffman.Symbol, combinedLengths []byte, i uint, total uint) (uint, bool) {
	switch {
	case sym < 16:
		// next output symbol has length of sym bits
		combinedLengths[i] = byte(sym)
		i++

	case sym == 16:
		// next 3 .. 6 output symbols have length equal to previous output symbol
		if i == 0 {
			d.corruptf(InvalidHeader, "attempt to repeat -1'st length")
			return i, false
		}

		if ok := d.inputBitsFill(2); !ok {
			d.propagateEOF()
			return i, false
		}

		out := d.inputBitsRead(2)
		count := 3 + uint(out)
		if count > (total - i) {
			d.corruptf(InvalidHeader, "attempt to repeat %d times but only %d codes remain", count, total-i)
			return i, false
		}

		lastLength := combinedLengths[i-1]
		for count != 0 {
			combinedLengths[i] = lastLength
			i++
			count--
		}

	case sym == 17:
		// next 3 .. 10 output symbols have length of 0 bits
		if ok := d.inputBitsFill(3); !ok {
			d.propagateEOF()
			return i, false
		}

		out := d.inputBitsRead(3)
		count := 3 + uint(out)
		if count > (total - i) {
			d.corruptf(InvalidHeader, "attempt to repeat %d times but only %d codes remain", count, total-i)
			return i, false
		}

		i += count

	case sym == 18:
		// next 11 .. 138 output symbols have length of 0 bits
		if ok := d.inputBitsFill(7); !ok {
			d.propagateEOF()
			return i, false
		}

		out := d.inputBitsRead(7)
		count := 11 + uint(out)
		if count > (total - i) {
			d.corruptf(InvalidHeader, "attempt to repeat %d times but only %d codes remain", count, total-i)
			return i, false
		}

		i += count
	}
	return i, true
}

func (d *Decoder) readSymbol(hdec *huffman.Decoder) (symbol huffman.Symbol, ok bool) {
	min := hdec.MinSize()
	max := hdec.MaxSize()
	numBits := min
	for numBits <= max {
		if ok := d.inputBitsFill(numBits); !ok {
			return huffman.InvalidSymbol, false
		}

		out := d.inputBitsPeek(numBits)
		hc := huffman.MakeCode(numBits, uint32(out))

		symbol, newMin, newMax := hdec.Decode(hc)
		if symbol >= 0 {
			d.inputBitsCommit(numBits)
			return symbol, true
		}
		if newMax == 0 {
			return symbol, false
		}
		numBits = newMin
	}
	return huffman.InvalidSymbol, false
}

// lookupByte resolves a back-reference distance against the bytes decoded so
// far, falling back to the pre-shared dictionary for distances that reach
// past the start of this stream's own output.
func (d *Decoder) lookupByte(distance uint) (byte, bool) {
	if distance == 0 {
		return 0, false
	}
	if distance <= uint(len(d.out)) {
		return d.out[uint(len(d.out))-distance], true
	}
	rem := distance - uint(len(d.out))
	if rem <= uint(len(d.dict)) {
		return d.dict[uint(len(d.dict))-rem], true
	}
	return 0, false
}

func (d *Decoder) inputBufferRead(n uint) ([]byte, bool) {
	d.inputBitsDiscard()

	if n == 0 {
		return nil, true
	}

	if d.inPos+n > uint(len(d.in)) {
		return nil, false
	}

	p := d.in[d.inPos : d.inPos+n]
	d.inPos += n
	d.inputBytesTotal += uint64(n)
	d.inputBytesStream += uint64(n)
	_, _ = d.inputBytesHeaderCRC32.Write(p)
	return p, true
}

func (d *Decoder) inputBufferReadU16(bo binary.ByteOrder) (u16 uint16, ok bool) {
	p, pOK := d.inputBufferRead(2)
	if pOK {
		u16 = bo.Uint16(p)
		ok = true
	}
	return
}

func (d *Decoder) inputBufferReadU32(bo binary.ByteOrder) (u32 uint32, ok bool) {
	p, pOK := d.inputBufferRead(4)
	if pOK {
		u32 = bo.Uint32(p)
		ok = true
	}
	return
}

func (d *Decoder) inputBufferReadStringZ() (str string, ok bool) {
	d.inputBitsDiscard()

	sb := takeStringsBuilder()
	defer giveStringsBuilder(sb)

	for {
		if d.inPos >= uint(len(d.in)) {
			return "", false
		}

		ch := d.in[d.inPos]
		d.inPos++
		d.inputBytesTotal++
		d.inputBytesStream++
		tmp := [1]byte{ch}
		_, _ = d.inputBytesHeaderCRC32.Write(tmp[:])

		if ch == 0 {
			return sb.String(), true
		}

		sb.WriteByte(ch)
	}
}

func (d *Decoder) inputBitsFill(atLeast byte) bool {
	limit := byte(bitsPerBlock - bitsPerByte)
	assert.Assertf(atLeast <= limit, "atLeast %d > limit %d", atLeast, limit)

	for d.ibLen < atLeast {
		if d.inPos >= uint(len(d.in)) {
			return false
		}

		ch := d.in[d.inPos]
		d.inPos++
		d.inputBytesTotal++
		d.inputBytesStream++
		tmp := [1]byte{ch}
		_, _ = d.inputBytesHeaderCRC32.Write(tmp[:])

		d.ibBlock |= block(ch) << d.ibLen
		d.ibLen += bitsPerByte
	}

	return true
}

func (d *Decoder) inputBitsRead(wantLen byte) block {
	out := d.inputBitsPeek(wantLen)
	d.inputBitsCommit(wantLen)
	return out
}

func (d *Decoder) inputBitsPeek(wantLen byte) block {
	assert.Assertf(wantLen <= d.ibLen, "wantLen %d > ibLen %d", wantLen, d.ibLen)
	return d.ibBlock & makeMask(wantLen)
}

func (d *Decoder) inputBitsCommit(wantLen byte) {
	assert.Assertf(wantLen <= d.ibLen, "wantLen %d > ibLen %d", wantLen, d.ibLen)
	d.ibBlock >>= wantLen
	d.ibLen -= wantLen
}

func (d *Decoder) inputBitsDiscard() {
	d.ibBlock = 0
	d.ibLen = 0
}

func (d *Decoder) outputBufferWrite(p []byte) {
	if len(p) == 0 {
		return
	}
	d.out = append(d.out, p...)
	d.outputBytesTotal += uint64(len(p))
	d.outputBytesStream += uint64(len(p))
	_, _ = d.outputBytesAdler32.Write(p)
	_, _ = d.outputBytesCRC32.Write(p)
}

func (d *Decoder) outputBufferWriteByte(ch byte) {
	d.out = append(d.out, ch)
	d.outputBytesTotal++
	d.outputBytesStream++
	tmp := [1]byte{ch}
	_, _ = d.outputBytesAdler32.Write(tmp[:])
	_, _ = d.outputBytesCRC32.Write(tmp[:])
}

// propagateEOF records an unexpected-end-of-input condition, unless some
// other error has already been recorded.
func (d *Decoder) propagateEOF() {
	if d.closed || d.err != nil {
		return
	}
	d.closed = true
	d.err = io.ErrUnexpectedEOF
}

func (d *Decoder) corruptf(kind ErrorCode, format string, v ...interface{}) {
	if d.closed {
		return
	}

	message := fmt.Sprintf(format, v...)
	d.closed = true
	d.err = CorruptInputError{
		Kind:         kind,
		OffsetTotal:  d.inputBytesTotal,
		OffsetStream: d.inputBytesStream,
		Problem:      message,
	}
}

func (d *Decoder) sendEvent(event Event) {
	event.InputBytesTotal = d.inputBytesTotal
	event.InputBytesStream = d.inputBytesStream
	event.OutputBytesTotal = d.outputBytesTotal
	event.OutputBytesStream = d.outputBytesStream
	event.NumStreams = d.numStreams
	event.Format = d.actualFormat
	for _, tr := range d.tracers {
		tr.OnEvent(event)
	}
}
