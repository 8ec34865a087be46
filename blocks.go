package flate

import (
	"encoding/binary"
	"math"

	"github.com/chronos-tachyon/assert"
	"github.com/chronos-tachyon/zipflate/internal/huffman"
)

// compressTokens picks the cheapest of the three DEFLATE block encodings —
// stored, fixed Huffman, dynamic Huffman — by counting bits with a
// bitcounter before committing to one, and writes that encoding to bw.
func compressTokens(bw bitwriter, data []byte, tokens []token, isFinal bool) bool {
	freqLL, freqD := studyFrequenciesLLD(tokens)

	var hLL huffman.Encoder
	hLL.Init(physicalNumLLCodes, freqLL)

	var hD huffman.Encoder
	hD.Init(physicalNumDCodes, freqD)

	var dynamicCounter bitcounter
	writeDynamicBlock(&dynamicCounter, &hLL, &hD, tokens, isFinal)

	var staticCounter bitcounter
	writeStaticBlock(&staticCounter, tokens, isFinal)

	storedLength := (uint64(len(data)) << 3) + 35
	if storedLength < dynamicCounter.length() && storedLength < staticCounter.length() {
		return writeStoredBlock(bw, data, isFinal)
	}
	if staticCounter.length() <= dynamicCounter.length() {
		return writeStaticBlock(bw, tokens, isFinal)
	}
	return writeDynamicBlock(bw, &hLL, &hD, tokens, isFinal)
}

func writeStoredBlock(bw bitwriter, data []byte, isFinal bool) bool {
	assert.Assertf(uint(len(data)) <= uint(math.MaxUint16), "uncompressed block length %d exceeds uint16_t", uint(len(data)))

	bw.sendEvent(Event{
		Type: BlockBeginEvent,
		Block: &BlockEvent{
			Type:    StoredBlock,
			IsFinal: isFinal,
		},
	})

	// BTYPE=00 BFINAL=x
	bits := block(0x00)
	if isFinal {
		bits = block(0x01)
	}

	u16 := uint16(len(data))

	if !bw.outputBitsWrite(3, bits) {
		return false
	}
	if !bw.outputBitsFlush() {
		return false
	}
	if !bw.outputBufferWriteU16(binary.LittleEndian, u16) {
		return false
	}
	if !bw.outputBufferWriteU16(binary.LittleEndian, ^u16) {
		return false
	}
	if !bw.outputBufferWrite(data) {
		return false
	}

	bw.sendEvent(Event{
		Type: BlockEndEvent,
		Block: &BlockEvent{
			Type:    StoredBlock,
			IsFinal: isFinal,
		},
	})

	return true
}

func writeStaticBlock(bw bitwriter, tokens []token, isFinal bool) bool {
	tokensLen := uint(len(tokens))
	assert.Assert(tokensLen >= 1, "at least 1 token is required")
	assert.Assert(tokens[tokensLen-1].tokenType() == stopToken, "last token must be a stop token")

	hLL, hD := getFixedHuffEncoders()
	sLL := hLL.SizeBySymbol()
	sD := hD.SizeBySymbol()

	bw.sendEvent(Event{
		Type: BlockBeginEvent,
		Block: &BlockEvent{
			Type:    StaticBlock,
			IsFinal: isFinal,
		},
	})

	// BTYPE=01 BFINAL=x
	bits := block(0x02)
	if isFinal {
		bits = block(0x03)
	}

	if !bw.outputBitsWrite(3, bits) {
		return false
	}

	bw.sendEvent(Event{
		Type: BlockTreesEvent,
		Block: &BlockEvent{
			Type:    StaticBlock,
			IsFinal: isFinal,
		},
		Trees: &TreesEvent{
			LiteralLengthSizes: sLL,
			DistanceSizes:      sD,
		},
	})

	for _, t := range tokens {
		if !t.encodeLLD(bw, hLL, hD) {
			return false
		}
	}

	bw.sendEvent(Event{
		Type: BlockEndEvent,
		Block: &BlockEvent{
			Type:    StaticBlock,
			IsFinal: isFinal,
		},
	})

	return true
}

func writeDynamicBlock(bw bitwriter, hLL *huffman.Encoder, hD *huffman.Encoder, tokens []token, isFinal bool) bool {
	tokensLen := uint(len(tokens))
	assert.Assert(tokensLen >= 1, "at least 1 token is required")
	assert.Assert(tokens[tokensLen-1].tokenType() == stopToken, "last token must be a stop token")

	sLL := hLL.SizeBySymbol()
	sD := hD.SizeBySymbol()

	bw.sendEvent(Event{
		Type: BlockBeginEvent,
		Block: &BlockEvent{
			Type:    DynamicBlock,
			IsFinal: isFinal,
		},
	})

	// BTYPE=10 BFINAL=x
	bits := block(0x04)
	if isFinal {
		bits = block(0x05)
	}

	if !bw.outputBitsWrite(3, bits) {
		return false
	}

	xtokens := takeTokens()
	defer giveTokens(xtokens)

	var numLL, numD uint
	*xtokens, numLL = encodeTreeTokens(*xtokens, sLL, 257)
	*xtokens, numD = encodeTreeTokens(*xtokens, sD, 1)

	freqX := studyFrequenciesX(*xtokens)

	var hX huffman.Encoder
	hX.Init(physicalNumXCodes, freqX)

	sX := hX.SizeBySymbol()
	numX := uint(physicalNumXCodes)
	for numX > 4 && sX[scramble[numX-1]] == 0 {
		numX--
	}

	if !bw.outputBitsWrite(5, block(numLL-257)) {
		return false
	}
	if !bw.outputBitsWrite(5, block(numD-1)) {
		return false
	}
	if !bw.outputBitsWrite(4, block(numX-4)) {
		return false
	}
	for i := uint(0); i < numX; i++ {
		if !bw.outputBitsWrite(3, block(sX[scramble[i]])) {
			return false
		}
	}

	bw.sendEvent(Event{
		Type: BlockTreesEvent,
		Block: &BlockEvent{
			Type:    DynamicBlock,
			IsFinal: isFinal,
		},
		Trees: &TreesEvent{
			LiteralLengthSizes: sLL,
			DistanceSizes:      sD,
			CodeSizes:          sX,
		},
	})

	for _, t := range *xtokens {
		if !t.encodeX(bw, &hX) {
			return false
		}
	}

	for _, t := range tokens {
		if !t.encodeLLD(bw, hLL, hD) {
			return false
		}
	}

	bw.sendEvent(Event{
		Type: BlockEndEvent,
		Block: &BlockEvent{
			Type:    DynamicBlock,
			IsFinal: isFinal,
		},
	})

	return true
}

// compressConfig captures the match-finding quality knobs for one
// CompressLevel, mirroring the classic good/lazy/nice/chain quadruple.
type compressConfig struct {
	good  uint
	lazy  uint
	nice  uint
	chain uint
}

// compressConfigs is indexed as [0]=HuffmanRLEStrategy, [1]=HuffmanOnlyStrategy,
// [2]=level 0 (store), [2+n]=level n for n in 1..9.
var compressConfigs = [...]compressConfig{
	{0x0000, 0x0000, 0x0000, 0x0000},
	{0x0000, 0x0000, 0x0000, 0x0000},
	{0x0000, 0x0000, 0x0000, 0x0000},
	{0x0004, 0x0004, 0x0008, 0x0004},
	{0x0004, 0x0005, 0x0010, 0x0008},
	{0x0004, 0x0006, 0x0020, 0x0020},
	{0x0004, 0x0004, 0x0010, 0x0010},
	{0x0008, 0x0010, 0x0020, 0x0020},
	{0x0008, 0x0010, 0x0080, 0x0080},
	{0x0008, 0x0020, 0x0080, 0x0100},
	{0x0020, 0x0080, 0x0102, 0x0400},
	{0x0020, 0x0102, 0x0102, 0x1000},
}
