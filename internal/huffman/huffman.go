// Package huffman builds and evaluates canonical Huffman codes for the
// DEFLATE bit stream: literal/length codes, distance codes, and the
// code-length alphabet used to transmit dynamic trees.
package huffman

import (
	"fmt"
	"math/bits"
	"sort"
)

// Symbol identifies a member of a Huffman alphabet. InvalidSymbol is
// returned wherever no symbol applies.
type Symbol int32

// InvalidSymbol is returned by lookups that fail to resolve a symbol.
const InvalidSymbol Symbol = -1

// Code is a Huffman code word as it appears in the DEFLATE bit stream:
// Size bits, held in the low Size bits of Bits, already ordered the way the
// bit stream reads them (LSB-first).
type Code struct {
	Bits uint32
	Size byte
}

// MakeCode constructs a Code from a bit count and a value holding that many
// low-order bits.
func MakeCode(size byte, value uint32) Code {
	return Code{Bits: value, Size: size}
}

const maxCodeSize = 15

// Encoder assigns a canonical Huffman Code to every symbol in an alphabet.
type Encoder struct {
	sizes []byte
	codes []Code
}

// InitFromSizes assigns canonical codes given a fixed, precomputed set of
// code lengths — used for the two RFC 1951 §3.2.6 fixed trees, which are not
// derived from any input's symbol frequencies.
func (enc *Encoder) InitFromSizes(sizes []byte) error {
	return enc.assign(sizes)
}

// Init builds a length-limited canonical Huffman code for numSymbols
// symbols given their observed frequencies, then assigns canonical codes.
// Symbols with zero frequency receive size 0 (unused).
func (enc *Encoder) Init(numSymbols int, freq []uint32) {
	sizes := buildLengths(numSymbols, freq, maxCodeSize)
	if err := enc.assign(sizes); err != nil {
		panic(fmt.Errorf("huffman: internal length assignment produced an invalid code: %w", err))
	}
}

// Encode returns the Code for sym. Panics if sym is out of range or unused.
func (enc *Encoder) Encode(sym Symbol) Code {
	return enc.codes[sym]
}

// SizeBySymbol returns the code length assigned to every symbol in the
// alphabet, indexed by Symbol. A zero entry means the symbol is unused.
func (enc *Encoder) SizeBySymbol() []byte {
	return enc.sizes
}

func (enc *Encoder) assign(sizes []byte) error {
	numSymbols := len(sizes)
	enc.sizes = sizes
	enc.codes = make([]Code, numSymbols)

	var countBySize [maxCodeSize + 2]uint32
	maxSize := byte(0)
	for _, size := range sizes {
		if size == 0 {
			continue
		}
		if size > maxCodeSize {
			return fmt.Errorf("huffman: code length %d exceeds maximum %d", size, maxCodeSize)
		}
		countBySize[size]++
		if size > maxSize {
			maxSize = size
		}
	}

	var nextCode [maxCodeSize + 2]uint32
	var code uint32
	for size := byte(1); size <= maxSize; size++ {
		code = (code + countBySize[size-1]) << 1
		nextCode[size] = code
	}

	for sym, size := range sizes {
		if size == 0 {
			continue
		}
		c := nextCode[size]
		nextCode[size]++
		enc.codes[sym] = Code{Bits: reverseBits(c, size), Size: size}
	}

	return nil
}

// Decoder resolves symbols from a canonical Huffman code as it is read
// LSB-first from a DEFLATE bit stream.
type Decoder struct {
	tables  map[byte][]int32
	lengths []byte
	minSize byte
	maxSize byte
}

// SizeBySymbol returns the code length assigned to every symbol in the
// alphabet, indexed by Symbol. A zero entry means the symbol is unused.
func (dec *Decoder) SizeBySymbol() []byte {
	return dec.lengths
}

// Init builds decode tables from a fixed set of code lengths, one per
// symbol (0 meaning unused).
func (dec *Decoder) Init(sizes []byte) error {
	dec.tables = make(map[byte][]int32)
	dec.lengths = nil
	dec.minSize = 0
	dec.maxSize = 0

	var countBySize [maxCodeSize + 2]uint32
	for _, size := range sizes {
		if size == 0 {
			continue
		}
		if size > maxCodeSize {
			return fmt.Errorf("huffman: code length %d exceeds maximum %d", size, maxCodeSize)
		}
		countBySize[size]++
		if dec.minSize == 0 || size < dec.minSize {
			dec.minSize = size
		}
		if size > dec.maxSize {
			dec.maxSize = size
		}
	}
	if dec.maxSize == 0 {
		return nil
	}

	var nextCode [maxCodeSize + 2]uint32
	var code uint32
	for size := byte(1); size <= dec.maxSize; size++ {
		code = (code + countBySize[size-1]) << 1
		nextCode[size] = code
	}

	for size := byte(1); size <= dec.maxSize; size++ {
		if countBySize[size] != 0 {
			dec.tables[size] = make([]int32, 1<<size)
			for i := range dec.tables[size] {
				dec.tables[size][i] = int32(InvalidSymbol)
			}
			dec.lengths = append(dec.lengths, size)
		}
	}

	for sym, size := range sizes {
		if size == 0 {
			continue
		}
		c := nextCode[size]
		nextCode[size]++
		rc := reverseBits(c, size)
		dec.tables[size][rc] = int32(sym)
	}

	return nil
}

// MinSize returns the shortest code length present in the alphabet.
func (dec *Decoder) MinSize() byte { return dec.minSize }

// MaxSize returns the longest code length present in the alphabet.
func (dec *Decoder) MaxSize() byte { return dec.maxSize }

// Decode attempts to resolve hc (Size bits peeked from the stream) against
// the codes of length exactly hc.Size. On success it returns the symbol and
// zero/zero. On failure it returns InvalidSymbol and the next code length
// the caller should widen its peek to; newMax is 0 only when every code
// length has been exhausted (corrupt input).
func (dec *Decoder) Decode(hc Code) (symbol Symbol, newMin byte, newMax byte) {
	if table, ok := dec.tables[hc.Size]; ok {
		mask := uint32(1)<<hc.Size - 1
		if sym := table[hc.Bits&mask]; sym >= 0 {
			return Symbol(sym), 0, 0
		}
	}
	for _, size := range dec.lengths {
		if size > hc.Size {
			return InvalidSymbol, size, dec.maxSize
		}
	}
	return InvalidSymbol, 0, 0
}

func reverseBits(code uint32, size byte) uint32 {
	return bits.Reverse32(code) >> (32 - size)
}

// buildLengths derives length-limited canonical code lengths for numSymbols
// symbols from their frequencies, using Huffman's algorithm with the
// UZIP.js dual-index merge: a lookbehind index i0 into already-merged
// internal nodes and a lookahead index i2 into the frequency-sorted leaves,
// always combining whichever two candidates — from either stream — are
// cheapest. Because the leaves are pre-sorted, the merged-node stream stays
// sorted automatically, so each step only ever compares the two streams'
// current heads. A package-merge length-limiting pass follows when the
// unconstrained tree would exceed maxBits.
func buildLengths(numSymbols int, freq []uint32, maxBits byte) []byte {
	type leaf struct {
		sym  int
		freq uint32
	}
	leaves := make([]leaf, 0, numSymbols)
	for sym := 0; sym < numSymbols; sym++ {
		f := uint32(0)
		if sym < len(freq) {
			f = freq[sym]
		}
		if f > 0 {
			leaves = append(leaves, leaf{sym: sym, freq: f})
		}
	}

	sizes := make([]byte, numSymbols)

	switch len(leaves) {
	case 0:
		return sizes
	case 1:
		sizes[leaves[0].sym] = 1
		return sizes
	}

	sort.Slice(leaves, func(i, j int) bool { return leaves[i].freq < leaves[j].freq })

	type item struct {
		freq        uint32
		sym         int // >= 0 for a leaf, -1 for an internal node
		left, right int // indices into items, valid only when sym == -1
	}

	numLeaves := len(leaves)
	items := make([]item, numLeaves, 2*numLeaves)
	for i, lf := range leaves {
		items[i] = item{freq: lf.freq, sym: lf.sym, left: -1, right: -1}
	}

	i0, i2 := numLeaves, 0
	take := func() int {
		leafAvailable := i2 < numLeaves
		nodeAvailable := i0 < len(items)
		switch {
		case leafAvailable && nodeAvailable:
			if items[i2].freq <= items[i0].freq {
				idx := i2
				i2++
				return idx
			}
			idx := i0
			i0++
			return idx
		case leafAvailable:
			idx := i2
			i2++
			return idx
		case nodeAvailable:
			idx := i0
			i0++
			return idx
		default:
			panic("huffman: ran out of nodes while building tree")
		}
	}

	for i2 < numLeaves || i0 < len(items)-1 {
		a := take()
		b := take()
		items = append(items, item{
			freq:  items[a].freq + items[b].freq,
			sym:   -1,
			left:  a,
			right: b,
		})
	}

	root := len(items) - 1
	var walk func(idx int, depth byte)
	walk = func(idx int, depth byte) {
		it := items[idx]
		if it.sym >= 0 {
			d := depth
			if d == 0 {
				d = 1
			}
			sizes[it.sym] = d
			return
		}
		walk(it.left, depth+1)
		walk(it.right, depth+1)
	}
	walk(root, 0)

	return limitLengths(sizes, freq, maxBits)
}

// limitLengths caps an unconstrained set of code lengths at maxBits while
// keeping the code complete (Kraft sum == 2^maxBits), using the histogram
// compensation technique described in the package merge step: fold every
// over-long length into maxBits, then repeatedly borrow one unit of "debt"
// from the shortest available length class until the Kraft sum is exact.
// Lengths are then redistributed to symbols, longest-first, breaking ties
// by original length then ascending frequency so that the coldest symbols
// absorb the longest codes.
func limitLengths(sizes []byte, freq []uint32, maxBits byte) []byte {
	maxFound := byte(0)
	n := 0
	for _, s := range sizes {
		if s > maxFound {
			maxFound = s
		}
		if s > 0 {
			n++
		}
	}
	if maxFound <= maxBits {
		return sizes
	}

	const histMax = 32
	var count [histMax + 1]int
	for _, s := range sizes {
		if s == 0 {
			continue
		}
		l := int(s)
		if l > histMax {
			l = histMax
		}
		count[l]++
	}

	for i := histMax; i > int(maxBits); i-- {
		count[maxBits] += count[i]
		count[i] = 0
	}

	total := uint32(0)
	for i := 1; i <= int(maxBits); i++ {
		total += uint32(count[i]) << (uint(maxBits) - uint(i))
	}
	target := uint32(1) << maxBits
	for total != target {
		count[maxBits]--
		for i := int(maxBits) - 1; i > 0; i-- {
			if count[i] > 0 {
				count[i]--
				count[i+1] += 2
				break
			}
		}
		total--
	}

	type sym struct {
		idx  int
		size byte
		freq uint32
	}
	syms := make([]sym, 0, n)
	for idx, s := range sizes {
		if s == 0 {
			continue
		}
		f := uint32(0)
		if idx < len(freq) {
			f = freq[idx]
		}
		syms = append(syms, sym{idx: idx, size: s, freq: f})
	}
	sort.Slice(syms, func(i, j int) bool {
		if syms[i].size != syms[j].size {
			return syms[i].size > syms[j].size
		}
		return syms[i].freq < syms[j].freq
	})

	out := make([]byte, len(sizes))
	pos := 0
	for length := int(maxBits); length >= 1; length-- {
		for c := 0; c < count[length]; c++ {
			out[syms[pos].idx] = byte(length)
			pos++
		}
	}
	return out
}
