// Package lz77 finds back-reference matches in a byte slice using the
// hash-chain technique: a most-recent-position table keyed by a rolling
// 3-byte hash, with collision chains threaded through a parallel "previous
// position" array, walked up to a per-level chain limit and cut short once
// a long-enough ("nice") match is found.
package lz77

const (
	// MinMatch is the shortest back-reference DEFLATE can encode.
	MinMatch = 3
	// MaxMatch is the longest back-reference DEFLATE can encode.
	MaxMatch = 258
	// MaxDistance is the largest back-reference distance DEFLATE can encode.
	MaxDistance = 32768
)

// Event is one step of the tokenized input: either a literal byte or a
// back-reference copy.
type Event struct {
	IsMatch  bool
	Literal  byte
	Length   uint16
	Distance uint16
}

// Config controls match-finding quality versus effort, mirroring the
// classic per-compression-level (good, lazy, nice, chain) quadruple: nice
// caps the chain walk once a long-enough match is found, and chain bounds
// the number of hash-chain candidates visited per position. Good and Lazy
// are carried with the quadruple but Tokenize, which takes the longest
// match at each position greedily, does not read them.
type Config struct {
	MemLevel byte
	Good     uint
	Lazy     uint
	Nice     uint
	Chain    uint
}

// Tokenize walks data left to right, emitting one Event per literal byte or
// per back-reference match, covering every byte of data exactly once.
func Tokenize(data []byte, cfg Config) []Event {
	n := len(data)
	events := make([]Event, 0, n)
	if n == 0 {
		return events
	}

	var mask uint32
	if cfg.MemLevel > 0 {
		mask = (uint32(1) << cfg.MemLevel) - 1
	}
	s1 := (uint32(cfg.MemLevel) + 2) / 3 // ceil(memlvl/3)
	s2 := 2 * s1

	hashAt := func(i int) uint32 {
		h := uint32(data[i]) ^ (uint32(data[i+1]) << s1) ^ (uint32(data[i+2]) << s2)
		return h & mask
	}

	head := make([]int32, mask+1)
	for i := range head {
		head[i] = -1
	}
	prev := make([]int32, n)

	insertable := func(i int) bool { return i+2 < n }

	insert := func(i int) {
		if !insertable(i) {
			return
		}
		h := hashAt(i)
		prev[i] = head[h]
		head[h] = int32(i)
	}

	niceLen := int(cfg.Nice)
	if niceLen == 0 {
		niceLen = MaxMatch
	}
	chainLimit := cfg.Chain
	if chainLimit == 0 {
		chainLimit = 1
	}

	findMatch := func(i int) (bestLen int, bestDist int) {
		if !insertable(i) {
			return 0, 0
		}
		capLen := n - i
		if capLen > MaxMatch {
			capLen = MaxMatch
		}
		j := head[hashAt(i)]
		chain := chainLimit
		for j >= 0 && chain > 0 {
			dist := i - int(j)
			if dist > MaxDistance {
				break
			}
			if dist > 0 {
				l := 0
				for l < capLen && data[int(j)+l] == data[i+l] {
					l++
				}
				if l > bestLen {
					bestLen, bestDist = l, dist
					if l >= niceLen || l >= capLen {
						break
					}
				}
			}
			j = prev[j]
			chain--
		}
		return bestLen, bestDist
	}

	i := 0
	for i < n {
		bestLen, bestDist := 0, 0
		if i+MinMatch <= n {
			bestLen, bestDist = findMatch(i)
		}

		if bestLen >= MinMatch {
			events = append(events, Event{IsMatch: true, Length: uint16(bestLen), Distance: uint16(bestDist)})
			end := i + bestLen
			for ; i < end; i++ {
				insert(i)
			}
			continue
		}

		events = append(events, Event{Literal: data[i]})
		insert(i)
		i++
	}

	return events
}
