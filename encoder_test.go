package flate

import (
	"bytes"
	"testing"
)

func TestEncoder(t *testing.T) {
	type testRow struct {
		name     string
		format   Format
		strategy Strategy
		clevel   CompressLevel
		mlevel   MemoryLevel
		wbits    WindowBits
		dict     []byte
		input    []byte
	}

	smallLipsum := []byte("Lorem ipsum dolor sit amet, consectetur adipiscing elit. Donec ultrices.")
	pangram := []byte("Sphinx of black quartz, judge my vow.")
	repetitive := []byte(" abcd efgh abcd efgh efgh abcd abcd efgh ")
	repetitiveDict := []byte(" abcd efgh ")
	mediumZero := make([]byte, 256<<10)

	var testData = [...]testRow{
		{
			name:     "lipsum-zraw",
			format:   RawFormat,
			strategy: DefaultStrategy,
			clevel:   BestCompression,
			mlevel:   FastestMemory,
			wbits:    MaxWindowBits,
			dict:     nil,
			input:    smallLipsum,
		},
		{
			name:     "lipsum-zlib",
			format:   ZlibFormat,
			strategy: DefaultStrategy,
			clevel:   BestCompression,
			mlevel:   FastestMemory,
			wbits:    MaxWindowBits,
			dict:     nil,
			input:    smallLipsum,
		},
		{
			name:     "lipsum-gzip",
			format:   GZIPFormat,
			strategy: DefaultStrategy,
			clevel:   BestCompression,
			mlevel:   FastestMemory,
			wbits:    MaxWindowBits,
			dict:     nil,
			input:    smallLipsum,
		},
		{
			name:     "pangram-zraw",
			format:   RawFormat,
			strategy: DefaultStrategy,
			clevel:   BestCompression,
			mlevel:   FastestMemory,
			wbits:    MaxWindowBits,
			dict:     nil,
			input:    pangram,
		},
		{
			name:     "repetitive-1-zlib",
			format:   ZlibFormat,
			strategy: DefaultStrategy,
			clevel:   BestCompression,
			mlevel:   FastestMemory,
			wbits:    MaxWindowBits,
			dict:     nil,
			input:    repetitive,
		},
		{
			name:     "repetitive-2-zraw-dict",
			format:   RawFormat,
			strategy: DefaultStrategy,
			clevel:   BestCompression,
			mlevel:   FastestMemory,
			wbits:    MaxWindowBits,
			dict:     repetitiveDict,
			input:    repetitive,
		},
		{
			name:     "lipsum-huff-m9-w15",
			format:   ZlibFormat,
			strategy: HuffmanOnlyStrategy,
			clevel:   DefaultCompression,
			mlevel:   FastestMemory,
			wbits:    MaxWindowBits,
			dict:     nil,
			input:    smallLipsum,
		},
		{
			name:     "lipsum-huffrle-m9-w15",
			format:   ZlibFormat,
			strategy: HuffmanRLEStrategy,
			clevel:   DefaultCompression,
			mlevel:   FastestMemory,
			wbits:    MaxWindowBits,
			dict:     nil,
			input:    smallLipsum,
		},
		{
			name:     "lipsum-c0-m9-w15",
			format:   ZlibFormat,
			strategy: DefaultStrategy,
			clevel:   NoCompression,
			mlevel:   FastestMemory,
			wbits:    MaxWindowBits,
			dict:     nil,
			input:    smallLipsum,
		},
		{
			name:     "lipsum-c1-m9-w15",
			format:   ZlibFormat,
			strategy: HuffmanRLEStrategy,
			clevel:   FastestCompression,
			mlevel:   FastestMemory,
			wbits:    MaxWindowBits,
			dict:     nil,
			input:    smallLipsum,
		},
		{
			name:     "lipsum-c9-m1-w15",
			format:   ZlibFormat,
			strategy: DefaultStrategy,
			clevel:   BestCompression,
			mlevel:   SmallestMemory,
			wbits:    MaxWindowBits,
			dict:     nil,
			input:    smallLipsum,
		},
		{
			name:     "lipsum-c9-m9-w8",
			format:   ZlibFormat,
			strategy: DefaultStrategy,
			clevel:   BestCompression,
			mlevel:   FastestMemory,
			wbits:    MinWindowBits,
			dict:     nil,
			input:    smallLipsum,
		},
		{
			name:     "medzero-huff-m9-w15",
			format:   GZIPFormat,
			strategy: HuffmanOnlyStrategy,
			clevel:   BestCompression,
			mlevel:   FastestMemory,
			wbits:    MaxWindowBits,
			dict:     nil,
			input:    mediumZero,
		},
		{
			name:     "medzero-c0-m9-w15",
			format:   GZIPFormat,
			strategy: DefaultStrategy,
			clevel:   NoCompression,
			mlevel:   FastestMemory,
			wbits:    MaxWindowBits,
			dict:     nil,
			input:    mediumZero,
		},
		{
			name:     "medzero-c9-m9-w15",
			format:   GZIPFormat,
			strategy: DefaultStrategy,
			clevel:   BestCompression,
			mlevel:   FastestMemory,
			wbits:    MaxWindowBits,
			dict:     nil,
			input:    mediumZero,
		},
	}

	for _, vector := range testData {
		t.Run(vector.name, func(t *testing.T) {
			fe := NewEncoder(
				WithFormat(vector.format),
				WithStrategy(vector.strategy),
				WithCompressLevel(vector.clevel),
				WithMemoryLevel(vector.mlevel),
				WithWindowBits(vector.wbits),
				WithDictionary(vector.dict),
			)

			originalSize := len(vector.input)

			nn, err := fe.Write(vector.input)
			if err != nil {
				t.Errorf("Write failed: %v", err)
				return
			}
			if nn != originalSize {
				t.Errorf("Write returned wrong length: expect %d, actual %d", originalSize, nn)
			}

			compressed, err := fe.Close()
			if err != nil {
				t.Errorf("Close failed: %v", err)
				return
			}

			fd := NewDecoder(
				WithFormat(vector.format),
				WithDictionary(vector.dict),
			)

			raw, err := fd.Decode(compressed)
			if err != nil {
				t.Errorf("Decode failed: %v", err)
				return
			}

			decompressedSize := len(raw)

			if originalSize != decompressedSize {
				t.Errorf("Decode returned wrong length: expect %d, actual %d", originalSize, decompressedSize)
			}

			if !bytes.Equal(raw, vector.input) {
				t.Error("Decode returned wrong contents" + tabify(hexDiff(vector.input, raw)))
				t.Log("Compressed contents are" + tabify(hexDump(compressed)))
			}
		})
	}
}

func TestEncoder_EmptyInput(t *testing.T) {
	for _, format := range [...]Format{RawFormat, ZlibFormat, GZIPFormat} {
		fe := NewEncoder(WithFormat(format))
		compressed, err := fe.Close()
		if err != nil {
			t.Errorf("format %v: Close failed: %v", format, err)
			continue
		}

		fd := NewDecoder(WithFormat(format))
		raw, err := fd.Decode(compressed)
		if err != nil {
			t.Errorf("format %v: Decode failed: %v", format, err)
			continue
		}
		if len(raw) != 0 {
			t.Errorf("format %v: expected empty output, got %d bytes", format, len(raw))
		}
	}
}

func TestEncoder_WriteAfterClose(t *testing.T) {
	fe := NewEncoder(WithFormat(RawFormat))
	if _, err := fe.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := fe.Write([]byte("too late")); err == nil {
		t.Error("expected an error writing after Close, got nil")
	}
}

func BenchmarkEncoder(b *testing.B) {
	input := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 256)
	for n := 0; n < b.N; n++ {
		fe := NewEncoder(WithFormat(RawFormat))
		if _, err := fe.Write(input); err != nil {
			b.Fatalf("Write failed: %v", err)
		}
		if _, err := fe.Close(); err != nil {
			b.Fatalf("Close failed: %v", err)
		}
	}
}
