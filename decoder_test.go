package flate

import (
	"bytes"
	"testing"
)

func TestDecoder(t *testing.T) {
	type testRow struct {
		name         string
		format       Format
		dict         []byte
		compressed   []byte
		decompressed []byte
	}

	var testData = [...]testRow{
		{
			name:         "lipsum",
			format:       RawFormat,
			dict:         nil,
			compressed:   mustDecodeHex("04c0d10904210c04d056a680c32aee739b90382c036a2489fdef7b3cb8a0937761f8f440aad017eb07f39db462dd401f3a4ad37ec1a96af8fba6e1ce0a19b37d010000ffff"),
			decompressed: []byte("Lorem ipsum dolor sit amet, consectetur adipiscing elit. Donec ultrices."),
		},
		{
			name:         "pangram",
			format:       RawFormat,
			dict:         nil,
			compressed:   mustDecodeHex("0a2ec8c8ccab50c84f5348ca494cce56282c4d2c2aa9d251c82a4d494f55c8ad5428cb2fd703040000ffff"),
			decompressed: []byte("Sphinx of black quartz, judge my vow."),
		},
		{
			name:         "repetitive-1",
			format:       RawFormat,
			dict:         nil,
			compressed:   mustDecodeHex("52484c4a4e51484d4bcf406221b8083140000000ffff"),
			decompressed: []byte(" abcd efgh abcd efgh efgh abcd abcd efgh "),
		},
		{
			name:         "repetitive-2",
			format:       RawFormat,
			dict:         []byte(" abcd efgh "),
			compressed:   mustDecodeHex("42622258082e420c100000ffff"),
			decompressed: []byte(" abcd efgh abcd efgh efgh abcd abcd efgh "),
		},
	}

	for _, vector := range testData {
		t.Run(vector.name, func(t *testing.T) {
			dec := NewDecoder(WithFormat(vector.format), WithDictionary(vector.dict))
			output, err := dec.Decode(vector.compressed)
			if err != nil {
				t.Errorf("Decode failed: %v", err)
				return
			}

			if !bytes.Equal(output, vector.decompressed) {
				t.Error("Decode returned wrong contents" + tabify(hexDiff(vector.decompressed, output)))
				t.Log("Compressed contents are" + tabify(hexDump(vector.compressed)))
			}
		})
	}
}

func TestDecoder_AutoFormat(t *testing.T) {
	input := []byte("auto-detect me please, thank you very much")

	for _, format := range [...]Format{RawFormat, ZlibFormat, GZIPFormat} {
		enc := NewEncoder(WithFormat(format))
		if _, err := enc.Write(input); err != nil {
			t.Fatalf("Write failed for format %v: %v", format, err)
		}
		compressed, err := enc.Close()
		if err != nil {
			t.Fatalf("Close failed for format %v: %v", format, err)
		}

		dec := NewDecoder(WithFormat(DefaultFormat))
		output, err := dec.Decode(compressed)
		if err != nil {
			t.Fatalf("Decode failed for format %v: %v", format, err)
		}
		if !bytes.Equal(output, input) {
			t.Errorf("format %v: round trip mismatch", format)
		}
	}
}

func TestDecoder_TruncatedInput(t *testing.T) {
	enc := NewEncoder(WithFormat(ZlibFormat))
	if _, err := enc.Write([]byte("this input will be cut short")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	compressed, err := enc.Close()
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	dec := NewDecoder(WithFormat(ZlibFormat))
	if _, err := dec.Decode(compressed[:len(compressed)-1]); err == nil {
		t.Error("expected an error decoding truncated input, got nil")
	}
}

func TestDecoder_InvalidZlibHeader(t *testing.T) {
	dec := NewDecoder(WithFormat(ZlibFormat))
	if _, err := dec.Decode([]byte{0xff, 0xff}); err == nil {
		t.Error("expected an error decoding a malformed zlib header, got nil")
	}
}

func BenchmarkDecoder(b *testing.B) {
	enc := NewEncoder(WithFormat(RawFormat))
	input := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 256)
	if _, err := enc.Write(input); err != nil {
		b.Fatalf("Write failed: %v", err)
	}
	compressed, err := enc.Close()
	if err != nil {
		b.Fatalf("Close failed: %v", err)
	}

	dec := NewDecoder(WithFormat(RawFormat))
	for n := 0; n < b.N; n++ {
		output, err := dec.Decode(compressed)
		if err != nil {
			b.Fatalf("Decode failed: %v", err)
		}
		if len(output) != len(input) {
			b.Errorf("wrong length: expected %d, got %d", len(input), len(output))
		}
	}
}
