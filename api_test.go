package flate

import (
	"bytes"
	"testing"
)

func TestCRC32_PublishedVectors(t *testing.T) {
	type testRow struct {
		name  string
		input []byte
		want  uint32
	}

	testData := [...]testRow{
		{name: "empty", input: []byte(""), want: 0x00000000},
		{name: "a", input: []byte("a"), want: 0xE8B7BE43},
	}

	for _, row := range testData {
		t.Run(row.name, func(t *testing.T) {
			if got := CRC32(row.input); got != row.want {
				t.Errorf("CRC32(%q) = %#08x, want %#08x", row.input, got, row.want)
			}
		})
	}
}

func TestAdler32_PublishedVectors(t *testing.T) {
	type testRow struct {
		name  string
		input []byte
		want  uint32
	}

	testData := [...]testRow{
		{name: "empty", input: []byte(""), want: 0x00000001},
		{name: "abc", input: []byte("abc"), want: 0x024D0127},
	}

	for _, row := range testData {
		t.Run(row.name, func(t *testing.T) {
			if got := Adler32(row.input); got != row.want {
				t.Errorf("Adler32(%q) = %#08x, want %#08x", row.input, got, row.want)
			}
		})
	}
}

func TestNewCRC32_MatchesOneShot(t *testing.T) {
	input := []byte("the quick brown fox jumps over the lazy dog")

	h := NewCRC32()
	if _, err := h.Write(input); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got, want := h.Sum32(), CRC32(input); got != want {
		t.Errorf("streaming CRC32 = %#08x, want %#08x", got, want)
	}
}

func TestNewAdler32_MatchesOneShot(t *testing.T) {
	input := []byte("the quick brown fox jumps over the lazy dog")

	h := NewAdler32()
	if _, err := h.Write(input); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got, want := h.Sum32(), Adler32(input); got != want {
		t.Errorf("streaming Adler32 = %#08x, want %#08x", got, want)
	}
}

func TestDeflateInflate_RoundTrip(t *testing.T) {
	input := bytes.Repeat([]byte("Lorem ipsum dolor sit amet. "), 64)

	compressed, err := Deflate(input)
	if err != nil {
		t.Fatalf("Deflate failed: %v", err)
	}
	if len(compressed) >= len(input) {
		t.Errorf("Deflate did not shrink a highly repetitive input: got %d bytes, input was %d", len(compressed), len(input))
	}

	got, err := Inflate(compressed)
	if err != nil {
		t.Fatalf("Inflate failed: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Error("round-tripped data does not match original input")
	}
}

func TestZlibUnzlib_RoundTrip(t *testing.T) {
	input := []byte("Sphinx of black quartz, judge my vow.")

	compressed, err := Zlib(input)
	if err != nil {
		t.Fatalf("Zlib failed: %v", err)
	}

	got, err := Unzlib(compressed)
	if err != nil {
		t.Fatalf("Unzlib failed: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Error("round-tripped data does not match original input")
	}
}

func TestGzipGunzip_RoundTrip(t *testing.T) {
	input := []byte("Sphinx of black quartz, judge my vow.")

	compressed, err := Gzip(input)
	if err != nil {
		t.Fatalf("Gzip failed: %v", err)
	}

	got, err := Gunzip(compressed)
	if err != nil {
		t.Fatalf("Gunzip failed: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Error("round-tripped data does not match original input")
	}
}

func TestDeflateInflate_WithDictionary(t *testing.T) {
	dict := []byte("the quick brown fox ")
	input := []byte("the quick brown fox jumps over the lazy dog")

	compressed, err := Deflate(input, WithDictionary(dict))
	if err != nil {
		t.Fatalf("Deflate failed: %v", err)
	}

	got, err := Inflate(compressed, WithDictionary(dict))
	if err != nil {
		t.Fatalf("Inflate failed: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Error("round-tripped data does not match original input")
	}
}

func TestInflate_EmptyInput(t *testing.T) {
	compressed, err := Deflate(nil)
	if err != nil {
		t.Fatalf("Deflate failed: %v", err)
	}

	got, err := Inflate(compressed)
	if err != nil {
		t.Fatalf("Inflate failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty output, got %d bytes", len(got))
	}
}
