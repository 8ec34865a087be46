package zip

import (
	"bytes"
	"testing"

	flate "github.com/chronos-tachyon/zipflate"
)

func TestRead_NoEOCD(t *testing.T) {
	_, err := Read([]byte("this is not a zip archive"))
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	zerr, ok := err.(flate.ZipError)
	if !ok || zerr.ErrCode != flate.InvalidZipData {
		t.Errorf("expected flate.InvalidZipData, got %#v", err)
	}
}

func TestRead_TruncatedEOCD(t *testing.T) {
	archive, err := Write([]Entry{
		{Name: "x.txt", Data: []byte("hello"), Method: StoreMethod},
	})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	truncated := archive[:len(archive)-4]
	_, err = Read(truncated)
	if err == nil {
		t.Fatal("expected an error reading a truncated archive, got nil")
	}
}

func TestRead_UnknownMethod(t *testing.T) {
	archive, err := Write([]Entry{
		{Name: "x.bin", Data: []byte("payload"), Method: StoreMethod},
	})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Flip the central-directory compression-method field (offset 10 from
	// the signature) to a value neither Store nor Deflate.
	idx := bytes.Index(archive, []byte{0x50, 0x4b, 0x01, 0x02})
	if idx < 0 {
		t.Fatal("could not locate central directory header in test fixture")
	}
	corrupted := append([]byte(nil), archive...)
	corrupted[idx+10] = 99
	corrupted[idx+11] = 0

	_, err = Read(corrupted)
	if err == nil {
		t.Fatal("expected an UnknownCompressionMethod error, got nil")
	}
	if zerr, ok := err.(flate.ZipError); !ok || zerr.ErrCode != flate.UnknownCompressionMethod {
		t.Errorf("expected flate.UnknownCompressionMethod, got %#v", err)
	}
}

func TestRead_DecompressedSizeMismatch(t *testing.T) {
	archive, err := Write([]Entry{
		{Name: "x.txt", Data: bytes.Repeat([]byte("abc"), 100), Method: DeflateMethod},
	})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	idx := bytes.Index(archive, []byte{0x50, 0x4b, 0x01, 0x02})
	if idx < 0 {
		t.Fatal("could not locate central directory header in test fixture")
	}
	corrupted := append([]byte(nil), archive...)
	// Uncompressed-size field is at offset 24 from the central header
	// signature; inflate the recorded size so it can never match.
	corrupted[idx+24]++

	_, err = Read(corrupted)
	if err == nil {
		t.Fatal("expected a size-mismatch error, got nil")
	}
}
