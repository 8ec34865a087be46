package zip

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"
)

func buildSimpleEntries() []Entry {
	mtime := time.Date(2022, time.May, 9, 10, 30, 0, 0, time.UTC)
	return []Entry{
		{Name: "docs/", IsDir: true, Method: StoreMethod, ModTime: mtime},
		{Name: "docs/readme.txt", Data: []byte("hello, world"), Method: DeflateMethod, ModTime: mtime},
		{Name: "bin/tool", Data: bytes.Repeat([]byte{0x00, 0xFF}, 4096), Method: DeflateMethod, ModTime: mtime},
		{Name: "empty.bin", Data: []byte{}, Method: StoreMethod, ModTime: mtime},
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	entries := buildSimpleEntries()
	archive, err := Write(entries)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(archive)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(got) != len(entries) {
		t.Fatalf("entry count mismatch: got %d, want %d", len(got), len(entries))
	}

	for i, want := range entries {
		ent := got[i]
		if ent.Name != want.Name {
			t.Errorf("entry %d: name = %q, want %q", i, ent.Name, want.Name)
		}
		if ent.IsDir != want.IsDir {
			t.Errorf("entry %d (%s): IsDir = %v, want %v", i, ent.Name, ent.IsDir, want.IsDir)
		}
		if !ent.IsDir && !bytes.Equal(ent.Data, want.Data) {
			t.Errorf("entry %d (%s): data mismatch: got %d bytes, want %d bytes", i, ent.Name, len(ent.Data), len(want.Data))
		}
	}
}

func TestWrite_StoreDowngrade(t *testing.T) {
	incompressible := make([]byte, 4096)
	x := uint32(2463534242)
	for i := range incompressible {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		incompressible[i] = byte(x >> 24)
	}

	entries := []Entry{
		{Name: "noise.bin", Data: incompressible, Method: DeflateMethod},
	}
	archive, err := Write(entries)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(archive)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].Method != StoreMethod {
		t.Errorf("expected the entry to be downgraded to %v, got %v", StoreMethod, got[0].Method)
	}
	if !bytes.Equal(got[0].Data, incompressible) {
		t.Error("round-tripped data does not match original incompressible input")
	}
}

func TestWriteRead_FilenameEncoding(t *testing.T) {
	entries := []Entry{
		{Name: "café/naïve.txt", Data: []byte("utf8 name"), Method: StoreMethod},
	}

	archive, err := Write(entries, WithFilenameEncoding(UTF8FilenameEncoding))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(archive)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "café/naïve.txt" {
		t.Errorf("round-tripped name = %q, want %q", got[0].Name, "café/naïve.txt")
	}
}

func TestWriteRead_Latin1Rejection(t *testing.T) {
	entries := []Entry{
		{Name: "snowman-☃.txt", Data: []byte("x"), Method: StoreMethod},
	}

	_, err := Write(entries, WithFilenameEncoding(Latin1FilenameEncoding))
	if err == nil {
		t.Fatal("expected an error encoding a non-Latin-1 name as Latin-1, got nil")
	}
}

func TestRead_Filter(t *testing.T) {
	entries := []Entry{
		{Name: "keep.txt", Data: []byte("keep me"), Method: StoreMethod},
		{Name: "skip.txt", Data: []byte("skip me"), Method: StoreMethod},
	}
	archive, err := Write(entries)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(archive, WithFilter(func(name string, _, _ uint64, _ Method) bool {
		return !strings.HasPrefix(name, "skip")
	}))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	for _, ent := range got {
		switch ent.Name {
		case "keep.txt":
			if ent.Data == nil {
				t.Error("expected keep.txt to be extracted")
			}
		case "skip.txt":
			if ent.Data != nil {
				t.Error("expected skip.txt to be left unextracted")
			}
		}
	}
}

func TestWriteRead_EmptyArchive(t *testing.T) {
	archive, err := Write(nil)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(archive)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected 0 entries, got %d", len(got))
	}
}

func TestWriteRead_ArchiveComment(t *testing.T) {
	archive, err := Write(nil, WithArchiveComment("a test archive"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !bytes.Contains(archive, []byte("a test archive")) {
		t.Error("expected archive comment bytes to appear in the output")
	}
}

func TestWriteRead_ManyEntriesForcesZip64EOCD(t *testing.T) {
	const count = 70000 // exceeds the 16-bit entry-count field
	entries := make([]Entry, count)
	for i := range entries {
		entries[i] = Entry{Name: "a" + strconv.Itoa(i), Method: StoreMethod}
	}

	archive, err := Write(entries)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(archive)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != count {
		t.Fatalf("entry count mismatch: got %d, want %d", len(got), count)
	}
}
