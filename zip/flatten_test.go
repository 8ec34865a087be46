package zip

import (
	"testing"
	"time"

	flate "github.com/chronos-tachyon/zipflate"
)

func namesOf(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, ent := range entries {
		names[i] = ent.Name
	}
	return names
}

func TestFlatten_OrderAndDirectorySynthesis(t *testing.T) {
	root := Dir([]Child{
		{Name: "README.txt", Node: File([]byte("hello"), EntryOptions{})},
		{Name: "src/main.go", Node: File([]byte("package main"), EntryOptions{})},
		{Name: "src/lib/util.go", Node: File([]byte("package lib"), EntryOptions{})},
	}, EntryOptions{})

	entries, err := Flatten(root, EntryOptions{})
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	want := []string{
		"README.txt",
		"src/",
		"src/main.go",
		"src/lib/",
		"src/lib/util.go",
	}
	got := namesOf(entries)
	if len(got) != len(want) {
		t.Fatalf("entry count mismatch: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, got[i], want[i])
		}
	}

	for _, ent := range entries {
		if ent.Name == "src/" || ent.Name == "src/lib/" {
			if !ent.IsDir {
				t.Errorf("entry %q should be a directory", ent.Name)
			}
			if ent.Method != StoreMethod {
				t.Errorf("directory entry %q should use StoreMethod, got %v", ent.Name, ent.Method)
			}
		}
	}
}

func TestFlatten_DuplicateDirectoryIsIdempotent(t *testing.T) {
	firstMTime := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	root := Dir([]Child{
		{Name: "a/x.txt", Node: File([]byte("x"), EntryOptions{ModTime: firstMTime})},
		{Name: "a/y.txt", Node: File([]byte("y"), EntryOptions{ModTime: firstMTime})},
	}, EntryOptions{})

	entries, err := Flatten(root, EntryOptions{})
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	var dirCount int
	for _, ent := range entries {
		if ent.Name == "a/" {
			dirCount++
			if !ent.ModTime.Equal(firstMTime) {
				t.Errorf("expected first occurrence's mtime to win, got %v", ent.ModTime)
			}
		}
	}
	if dirCount != 1 {
		t.Errorf("expected exactly one synthesized directory entry for \"a/\", got %d", dirCount)
	}
}

func TestFlatten_DuplicateFilePath(t *testing.T) {
	root := Dir([]Child{
		{Name: "dup.txt", Node: File([]byte("first"), EntryOptions{})},
		{Name: "dup.txt", Node: File([]byte("second"), EntryOptions{})},
	}, EntryOptions{})

	_, err := Flatten(root, EntryOptions{})
	if err == nil {
		t.Fatal("expected a DuplicatePath error, got nil")
	}
	if zerr, ok := err.(flate.ZipError); ok {
		if zerr.ErrCode != flate.DuplicatePath {
			t.Errorf("expected flate.DuplicatePath, got %#v", err)
		}
	}
}

func TestFlatten_FileDirectoryCollision(t *testing.T) {
	root := Dir([]Child{
		{Name: "a", Node: File([]byte("file"), EntryOptions{})},
		{Name: "a/b.txt", Node: File([]byte("nested"), EntryOptions{})},
	}, EntryOptions{})

	_, err := Flatten(root, EntryOptions{})
	if err == nil {
		t.Fatal("expected an error for a file/directory path collision, got nil")
	}
}

func TestFlatten_MethodResolution(t *testing.T) {
	storeMethod := StoreMethod
	root := Dir([]Child{
		{Name: "stored.bin", Node: File([]byte("x"), EntryOptions{Method: &storeMethod})},
		{Name: "named.bin", Node: File([]byte("y"), EntryOptions{Compression: "store"})},
		{Name: "default.bin", Node: File([]byte("z"), EntryOptions{})},
	}, EntryOptions{})

	entries, err := Flatten(root, EntryOptions{})
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	want := map[string]Method{
		"stored.bin":  StoreMethod,
		"named.bin":   StoreMethod,
		"default.bin": DeflateMethod,
	}
	for _, ent := range entries {
		if m, ok := want[ent.Name]; ok && ent.Method != m {
			t.Errorf("entry %q: got method %v, want %v", ent.Name, ent.Method, m)
		}
	}
}

func TestFlatten_GlobalOptionsInherited(t *testing.T) {
	mtime := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
	root := Dir([]Child{
		{Name: "f.txt", Node: File([]byte("data"), EntryOptions{})},
	}, EntryOptions{})

	entries, err := Flatten(root, EntryOptions{Comment: "archive-wide", ModTime: mtime})
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Comment != "archive-wide" {
		t.Errorf("expected inherited comment, got %q", entries[0].Comment)
	}
	if !entries[0].ModTime.Equal(mtime) {
		t.Errorf("expected inherited mtime %v, got %v", mtime, entries[0].ModTime)
	}
}
