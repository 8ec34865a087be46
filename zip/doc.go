// Package zip assembles and parses ZIP archives (PKWARE APPNOTE.TXT) built
// on top of the sibling flate package for entry compression. It flattens a
// nested directory tree into an ordered entry list, writes that list as a
// single in-memory archive buffer (with ZIP64 extensions when any field
// overflows its native width), and reads an archive buffer back into entries
// by locating the End Of Central Directory record and walking the central
// directory.
//
// As with the flate package, every operation here is synchronous and
// single-shot: callers pass a complete []byte in and get a complete []byte
// or entry list back. There is no streaming writer or reader.
package zip
