package main

import (
	"fmt"

	flate "github.com/chronos-tachyon/zipflate"
	getopt "github.com/pborman/getopt/v2"
)

// cmdCRC32 implements `zipflate crc32`, printing the checksum of the named
// input (or standard input) as 8 lowercase hex digits.
func cmdCRC32(args []string) int {
	set := getopt.New()
	set.SetParameters("[<input>]")
	set.Parse(subArgs("crc32", args))

	input := ""
	if rest := set.Args(); len(rest) > 0 {
		input = rest[0]
	}

	data := readInputFile(input)
	fmt.Printf("%08x\n", flate.CRC32(data))
	return 0
}

// cmdAdler32 implements `zipflate adler32`, printing the checksum of the
// named input (or standard input) as 8 lowercase hex digits.
func cmdAdler32(args []string) int {
	set := getopt.New()
	set.SetParameters("[<input>]")
	set.Parse(subArgs("adler32", args))

	input := ""
	if rest := set.Args(); len(rest) > 0 {
		input = rest[0]
	}

	data := readInputFile(input)
	fmt.Printf("%08x\n", flate.Adler32(data))
	return 0
}
