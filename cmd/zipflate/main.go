package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const version = "zipflate version 1.0.0"

// subcommands maps each public library operation to the function that
// implements its CLI surface. One entry per operation named in the CLI
// section of the design notes: deflate, inflate, zlib, unzlib, gzip,
// gunzip, zip, unzip, crc32, adler32.
var subcommands = map[string]func(args []string) int{
	"deflate": cmdDeflate,
	"inflate": cmdInflate,
	"zlib":    cmdZlib,
	"unzlib":  cmdUnzlib,
	"gzip":    cmdGzip,
	"gunzip":  cmdGunzip,
	"zip":     cmdZip,
	"unzip":   cmdUnzip,
	"crc32":   cmdCRC32,
	"adler32": cmdAdler32,
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.DurationFieldUnit = time.Second
	zerolog.DurationFieldInteger = false
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "-V", "--version":
		fmt.Println(version)
		os.Exit(0)
	case "-h", "--help":
		printUsage(os.Stdout)
		os.Exit(0)
	}

	fn, ok := subcommands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "zipflate: unknown subcommand %q\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(2)
	}

	os.Exit(fn(os.Args[2:]))
}

func printUsage(w *os.File) {
	fmt.Fprintln(w, "usage: zipflate <subcommand> [options] [<args>]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "subcommands:")
	fmt.Fprintln(w, "  deflate, inflate   raw DEFLATE (RFC 1951)")
	fmt.Fprintln(w, "  zlib, unzlib       zlib framing (RFC 1950)")
	fmt.Fprintln(w, "  gzip, gunzip       gzip framing (RFC 1952)")
	fmt.Fprintln(w, "  zip, unzip         in-memory ZIP archives")
	fmt.Fprintln(w, "  crc32, adler32     checksums")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "run 'zipflate <subcommand> --help' for subcommand-specific flags")
}
