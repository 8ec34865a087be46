package main

import (
	flate "github.com/chronos-tachyon/zipflate"
	getopt "github.com/pborman/getopt/v2"
	"github.com/rs/zerolog/log"
)

// compressFlags holds the getopt.Set and bound variables shared by every
// compressing subcommand (deflate, zlib, gzip).
type compressFlags struct {
	subcommand string
	set        *getopt.Set
	output     string
	clevel     CompressLevelFlag
	strat      StrategyFlag
	mlevel     MemoryLevelFlag
	wbits      WindowBitsFlag
	dict       string
	verbose    bool
	trace      bool
}

func newCompressFlags(subcommand string) *compressFlags {
	f := &compressFlags{
		subcommand: subcommand,
		set:        getopt.New(),
		clevel:     CompressLevelFlag{flate.DefaultCompression},
		strat:      StrategyFlag{flate.DefaultStrategy},
		mlevel:     MemoryLevelFlag{flate.DefaultMemory},
		wbits:      WindowBitsFlag{flate.DefaultWindowBits},
	}
	f.set.SetParameters("[<input>]")
	f.set.FlagLong(&f.output, "output", 'o', "output file (default: standard output)")
	f.set.FlagLong(&f.clevel, "compress-level", 'C', "compression level; one of default, 0..9")
	f.set.FlagLong(&f.strat, "strategy", 'S', "strategy; one of default, huffman-only, huffman-rle, or fixed")
	f.set.FlagLong(&f.mlevel, "memory-level", 'M', "memory level; one of default, 1..9")
	f.set.FlagLong(&f.wbits, "window-size-bits", 'W', "base-2 logarithm of window size; one of default, 8..15")
	f.set.FlagLong(&f.dict, "dictionary", 0, "contents of pre-set dictionary, or @filename")
	f.set.FlagLong(&f.verbose, "verbose", 'v', "enable debug logging")
	f.set.FlagLong(&f.trace, "debug", 'D', "enable debug and trace logging")
	return f
}

func (f *compressFlags) parse(args []string) {
	f.set.Parse(subArgs(f.subcommand, args))
	applyLogLevel(f.verbose, f.trace)
}

func (f *compressFlags) input() string {
	rest := f.set.Args()
	if len(rest) > 0 {
		return rest[0]
	}
	return ""
}

func (f *compressFlags) options() []flate.Option {
	opts := []flate.Option{
		flate.WithTracers(flate.Log(log.Logger)),
		flate.WithStrategy(f.strat.Value),
		flate.WithCompressLevel(f.clevel.Value),
		flate.WithMemoryLevel(f.mlevel.Value),
		flate.WithWindowBits(f.wbits.Value),
	}
	if dict := resolveDictionary(f.dict); dict != nil {
		opts = append(opts, flate.WithDictionary(dict))
	}
	return opts
}

// cmdDeflate implements `zipflate deflate`.
func cmdDeflate(args []string) int {
	f := newCompressFlags("deflate")
	f.parse(args)
	data := readInputFile(f.input())
	out, err := flate.Deflate(data, f.options()...)
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("flate.Deflate failed")
	}
	writeOutputFile(f.output, out)
	return 0
}

// cmdInflate implements `zipflate inflate`.
func cmdInflate(args []string) int {
	f := newCompressFlags("inflate")
	f.parse(args)
	data := readInputFile(f.input())
	out, err := flate.Inflate(data, f.options()...)
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("flate.Inflate failed")
	}
	writeOutputFile(f.output, out)
	return 0
}

// cmdZlib implements `zipflate zlib`.
func cmdZlib(args []string) int {
	f := newCompressFlags("zlib")
	f.parse(args)
	data := readInputFile(f.input())
	out, err := flate.Zlib(data, f.options()...)
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("flate.Zlib failed")
	}
	writeOutputFile(f.output, out)
	return 0
}

// cmdUnzlib implements `zipflate unzlib`.
func cmdUnzlib(args []string) int {
	f := newCompressFlags("unzlib")
	f.parse(args)
	data := readInputFile(f.input())
	out, err := flate.Unzlib(data, f.options()...)
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("flate.Unzlib failed")
	}
	writeOutputFile(f.output, out)
	return 0
}

// cmdGzip implements `zipflate gzip`, with the gzip-only header flags the
// teacher's single-binary CLI used to expose unconditionally.
func cmdGzip(args []string) int {
	f := newCompressFlags("gzip")
	var fileName, comment string
	var lastModified TimeFlag
	f.set.FlagLong(&fileName, "filename", 0, "filename to store in gzip header")
	f.set.FlagLong(&comment, "comment", 0, "comment to store in gzip header")
	f.set.FlagLong(&lastModified, "last-modified", 0, "last-modified time to store in gzip header")
	f.parse(args)

	data := readInputFile(f.input())

	enc := flate.NewEncoder(append(f.options(), flate.WithFormat(flate.GZIPFormat))...)
	if err := enc.SetHeader(flate.Header{
		FileName:     fileName,
		Comment:      comment,
		LastModified: lastModified.Value,
	}); err != nil {
		log.Logger.Fatal().Err(err).Msg("flate.Encoder.SetHeader failed")
	}
	if _, err := enc.Write(data); err != nil {
		log.Logger.Fatal().Err(err).Msg("flate.Encoder.Write failed")
	}
	out, err := enc.Close()
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("flate.Encoder.Close failed")
	}
	writeOutputFile(f.output, out)
	return 0
}

// cmdGunzip implements `zipflate gunzip`.
func cmdGunzip(args []string) int {
	f := newCompressFlags("gunzip")
	f.parse(args)
	data := readInputFile(f.input())
	out, err := flate.Gunzip(data, f.options()...)
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("flate.Gunzip failed")
	}
	writeOutputFile(f.output, out)
	return 0
}
