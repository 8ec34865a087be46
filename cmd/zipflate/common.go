package main

import (
	"io/ioutil"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// applyLogLevel raises the global zerolog level from the default Info,
// mirroring the teacher's --verbose/--debug flags.
func applyLogLevel(verbose, trace bool) {
	switch {
	case trace:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// readInputFile reads a whole input file into memory. An empty string or
// "-" reads standard input instead; every subcommand operates on complete
// buffers, never a stream, because the library underneath is synchronous.
func readInputFile(name string) []byte {
	if name == "" || name == "-" {
		data, err := ioutil.ReadAll(os.Stdin)
		if err != nil {
			log.Logger.Fatal().Err(err).Msg("failed to read standard input")
		}
		return data
	}

	data, err := ioutil.ReadFile(name)
	if err != nil {
		log.Logger.Fatal().Str("filename", name).Err(err).Msg("ioutil.ReadFile failed")
	}
	return data
}

// writeOutputFile writes a whole output buffer in one call. An empty string
// or "-" writes to standard output instead.
func writeOutputFile(name string, data []byte) {
	if name == "" || name == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			log.Logger.Fatal().Err(err).Msg("failed to write standard output")
		}
		return
	}

	if err := ioutil.WriteFile(name, data, 0666); err != nil {
		log.Logger.Fatal().Str("filename", name).Err(err).Msg("ioutil.WriteFile failed")
	}
}

// resolveDictionary implements the "@filename" convention the teacher's
// --dictionary flag used: a leading '@' names a file whose contents become
// the dictionary, anything else is the dictionary's literal bytes.
func resolveDictionary(flagDict string) []byte {
	if flagDict == "" {
		return nil
	}
	if flagDict[0] == '@' {
		raw, err := ioutil.ReadFile(flagDict[1:])
		if err != nil {
			log.Logger.Fatal().Str("filename", flagDict[1:]).Err(err).Msg("ioutil.ReadFile failed")
		}
		return raw
	}
	return []byte(flagDict)
}

// subArgs prepends a synthetic program-name element so a per-subcommand
// getopt.Set can Parse args the same way the package-level getopt.Parse
// parses os.Args.
func subArgs(subcommand string, args []string) []string {
	out := make([]string, 0, len(args)+1)
	out = append(out, "zipflate "+subcommand)
	out = append(out, args...)
	return out
}
