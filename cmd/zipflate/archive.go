package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/chronos-tachyon/zipflate/zip"
	getopt "github.com/pborman/getopt/v2"
	"github.com/rs/zerolog/log"
)

// cmdZip implements `zipflate zip`, archiving one or more files or
// directories named on the command line.
func cmdZip(args []string) int {
	set := getopt.New()
	var output, comment, method string
	var verbose, trace bool
	set.SetParameters("<path> [<path> ...]")
	set.FlagLong(&output, "output", 'o', "output file (default: standard output)")
	set.FlagLong(&comment, "comment", 0, "archive comment")
	set.FlagLong(&method, "method", 'm', "default compression method; one of store or deflate")
	set.FlagLong(&verbose, "verbose", 'v', "enable debug logging")
	set.FlagLong(&trace, "debug", 'D', "enable debug and trace logging")
	set.Parse(subArgs("zip", args))
	applyLogLevel(verbose, trace)

	paths := set.Args()
	if len(paths) == 0 {
		log.Logger.Fatal().Msg("zipflate zip requires at least one input path")
	}

	if method == "" {
		method = "deflate"
	}
	if _, err := zip.ParseMethod(method); err != nil {
		log.Logger.Fatal().Str("method", method).Err(err).Msg("unrecognized compression method")
	}

	children, err := buildChildren(paths)
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("failed to read input path")
	}

	root := zip.Dir(children, zip.EntryOptions{})
	entries, err := zip.Flatten(root, zip.EntryOptions{Compression: method})
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("zip.Flatten failed")
	}

	var opts []zip.Option
	if comment != "" {
		opts = append(opts, zip.WithArchiveComment(comment))
	}
	out, err := zip.Write(entries, opts...)
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("zip.Write failed")
	}
	writeOutputFile(output, out)
	return 0
}

// cmdUnzip implements `zipflate unzip`, extracting an archive into a
// destination directory.
func cmdUnzip(args []string) int {
	set := getopt.New()
	var directory string
	var verbose, trace bool
	set.SetParameters("[<archive>]")
	set.FlagLong(&directory, "directory", 'd', "destination directory (default: current directory)")
	set.FlagLong(&verbose, "verbose", 'v', "enable debug logging")
	set.FlagLong(&trace, "debug", 'D', "enable debug and trace logging")
	set.Parse(subArgs("unzip", args))
	applyLogLevel(verbose, trace)

	if directory == "" {
		directory = "."
	}

	input := ""
	if rest := set.Args(); len(rest) > 0 {
		input = rest[0]
	}

	data := readInputFile(input)
	entries, err := zip.Read(data)
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("zip.Read failed")
	}

	for _, ent := range entries {
		if err := extractEntry(directory, ent); err != nil {
			log.Logger.Fatal().Str("name", ent.Name).Err(err).Msg("failed to extract entry")
		}
	}
	return 0
}

// buildChildren turns each command-line path into a named zip.Child,
// recursing into directories, whose entries are taken in the sorted-by-name
// order that ioutil.ReadDir returns.
func buildChildren(paths []string) ([]zip.Child, error) {
	children := make([]zip.Child, 0, len(paths))
	for _, p := range paths {
		node, err := buildNode(p)
		if err != nil {
			return nil, err
		}
		children = append(children, zip.Child{Name: filepath.Base(filepath.Clean(p)), Node: node})
	}
	return children, nil
}

func buildNode(path string) (zip.Node, error) {
	info, err := os.Stat(path)
	if err != nil {
		return zip.Node{}, err
	}

	if info.IsDir() {
		dirEntries, err := ioutil.ReadDir(path)
		if err != nil {
			return zip.Node{}, err
		}
		children := make([]zip.Child, 0, len(dirEntries))
		for _, de := range dirEntries {
			child, err := buildNode(filepath.Join(path, de.Name()))
			if err != nil {
				return zip.Node{}, err
			}
			children = append(children, zip.Child{Name: de.Name(), Node: child})
		}
		return zip.Dir(children, zip.EntryOptions{ModTime: info.ModTime()}), nil
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return zip.Node{}, err
	}
	return zip.File(data, zip.EntryOptions{ModTime: info.ModTime()}), nil
}

// extractEntry writes one archive Entry beneath destDir, refusing any name
// whose path components would resolve outside destDir.
func extractEntry(destDir string, ent zip.Entry) error {
	if !isSafeEntryName(ent.Name) {
		return fmt.Errorf("entry name %q escapes the destination directory", ent.Name)
	}
	target := filepath.Join(destDir, filepath.FromSlash(ent.Name))

	if ent.IsDir {
		return os.MkdirAll(target, 0777)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0777); err != nil {
		return err
	}
	if err := ioutil.WriteFile(target, ent.Data, 0666); err != nil {
		return err
	}
	if !ent.ModTime.IsZero() {
		_ = os.Chtimes(target, ent.ModTime, ent.ModTime)
	}
	return nil
}

func isSafeEntryName(name string) bool {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return false
	}
	for _, comp := range strings.Split(name, "/") {
		if comp == ".." {
			return false
		}
	}
	return true
}
