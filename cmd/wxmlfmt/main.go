// Command wxmlfmt parses a template file and prints its canonical
// stringification to stdout; any diagnostics collected along the way are
// logged to stderr before the output is written.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/wxmlc/wxml/wxml"
)

func main() {
	write := flag.Bool("w", false, "overwrite the input file with its canonical form instead of printing to stdout")
	quiet := flag.Bool("q", false, "suppress diagnostic output on stderr")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: wxmlfmt [-w] [-q] <file.wxml>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	src, err := os.ReadFile(path)
	if err != nil {
		logger.Error("reading template", "path", path, "error", err)
		os.Exit(1)
	}

	tpl, diags := wxml.Parse(path, src)

	if !*quiet {
		for _, d := range diags {
			logger.Warn(d.Kind.String(),
				"path", path,
				"line", d.Range.Start.Line,
				"column", d.Range.Start.Column,
			)
		}
	}

	out := wxml.StringifyTemplate(tpl)

	if *write {
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			logger.Error("writing template", "path", path, "error", err)
			os.Exit(1)
		}
		return
	}
	fmt.Print(out)
}
