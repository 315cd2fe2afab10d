package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/herohde/gambit/pkg/analysis"
	"github.com/herohde/gambit/pkg/pgn"
	"github.com/herohde/gambit/pkg/uci"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
)

var version = build.NewVersion(0, 9, 0)

var (
	engine   = flag.String("engine", "", "Path to a UCI engine binary (default: first well-known engine on $PATH)")
	index    = flag.Int("game", 0, "Index of the game to analyse within the PGN file")
	movetime = flag.Duration("movetime", 2*time.Second, "Think time per position")
	hash     = flag.Int("hash", 256, "Engine hash table size in MB")
	threads  = flag.Int("threads", 1, "Engine search threads")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: gambit [options] <file.pgn>

GAMBIT analyses chess games with an external UCI engine and reports
critical positions, where the evaluation swings sharply.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logw.Infof(ctx, "gambit %v", version)

	path := *engine
	if path == "" {
		found, ok := uci.DefaultEnginePath()
		if !ok {
			logw.Exitf(ctx, "No engine found. Use -engine to name a UCI engine binary")
		}
		path = found
	}

	games, err := pgn.ParseFile(ctx, flag.Arg(0))
	if err != nil {
		logw.Exitf(ctx, "Failed to parse %v: %v", flag.Arg(0), err)
	}
	if *index < 0 || *index >= len(games) {
		logw.Exitf(ctx, "Game index %v out of range: %v games in %v", *index, len(games), flag.Arg(0))
	}
	g := games[*index]

	e, err := uci.NewEngine(path)
	if err != nil {
		logw.Exitf(ctx, "Engine unavailable: %v", err)
	}
	if err := e.Prepare(ctx, map[string]string{
		"Hash":    strconv.Itoa(*hash),
		"Threads": strconv.Itoa(*threads),
	}); err != nil {
		logw.Exitf(ctx, "Engine handshake failed: %v", err)
	}
	defer e.Quit(ctx)

	logw.Infof(ctx, "Analysing %v - %v (%v plies) with %v", g.Tags.White, g.Tags.Black, len(g.Moves()), e.Name())

	critical, err := analysis.FindCriticalPositions(ctx, e, g, *movetime)
	if err != nil {
		logw.Exitf(ctx, "Analysis failed: %v", err)
	}

	if len(critical) == 0 {
		fmt.Println("No critical positions found.")
		return
	}
	for _, c := range critical {
		fmt.Println(c)
	}
}
