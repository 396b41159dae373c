// Command snapinfo prints a summary of a world snapshot file.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/talgya/orcwars/internal/agents"
	"github.com/talgya/orcwars/internal/snapshot"
	"github.com/talgya/orcwars/internal/world"
)

func main() {
	headerOnly := flag.Bool("header", false, "print only the header")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: snapinfo [-header] <file.snap.zst>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	if *headerOnly {
		h, err := snapshot.ReadHeader(path)
		if err != nil {
			slog.Error("read header failed", "path", path, "error", err)
			os.Exit(1)
		}
		fmt.Printf("version=%d run=%s seed=%d tick=%d digest=%s\n", h.Version, h.RunID, h.Seed, h.Tick, h.Digest)
		return
	}

	snap, err := snapshot.Read(path)
	if err != nil {
		slog.Error("read snapshot failed", "path", path, "error", err)
		os.Exit(1)
	}

	m := snap.Map()
	fmt.Printf("run:     %s\n", snap.Header.RunID)
	fmt.Printf("seed:    %d\n", snap.Header.Seed)
	fmt.Printf("tick:    %s\n", humanize.Comma(int64(snap.Header.Tick)))
	fmt.Printf("grid:    %dx%d (%s tiles, %s decorations)\n",
		snap.Config.Rows, snap.Config.Cols,
		humanize.Comma(int64(m.TileCount())), humanize.Comma(int64(len(m.Decorations))))
	if d := m.Digest(); d != snap.Header.Digest {
		fmt.Printf("digest:  MISMATCH header=%s map=%s\n", snap.Header.Digest, d)
	} else {
		fmt.Printf("digest:  %s\n", d)
	}
	counts := world.TileCounts(m)
	for c := world.CategoryDirt; c <= world.CategoryGrass; c++ {
		fmt.Printf("  %-10s %s\n", world.CategoryName(c), humanize.Comma(int64(counts[c])))
	}

	var elite, alive int
	for i := range snap.Agents {
		a := &snap.Agents[i]
		if !a.Alive() {
			continue
		}
		alive++
		if a.Kind == agents.KindElite {
			elite++
		}
	}
	fmt.Printf("agents:  %d alive (%d elite), %d spawned, %d killed\n",
		alive, elite, snap.Stats.TotalSpawned, snap.Stats.TotalKilled)
	if p := snap.Player; p != nil {
		fmt.Printf("player:  (%.0f, %.0f) health=%d stamina=%.1f\n", p.Position.X, p.Position.Y, p.Health, p.Stamina)
	}
}
