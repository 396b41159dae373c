// Package snapshot writes and reads zstd-compressed exports of a running
// world: the generated layers, the enemy population and the player.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/orcwars/internal/agents"
	"github.com/talgya/orcwars/internal/engine"
	"github.com/talgya/orcwars/internal/player"
	"github.com/talgya/orcwars/internal/world"
)

// Version is the current snapshot format.
const Version = 1

// Header is written as a JSON line ahead of the gob body so tools can
// identify a file without decoding it.
type Header struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	Seed    int64  `json:"seed"`
	Tick    uint64 `json:"tick"`
	Digest  string `json:"digest"`
}

// Snapshot is a full world export.
type Snapshot struct {
	Header Header

	Config      world.GenConfig
	Tiles       []world.Tile
	Decorations []world.Decoration
	Agents      []agents.Agent
	Player      *player.Player
	Stats       engine.SimStats
}

// Capture copies the simulation state under its read lock.
func Capture(sim *engine.Simulation, runID string) Snapshot {
	var snap Snapshot
	sim.WithRead(func(s *engine.Simulation) {
		snap.Header = Header{
			Version: Version,
			RunID:   runID,
			Seed:    s.Seed,
			Tick:    s.LastTick,
		}
		if s.WorldMap != nil {
			snap.Header.Digest = s.WorldMap.Digest()
			snap.Config = s.WorldMap.Config
			snap.Tiles = append([]world.Tile(nil), s.WorldMap.Tiles...)
			snap.Decorations = append([]world.Decoration(nil), s.WorldMap.Decorations...)
		}
		snap.Agents = make([]agents.Agent, 0, len(s.Agents))
		for _, a := range s.Agents {
			snap.Agents = append(snap.Agents, *a)
		}
		if s.Player != nil {
			p := *s.Player
			snap.Player = &p
		}
		snap.Stats = engine.ComputeStats(s.Agents, s.Stats)
	})
	return snap
}

// Map rebuilds the world map stored in the snapshot.
func (s Snapshot) Map() *world.Map {
	return world.RestoreMap(s.Config, s.Tiles, s.Decorations)
}

// Write stores snap at path, creating parent directories.
func Write(path string, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := encode(f, snap); err != nil {
		return err
	}
	return f.Close()
}

// encode writes the header line and gob body through a zstd encoder. The
// encoder is closed on every path.
func encode(w io.Writer, snap Snapshot) error {
	hb, err := json.Marshal(snap.Header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)
	err = func() error {
		if _, err := bw.Write(hb); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
			return fmt.Errorf("gob encode: %w", err)
		}
		return bw.Flush()
	}()
	if cerr := enc.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadHeader decodes only the leading header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

// Read loads a snapshot written by Write.
func Read(path string) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}
