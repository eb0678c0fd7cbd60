package main

import (
	"log/slog"

	"github.com/outpost-sim/server/internal/dispatch"
	"github.com/outpost-sim/server/internal/vec"
	"github.com/outpost-sim/server/internal/world"
)

// defaultScript is the minimal dispatch.Script this binary boots with.
// spec.md 9 deliberately names no specific scripting language or game
// content (SPEC_FULL.md's carried-forward Non-goals) — every callback here
// is the smallest behavior that lets a client connect, spawn, and see a
// world, not a game. A real deployment replaces this with whatever VM or
// content layer it embeds; dispatch.Script is the seam that swap happens
// through, unchanged.
type defaultScript struct {
	w     *world.World
	plane world.TransientID
	log   *slog.Logger
}

func newDefaultScript(w *world.World, plane world.TransientID, log *slog.Logger) *defaultScript {
	return &defaultScript{w: w, plane: plane, log: log}
}

// Login spawns a fresh pawn entity on the default plane and attaches it to
// the client — no account/appearance persistence, since that belongs to
// whatever content layer replaces this script.
func (s *defaultScript) Login(tx *world.Tx, client dispatch.ClientID, name string) (world.TransientID, bool) {
	c, err := tx.CreateClient(uint64(client), name)
	if err != nil {
		s.log.Error("defaultScript: CreateClient failed", "err", err)
		return 0, false
	}
	pawn, err := tx.CreateEntity(s.plane, vec.V3{}, world.ClientAttachment(c))
	if err != nil {
		s.log.Error("defaultScript: CreateEntity failed", "err", err)
		return 0, false
	}
	if err := tx.SetPawn(c, pawn); err != nil {
		s.log.Error("defaultScript: SetPawn failed", "err", err)
		return 0, false
	}
	return pawn, true
}

func (s *defaultScript) ChatCommand(*world.Tx, dispatch.ClientID, string) bool { return false }

func (s *defaultScript) Interact(*world.Tx, dispatch.ClientID, dispatch.Interact)       {}
func (s *defaultScript) UseItem(*world.Tx, dispatch.ClientID, dispatch.UseItem)         {}
func (s *defaultScript) UseAbility(*world.Tx, dispatch.ClientID, dispatch.UseAbility)   {}
func (s *defaultScript) Timeout(*world.Tx, dispatch.ClientID, int64)                    {}
func (s *defaultScript) ApplyStructureExtra(*world.Tx, world.TransientID, []byte)       {}
func (s *defaultScript) EntityDestroyed(*world.Tx, world.TransientID)                   {}

// GenerateChunk is terraingen's answer arriving back on the event loop.
// Decoding result.Blocks into actual terrain is, like the rest of this
// script, content this repository does not prescribe (spec.md 9's
// "terrain generation as oracle" only asks that a request eventually get
// an answer); a failed generation is logged and otherwise dropped rather
// than left to retry forever, since the chunk was already created ready
// with its default terrain by the engine before the async request was
// even issued.
func (s *defaultScript) GenerateChunk(_ *world.Tx, plane world.TransientID, pos vec.V2, result dispatch.GenChunkResult) {
	if result.Err != nil {
		s.log.Error("defaultScript: chunk generation failed", "plane", plane, "pos", pos, "err", result.Err)
	}
}
