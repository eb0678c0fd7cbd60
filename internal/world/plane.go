package world

import "github.com/outpost-sim/server/internal/vec"

// Limbo is the reserved plane id meaning "not anywhere" (spec.md 3).
// TransientID 0 is never allocated by Store (its counter starts at 1), so
// it is safe to reserve here; objects whose Plane field equals Limbo are
// never visible and are excluded from vision indexing.
const Limbo TransientID = 0

// Plane is a named world: a mapping from chunk position to the terrain
// chunk currently resident there, plus a record of chunks that have been
// saved to disk but are not currently loaded.
type Plane struct {
	Name string

	LoadedChunks map[vec.V2]TransientID
	SavedChunks  map[vec.V2]StableID
}

// NewPlane creates an empty plane with the given name.
func NewPlane(name string) *Plane {
	return &Plane{
		Name:         name,
		LoadedChunks: make(map[vec.V2]TransientID),
		SavedChunks:  make(map[vec.V2]StableID),
	}
}
