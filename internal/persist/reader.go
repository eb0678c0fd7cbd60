package persist

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/outpost-sim/server/internal/world"
)

// Reader loads a save into an empty *world.Tx, fabricating each object
// through the same typed ops.go constructors live code uses (no back door
// that could leave the attachment tree inconsistent), and resolving
// cross-references by stable id in dependency order: planes, clients,
// terrain chunks, entities, structures, inventories. On any error it
// undoes every object it fabricated this pass, per spec.md 7's "cleanup
// path that undoes every partial creation", grounded in save.rs's
// check_objs+cleanup.
type Reader struct {
	log *slog.Logger

	created []created
}

type createdClass int

const (
	createdInventory createdClass = iota
	createdStructure
	createdEntity
	createdChunk
	createdClient
	createdPlane
)

type created struct {
	class createdClass
	id    world.TransientID
}

func NewReader(log *slog.Logger) *Reader {
	if log == nil {
		log = slog.Default()
	}
	return &Reader{log: log}
}

// LoadWorld populates tx from kv. tx must belong to an otherwise-empty
// world: Reader does not check for or merge with pre-existing objects.
func (r *Reader) LoadWorld(kv KV, tx *world.Tx) error {
	planeByStable := map[world.StableID]world.TransientID{}
	clientByStable := map[world.StableID]world.TransientID{}
	chunkByStable := map[world.StableID]world.TransientID{}
	entityByStable := map[world.StableID]world.TransientID{}
	structureByStable := map[world.StableID]world.TransientID{}

	type pendingPawn struct {
		client world.TransientID
		pawn   world.StableID
	}
	var pawns []pendingPawn

	fail := func(err error) error {
		r.cleanup(tx)
		return err
	}

	var rangeErr error
	kv.Range(byte(classPlane), func(k, v []byte) bool {
		sid := stableIDFromKey(k)
		rec, err := decodePlane(v)
		if err != nil {
			rangeErr = err
			return false
		}
		id := tx.CreatePlane(rec.name)
		tx.BindPlaneStable(id, sid)
		r.record(createdPlane, id)
		planeByStable[sid] = id
		for pos, csid := range rec.savedChunks {
			if err := tx.RestoreSavedChunk(id, pos, csid); err != nil {
				rangeErr = err
				return false
			}
		}
		return true
	})
	if rangeErr != nil {
		return fail(rangeErr)
	}

	kv.Range(byte(classClient), func(k, v []byte) bool {
		sid := stableIDFromKey(k)
		rec, err := decodeClient(v)
		if err != nil {
			rangeErr = err
			return false
		}
		id, err := tx.CreateClient(rec.wireID, rec.name)
		if err != nil {
			rangeErr = fmt.Errorf("persist: fabricating client %s: %w", sid, err)
			return false
		}
		tx.BindClientStable(id, sid)
		r.record(createdClient, id)
		clientByStable[sid] = id
		if err := tx.RestoreClientInput(id, rec.input); err != nil {
			rangeErr = err
			return false
		}
		if rec.hasPawn {
			pawns = append(pawns, pendingPawn{client: id, pawn: rec.pawn})
		}
		return true
	})
	if rangeErr != nil {
		return fail(rangeErr)
	}

	kv.Range(byte(classTerrainChunk), func(k, v []byte) bool {
		sid := stableIDFromKey(k)
		rec, err := decodeTerrainChunk(v)
		if err != nil {
			rangeErr = err
			return false
		}
		planeID, ok := planeByStable[rec.plane]
		if !ok {
			rangeErr = fmt.Errorf("persist: terrain chunk %s references undefined plane %s", sid, rec.plane)
			return false
		}
		id, err := tx.CreateTerrainChunk(planeID, rec.pos)
		if err != nil {
			rangeErr = fmt.Errorf("persist: fabricating terrain chunk %s: %w", sid, err)
			return false
		}
		tx.BindTerrainChunkStable(id, sid)
		r.record(createdChunk, id)
		chunkByStable[sid] = id
		if err := tx.RestoreTerrainChunkRaw(id, rec.blocks); err != nil {
			rangeErr = err
			return false
		}
		return true
	})
	if rangeErr != nil {
		return fail(rangeErr)
	}

	kv.Range(byte(classEntity), func(k, v []byte) bool {
		sid := stableIDFromKey(k)
		rec, err := decodeEntity(v)
		if err != nil {
			rangeErr = err
			return false
		}
		planeID, ok := planeByStable[rec.plane]
		if !ok {
			rangeErr = fmt.Errorf("persist: entity %s references undefined plane %s", sid, rec.plane)
			return false
		}
		attachment := world.WorldAttachment()
		if rec.isClientOwned {
			clientID, ok := clientByStable[rec.attachClient]
			if !ok {
				rangeErr = fmt.Errorf("persist: entity %s references undefined client %s", sid, rec.attachClient)
				return false
			}
			attachment = world.ClientAttachment(clientID)
		}
		id, err := tx.CreateEntity(planeID, rec.motion.StartPos, attachment)
		if err != nil {
			rangeErr = fmt.Errorf("persist: fabricating entity %s: %w", sid, err)
			return false
		}
		tx.BindEntityStable(id, sid)
		r.record(createdEntity, id)
		entityByStable[sid] = id
		facing := mgl64.Vec3{rec.facing[0], rec.facing[1], rec.facing[2]}
		vel := mgl64.Vec3{rec.targetVelocity[0], rec.targetVelocity[1], rec.targetVelocity[2]}
		if err := tx.RestoreEntityState(id, rec.motion, rec.appearance, rec.animationID, facing, vel); err != nil {
			rangeErr = err
			return false
		}
		return true
	})
	if rangeErr != nil {
		return fail(rangeErr)
	}

	for _, p := range pawns {
		pawnID, ok := entityByStable[p.pawn]
		if !ok {
			return fail(fmt.Errorf("persist: client references undefined pawn %s", p.pawn))
		}
		if err := tx.SetPawn(p.client, pawnID); err != nil {
			return fail(fmt.Errorf("persist: binding pawn: %w", err))
		}
	}

	kv.Range(byte(classStructure), func(k, v []byte) bool {
		sid := stableIDFromKey(k)
		rec, err := decodeStructure(v)
		if err != nil {
			rangeErr = err
			return false
		}
		planeID, ok := planeByStable[rec.plane]
		if !ok {
			rangeErr = fmt.Errorf("persist: structure %s references undefined plane %s", sid, rec.plane)
			return false
		}
		attachment := world.PlaneAttachment(planeID)
		if rec.isChunkOwned {
			chunkID, ok := chunkByStable[rec.attachChunk]
			if !ok {
				rangeErr = fmt.Errorf("persist: structure %s references undefined chunk %s", sid, rec.attachChunk)
				return false
			}
			attachment = world.ChunkAttachment(chunkID)
		}
		id, err := tx.CreateStructure(planeID, rec.pos, rec.template, attachment)
		if err != nil {
			rangeErr = fmt.Errorf("persist: fabricating structure %s: %w", sid, err)
			return false
		}
		tx.BindStructureStable(id, sid)
		r.record(createdStructure, id)
		structureByStable[sid] = id
		if err := tx.RestoreStructureFlags(id, rec.flags); err != nil {
			rangeErr = err
			return false
		}
		return true
	})
	if rangeErr != nil {
		return fail(rangeErr)
	}

	kv.Range(byte(classInventory), func(k, v []byte) bool {
		sid := stableIDFromKey(k)
		rec, err := decodeInventory(v)
		if err != nil {
			rangeErr = err
			return false
		}
		var attachment world.Attachment
		switch rec.attachKind {
		case invAttachWorld:
			attachment = world.WorldAttachment()
		case invAttachClient:
			id, ok := clientByStable[rec.attachID]
			if !ok {
				rangeErr = fmt.Errorf("persist: inventory %s references undefined client %s", sid, rec.attachID)
				return false
			}
			attachment = world.ClientAttachment(id)
		case invAttachEntity:
			id, ok := entityByStable[rec.attachID]
			if !ok {
				rangeErr = fmt.Errorf("persist: inventory %s references undefined entity %s", sid, rec.attachID)
				return false
			}
			attachment = world.EntityAttachment(id)
		case invAttachStructure:
			id, ok := structureByStable[rec.attachID]
			if !ok {
				rangeErr = fmt.Errorf("persist: inventory %s references undefined structure %s", sid, rec.attachID)
				return false
			}
			attachment = world.StructureAttachment(id)
		default:
			rangeErr = fmt.Errorf("persist: inventory %s has invalid attachment kind", sid)
			return false
		}
		id, err := tx.CreateInventory(len(rec.slots), attachment)
		if err != nil {
			rangeErr = fmt.Errorf("persist: fabricating inventory %s: %w", sid, err)
			return false
		}
		tx.BindInventoryStable(id, sid)
		r.record(createdInventory, id)
		if err := tx.RestoreInventorySlots(id, rec.slots); err != nil {
			rangeErr = err
			return false
		}
		return true
	})
	if rangeErr != nil {
		return fail(rangeErr)
	}

	return nil
}

func (r *Reader) record(c createdClass, id world.TransientID) {
	r.created = append(r.created, created{class: c, id: id})
}

// cleanup destroys every object this Reader fabricated, in reverse
// creation order, so a child is always gone before code revisits its
// parent's child list. Errors are logged, never propagated (spec.md 7).
func (r *Reader) cleanup(tx *world.Tx) {
	for i := len(r.created) - 1; i >= 0; i-- {
		c := r.created[i]
		var err error
		switch c.class {
		case createdInventory:
			err = tx.DestroyInventory(c.id)
		case createdStructure:
			err = tx.DestroyStructure(c.id)
		case createdEntity:
			err = tx.DestroyEntity(c.id)
		case createdChunk:
			err = tx.DestroyTerrainChunk(c.id)
		case createdClient:
			err = tx.DestroyClient(c.id)
		case createdPlane:
			err = tx.DestroyPlane(c.id)
		}
		if err != nil {
			r.log.Warn("persist: cleanup failed to destroy partially-loaded object", "class", c.class, "id", c.id, "err", err)
		}
	}
	r.created = nil
}

func stableIDFromKey(k []byte) world.StableID {
	var sid world.StableID
	copy(sid[:], k[1:])
	return sid
}
