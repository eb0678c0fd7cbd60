package persist

import (
	"fmt"
	"log/slog"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/goleveldb/leveldb/util"
	"github.com/klauspost/compress/zstd"

	"github.com/outpost-sim/server/internal/world"
)

// Store is the on-disk save database: a goleveldb instance keyed by this
// package's class-tagged stable ids (SPEC_FULL.md 4.14). Unlike
// internal/transport's websocket/zstd pairing, nothing in the teacher or
// the rest of the example pack exercises goleveldb past a single
// errors.Is(err, leveldb.ErrNotFound) comparison (server/world/world.go
// and oriumgames-pile's provider.go both do no more than that), so Store's
// direct use of leveldb.OpenFile/DB.Put/DB.Get/DB.NewIterator is grounded
// on goleveldb's own public API rather than on a richer teacher usage
// pattern — recorded explicitly in DESIGN.md.
type Store struct {
	db  *leveldb.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens (creating if absent) a save database at dir.
func Open(dir string) (*Store, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{Compression: opt.NoCompression})
	if err != nil {
		return nil, fmt.Errorf("persist: open %s: %w", dir, err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("persist: init zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		enc.Close()
		return nil, fmt.Errorf("persist: init zstd decoder: %w", err)
	}
	return &Store{db: db, enc: enc, dec: dec}, nil
}

// Close releases the database handle and the zstd encoder/decoder pair.
func (s *Store) Close() error {
	s.dec.Close()
	s.enc.Close()
	return s.db.Close()
}

// Put writes one record. Terrain-chunk records are the only bulky payload
// (a whole chunk's worth of run-length-encoded blocks), so only that class
// is passed through zstd before hitting the database, per SPEC_FULL.md
// 4.14; every other class's records are small enough that compressing
// them would only add CPU for no size benefit.
func (s *Store) Put(key, value []byte) error {
	if len(key) > 0 && class(key[0]) == classTerrainChunk {
		value = s.enc.EncodeAll(value, nil)
	}
	return s.db.Put(key, value, nil)
}

// Range visits every record whose key starts with the given class byte, in
// key order (and so in stable-id order, since the class byte is a fixed
// one-byte prefix).
func (s *Store) Range(prefix byte, fn func(key, value []byte) bool) error {
	it := s.db.NewIterator(util.BytesPrefix([]byte{prefix}), nil)
	defer it.Release()
	for it.Next() {
		value := it.Value()
		if class(prefix) == classTerrainChunk {
			decoded, err := s.dec.DecodeAll(value, nil)
			if err != nil {
				return fmt.Errorf("persist: decompress terrain chunk record: %w", err)
			}
			value = decoded
		}
		// it.Key()/it.Value() alias the iterator's internal buffer and are
		// invalidated by the next Next() call, so fn must not retain them
		// past returning.
		keyCopy := append([]byte(nil), it.Key()...)
		valueCopy := append([]byte(nil), value...)
		if !fn(keyCopy, valueCopy) {
			break
		}
	}
	return it.Error()
}

// Save implements dispatch.Saver: a full save pass over the live world.
func (s *Store) Save(w *world.World) error {
	var err error
	w.RunNow(func(tx *world.Tx) {
		err = NewWriter(tx, s).SaveWorld()
	})
	return err
}

// Load populates an empty world from this database. Intended for server
// startup, before the event loop begins serving requests.
func (s *Store) Load(w *world.World, log *slog.Logger) error {
	var err error
	w.RunNow(func(tx *world.Tx) {
		err = NewReader(log).LoadWorld(s, tx)
	})
	return err
}
