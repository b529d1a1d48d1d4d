package query

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/glebarez/sqlite"
)

// spillRow is the on-disk representation of one evicted derived-query
// slot, keyed by its Key's string form (Kind plus a printable Arg).
type spillRow struct {
	Key      string `gorm:"primaryKey;type:varchar(255)"`
	Revision uint64 `gorm:"index"`
	Data     []byte `gorm:"type:blob"`
}

func (spillRow) TableName() string { return "query_spill" }

// Codec serializes and deserializes a derived query's value for
// persistent spill. Each registered derived query kind that wants
// spill support supplies its own, since the engine stores values as
// opaque `any`.
type Codec interface {
	Encode(value any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// PersistentStore is an optional, disk-backed overflow for slots an
// LRU has evicted from memory: instead of discarding a cold derived
// value outright, Engine.EvictFromWithSpill writes it here, and Recover
// reads it back at the cost of a deserialize. Engine.Get does not
// consult the store.
type PersistentStore struct {
	db     *gorm.DB
	codecs map[string]Codec
}

// OpenPersistentStore opens (creating if absent) a SQLite-backed spill
// store at path. An in-memory store can be had with path ":memory:".
func OpenPersistentStore(path string) (*PersistentStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&spillRow{}); err != nil {
		return nil, err
	}
	return &PersistentStore{db: db, codecs: make(map[string]Codec)}, nil
}

// RegisterCodec attaches a Codec for one query kind, enabling spill
// for slots of that kind. Kinds with no registered codec are silently
// skipped by Spill/Recover.
func (p *PersistentStore) RegisterCodec(kind string, codec Codec) {
	p.codecs[kind] = codec
}

// Spill persists key's value at the given revision, overwriting any
// prior spilled value for the same key. A no-op if kind has no
// registered codec.
func (p *PersistentStore) Spill(key Key, rev Revision, value any) error {
	codec, ok := p.codecs[key.Kind]
	if !ok {
		return nil
	}
	data, err := codec.Encode(value)
	if err != nil {
		return err
	}
	row := spillRow{Key: key.String(), Revision: uint64(rev), Data: data}
	return p.db.Save(&row).Error
}

// Recover loads a previously spilled value for key, if one exists and
// a codec is registered for its kind.
func (p *PersistentStore) Recover(key Key) (value any, rev Revision, ok bool, err error) {
	codec, hasCodec := p.codecs[key.Kind]
	if !hasCodec {
		return nil, 0, false, nil
	}
	var row spillRow
	res := p.db.First(&row, "key = ?", key.String())
	if res.Error != nil {
		if res.Error == gorm.ErrRecordNotFound {
			return nil, 0, false, nil
		}
		return nil, 0, false, res.Error
	}
	v, err := codec.Decode(row.Data)
	if err != nil {
		return nil, 0, false, err
	}
	return v, Revision(row.Revision), true, nil
}

// Close releases the underlying database handle.
func (p *PersistentStore) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EvictFromWithSpill behaves like Engine.EvictFrom, but hands the
// evicted slot's last-known value to store before dropping it from
// memory, where PersistentStore.Recover can read it back; a later Get
// recomputes the slot, since Get does not read from the store.
func (e *Engine) EvictFromWithSpill(l *LRU, key Key, store *PersistentStore) {
	e.mu.RLock()
	reg, ok := e.registry[key.Kind]
	e.mu.RUnlock()
	if !ok || reg.input {
		return
	}

	sl := e.slotFor(key)
	sl.mu.Lock()
	value, hasValue, rev := sl.value, sl.hasValue, sl.verifiedAt
	sl.mu.Unlock()

	if hasValue && store != nil {
		if err := store.Spill(key, rev, value); err != nil {
			e.log.Warn("query.spill.failed", zap.String("key", key.String()), zap.Error(err))
		}
	}
	e.slots.Delete(key)
}
