// Package journal keeps an audit trail of found coins and the outcome of their submission.
package journal

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
	xdr "github.com/nullstyle/go-xdr/xdr3"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"go.uber.org/zap"

	"github.com/spacemeshos/coinminer/logging"
)

var entryPrefix = []byte("found/")

// Entry is a found coin together with what the service said about it.
type Entry struct {
	ID         string
	FoundAt    int64
	CoinID     string
	Difficulty uint32
	Nonce      uint64
	Blob       string
	MinerID    string
	Proxy      string
	Submitted  bool
	StatusCode int32
	Response   string
	Error      string
}

func (e *Entry) Time() time.Time {
	return time.Unix(0, e.FoundAt)
}

type Journal struct {
	db *leveldb.DB
}

// Open opens (or creates) the journal database at dbPath.
func Open(dbPath string) (*Journal, error) {
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal @ %s: %w", dbPath, err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores e. A missing ID or found time is filled in.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.FoundAt == 0 {
		e.FoundAt = time.Now().UnixNano()
	}
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return e, fmt.Errorf("invalid entry id %q: %w", e.ID, err)
	}

	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, &e); err != nil {
		return e, fmt.Errorf("serializing entry: %w", err)
	}
	if err := j.db.Put(entryKey(e.FoundAt, id), buf.Bytes(), &opt.WriteOptions{Sync: true}); err != nil {
		return e, fmt.Errorf("storing entry in DB: %w", err)
	}
	logging.FromContext(ctx).Debug("journal entry recorded", zap.String("id", e.ID), zap.String("coin_id", e.CoinID))
	return e, nil
}

// List returns up to limit entries ordered by found time. A limit of 0 returns all of them.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	iter := j.db.NewIterator(util.BytesPrefix(entryPrefix), nil)
	defer iter.Release()

	var entries []Entry
	for iter.Next() {
		var e Entry
		if _, err := xdr.Unmarshal(bytes.NewReader(iter.Value()), &e); err != nil {
			logging.FromContext(ctx).Warn("skipping corrupted journal entry", zap.Binary("key", iter.Key()), zap.Error(err))
			continue
		}
		entries = append(entries, e)
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterating journal: %w", err)
	}
	return entries, nil
}

func entryKey(foundAt int64, id uuid.UUID) []byte {
	key := make([]byte, 0, len(entryPrefix)+8+len(id))
	key = append(key, entryPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(foundAt))
	return append(key, id[:]...)
}
