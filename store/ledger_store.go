// Package store persists ledger snapshots in leveldb, on behalf of the full node.
package store

import (
	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/Luismorlan/utxo_ledger/utils"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/syndtr/goleveldb/leveldb"
	ldbErrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	utxoPrefix = []byte("utxo/")
	heightKey  = []byte("meta/height")
)

// LedgerStore is a thin wrapper around leveldb holding one ledger snapshot and the
// height of the epoch that produced it.
type LedgerStore struct {
	ldb *leveldb.DB
}

// storedOutput is the on-disk form of an output.
type storedOutput struct {
	Value     int64  `json:"value"`
	PublicKey []byte `json:"public_key"`
}

// Open opens the leveldb instance at path, creating it if needed.
func Open(path string) (*LedgerStore, error) {
	ldb, err := leveldb.OpenFile(path, nil)

	// If the database is corrupted, attempt to recover.
	if _, corrupted := err.(*ldbErrors.ErrCorrupted); corrupted {
		log.Warn().Str("path", path).Err(err).Msg("leveldb corruption detected")
		ldb, err = leveldb.RecoverFile(path, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to recover leveldb at %s", path)
		}
		log.Warn().Str("path", path).Msg("leveldb recovered from corruption")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open leveldb at %s", path)
	}
	return &LedgerStore{ldb: ldb}, nil
}

// OpenInMemory returns a store that lives only as long as the process.
func OpenInMemory() (*LedgerStore, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open in-memory leveldb")
	}
	return &LedgerStore{ldb: ldb}, nil
}

// Close closes the leveldb instance.
func (s *LedgerStore) Close() error {
	return s.ldb.Close()
}

// utxoKey is the prefix, the hash length, the hash and the output index.
func utxoKey(u model.UTXO) []byte {
	key := append([]byte{}, utxoPrefix...)
	key = append(key, utils.LengthPrefixed([]byte(u.PrevTxHash))...)
	return append(key, utils.Int64ToBytes(u.Index)...)
}

func parseUtxoKey(key []byte) (model.UTXO, error) {
	rest := key[len(utxoPrefix):]
	if len(rest) < 16 {
		return model.UTXO{}, errors.Errorf("malformed utxo key %x", key)
	}
	hashLen := int(bytesToInt64(rest[:8]))
	if hashLen < 0 || len(rest) != 16+hashLen {
		return model.UTXO{}, errors.Errorf("malformed utxo key %x", key)
	}
	return model.UTXO{
		PrevTxHash: string(rest[8 : 8+hashLen]),
		Index:      bytesToInt64(rest[8+hashLen:]),
	}, nil
}

func bytesToInt64(b []byte) int64 {
	var v uint64
	for _, c := range b[:8] {
		v = v<<8 | uint64(c)
	}
	return int64(v)
}

// SaveLedger replaces the stored snapshot with the content of l, atomically.
func (s *LedgerStore) SaveLedger(l *model.Ledger, height int64) error {
	batch := new(leveldb.Batch)

	iter := s.ldb.NewIterator(util.BytesPrefix(utxoPrefix), nil)
	for iter.Next() {
		batch.Delete(append([]byte{}, iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return errors.Wrap(err, "failed to scan stored ledger")
	}

	var encodeErr error
	l.Range(func(u model.UTXO, o model.Output) bool {
		value, err := json.Marshal(storedOutput{Value: o.Value, PublicKey: o.PublicKey})
		if err != nil {
			encodeErr = errors.Wrapf(err, "failed to encode %s", u)
			return false
		}
		batch.Put(utxoKey(u), value)
		return true
	})
	if encodeErr != nil {
		return encodeErr
	}
	batch.Put(heightKey, utils.Int64ToBytes(height))

	if err := s.ldb.Write(batch, nil); err != nil {
		return errors.Wrap(err, "failed to write ledger")
	}
	return nil
}

// LoadLedger returns the stored snapshot and its height. found is false when nothing
// was ever saved.
func (s *LedgerStore) LoadLedger() (snapshot map[model.UTXO]model.Output, height int64, found bool, err error) {
	rawHeight, err := s.ldb.Get(heightKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, errors.Wrap(err, "failed to read ledger height")
	}
	if len(rawHeight) != 8 {
		return nil, 0, false, errors.Errorf("malformed ledger height %x", rawHeight)
	}
	height = bytesToInt64(rawHeight)

	snapshot = make(map[model.UTXO]model.Output)
	iter := s.ldb.NewIterator(util.BytesPrefix(utxoPrefix), nil)
	defer iter.Release()
	for iter.Next() {
		u, err := parseUtxoKey(iter.Key())
		if err != nil {
			return nil, 0, false, err
		}
		var o storedOutput
		if err := json.Unmarshal(iter.Value(), &o); err != nil {
			return nil, 0, false, errors.Wrapf(err, "failed to decode %s", u)
		}
		snapshot[u] = model.Output{Value: o.Value, PublicKey: o.PublicKey}
	}
	if err := iter.Error(); err != nil {
		return nil, 0, false, errors.Wrap(err, "failed to scan stored ledger")
	}
	return snapshot, height, true, nil
}
