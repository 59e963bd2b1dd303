package kv

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/phirasit/nogdb/nerrors"
)

const dataFileName = "data.db"

/*
boltEnv is the bbolt-backed Env implementation. bbolt already provides
named buckets, transactions and cursors, so this is a thin adapter
rather than a storage engine in its own right.
*/
type boltEnv struct {
	path string
	db   *bolt.DB

	// writerMu serialises Begin(ReadWrite). bbolt already serialises
	// writers internally, but Begin itself (not just the eventual write)
	// must block so callers observe single-writer semantics even before
	// they issue their first Put.
	writerMu sync.Mutex
}

/*
Open opens (creating if necessary) a bbolt-backed Env at path/data.db.
*/
func Open(path string, opts *Options) (Env, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, nerrors.New(nerrors.ErrStorage, errors.Wrap(err, "create context directory").Error())
	}

	db, err := bolt.Open(filepath.Join(path, dataFileName), 0o644, &bolt.Options{
		Timeout: 2 * time.Second,
		// Mapping MaxSize up front keeps a commit from having to remap the
		// file, which would block while a read-only transaction is open.
		InitialMmapSize: int(opts.MaxSize),
	})
	if err != nil {
		return nil, nerrors.New(nerrors.ErrStorage, errors.Wrap(err, "open bbolt database").Error())
	}

	return &boltEnv{path: path, db: db}, nil
}

func (e *boltEnv) Path() string {
	return e.path
}

func (e *boltEnv) Begin(mode Mode) (Txn, error) {
	writable := mode == ReadWrite

	if writable {
		e.writerMu.Lock()
	}

	tx, err := e.db.Begin(writable)
	if err != nil {
		if writable {
			e.writerMu.Unlock()
		}
		return nil, nerrors.New(nerrors.ErrStorage, errors.Wrap(err, "begin txn").Error())
	}

	return &boltTxn{env: e, tx: tx, writable: writable}, nil
}

func (e *boltEnv) Close() error {
	if err := e.db.Close(); err != nil {
		return nerrors.New(nerrors.ErrStorage, errors.Wrap(err, "close bbolt database").Error())
	}
	return nil
}

type boltTxn struct {
	env      *boltEnv
	tx       *bolt.Tx
	writable bool
	done     bool
}

func (t *boltTxn) Writable() bool {
	return t.writable
}

func (t *boltTxn) Bucket(name string) (Bucket, error) {
	b := t.tx.Bucket([]byte(name))
	if b == nil {
		return nil, nil
	}
	return &boltBucket{b: b}, nil
}

func (t *boltTxn) CreateBucketIfNotExists(name string) (Bucket, error) {
	if !t.writable {
		return nil, nerrors.New(nerrors.ErrTxnInvalidMode, "cannot create bucket in read-only txn")
	}
	b, err := t.tx.CreateBucketIfNotExists([]byte(name))
	if err != nil {
		return nil, nerrors.New(nerrors.ErrStorage, errors.Wrap(err, "create bucket "+name).Error())
	}
	return &boltBucket{b: b}, nil
}

func (t *boltTxn) DeleteBucket(name string) error {
	if !t.writable {
		return nerrors.New(nerrors.ErrTxnInvalidMode, "cannot delete bucket in read-only txn")
	}
	if err := t.tx.DeleteBucket([]byte(name)); err != nil && err != bolt.ErrBucketNotFound {
		return nerrors.New(nerrors.ErrStorage, errors.Wrap(err, "delete bucket "+name).Error())
	}
	return nil
}

func (t *boltTxn) Commit() error {
	if t.done {
		return nerrors.New(nerrors.ErrTxnRollback, "txn already closed")
	}
	t.done = true

	// bbolt rejects Commit on a read-only tx; the contract here is that
	// committing a reader just releases its snapshot.
	var err error
	if t.writable {
		err = t.tx.Commit()
		t.env.writerMu.Unlock()
	} else {
		err = t.tx.Rollback()
	}
	if err != nil {
		return nerrors.New(nerrors.ErrStorage, errors.Wrap(err, "commit txn").Error())
	}
	return nil
}

func (t *boltTxn) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true

	err := t.tx.Rollback()
	if t.writable {
		t.env.writerMu.Unlock()
	}
	if err != nil && err != bolt.ErrTxClosed {
		return nerrors.New(nerrors.ErrStorage, errors.Wrap(err, "rollback txn").Error())
	}
	return nil
}

type boltBucket struct {
	b *bolt.Bucket
}

func (bb *boltBucket) Get(key []byte) []byte {
	v := bb.b.Get(key)
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (bb *boltBucket) Put(key, value []byte) error {
	if err := bb.b.Put(key, value); err != nil {
		return nerrors.New(nerrors.ErrStorage, errors.Wrap(err, "put").Error())
	}
	return nil
}

func (bb *boltBucket) Delete(key []byte) error {
	if err := bb.b.Delete(key); err != nil {
		return nerrors.New(nerrors.ErrStorage, errors.Wrap(err, "delete").Error())
	}
	return nil
}

func (bb *boltBucket) Cursor() Cursor {
	return &boltCursor{c: bb.b.Cursor()}
}

type boltCursor struct {
	c *bolt.Cursor
}

func (bc *boltCursor) First() (key, value []byte) { return bc.c.First() }
func (bc *boltCursor) Last() (key, value []byte)  { return bc.c.Last() }
func (bc *boltCursor) Next() (key, value []byte)  { return bc.c.Next() }
func (bc *boltCursor) Prev() (key, value []byte)  { return bc.c.Prev() }
func (bc *boltCursor) Seek(key []byte) (key2, value []byte) {
	return bc.c.Seek(key)
}
