package nogdb

import (
	"github.com/phirasit/nogdb/kv"
	"github.com/phirasit/nogdb/nerrors"
	"github.com/phirasit/nogdb/schema"
	"github.com/phirasit/nogdb/store"
)

/*
TxnMode mirrors kv.Mode at the package boundary so callers never need to
import kv directly.
*/
type TxnMode = kv.Mode

const (
	ReadOnly  = kv.ReadOnly
	ReadWrite = kv.ReadWrite
)

/*
Txn is one transaction against a Context: a kv.Txn, the schema snapshot
it observes, and the record/graph store built on top of both. The
catalog is loaded fresh from kv at Begin and discarded at
Commit/Rollback; bbolt's own MVCC snapshot gives every Txn an isolated,
copy-on-write view of the schema without this package needing a separate
shadow-catalog cache.
*/
type Txn struct {
	kvTxn  kv.Txn
	cat    *schema.Catalog
	store  *store.Store
	mode   kv.Mode
	closed bool
}

/*
Begin starts a transaction in the given mode.
*/
func (ctx *Context) Begin(mode kv.Mode) (*Txn, error) {
	kvTxn, err := ctx.env.Begin(mode)
	if err != nil {
		return nil, err
	}

	cat, err := schema.Load(kvTxn)
	if err != nil {
		kvTxn.Rollback()
		return nil, err
	}

	return &Txn{
		kvTxn: kvTxn,
		cat:   cat,
		store: store.New(kvTxn, cat),
		mode:  mode,
	}, nil
}

func (t *Txn) requireWritable() error {
	if t.closed {
		return nerrors.New(nerrors.ErrTxnRollback, "")
	}
	if t.mode != kv.ReadWrite {
		return nerrors.New(nerrors.ErrTxnInvalidMode, "transaction is read-only")
	}
	return nil
}

/*
Commit persists the schema snapshot (for a writable transaction) and
applies the underlying kv transaction atomically.
*/
func (t *Txn) Commit() error {
	if t.closed {
		return nerrors.New(nerrors.ErrTxnRollback, "")
	}
	if t.mode == kv.ReadWrite {
		if err := t.cat.Save(t.kvTxn); err != nil {
			t.kvTxn.Rollback()
			t.closed = true
			return err
		}
	}
	t.closed = true
	return t.kvTxn.Commit()
}

/*
Rollback discards every change made in this transaction.
*/
func (t *Txn) Rollback() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.kvTxn.Rollback()
}

/*
Catalog exposes the schema snapshot this transaction observes. Host code
normally drives schema changes through the class and property methods
below rather than the catalog directly.
*/
func (t *Txn) Catalog() *schema.Catalog {
	return t.cat
}
