package nogdb

import (
	"github.com/phirasit/nogdb/codec"
	"github.com/phirasit/nogdb/index"
	"github.com/phirasit/nogdb/nerrors"
	"github.com/phirasit/nogdb/schema"
	"github.com/phirasit/nogdb/store"
)

/*
CreateClass declares a new root vertex or edge class with no superclass;
use CreateClassExtend to declare a subclass.
*/
func (t *Txn) CreateClass(name string, kind schema.ClassKind) (*schema.ClassDescriptor, error) {
	if err := t.requireWritable(); err != nil {
		return nil, err
	}
	return t.cat.ClassCreate(name, kind, "")
}

/*
CreateClassExtend declares name as a subclass of super, inheriting every
property and index super carries.
*/
func (t *Txn) CreateClassExtend(name string, kind schema.ClassKind, super string) (*schema.ClassDescriptor, error) {
	if err := t.requireWritable(); err != nil {
		return nil, err
	}
	return t.cat.ClassCreate(name, kind, super)
}

/*
AlterClass renames a class in place.
*/
func (t *Txn) AlterClass(oldName, newName string) (*schema.ClassDescriptor, error) {
	if err := t.requireWritable(); err != nil {
		return nil, err
	}
	return t.cat.ClassAlter(oldName, newName)
}

/*
DropClass removes a class from the schema. It is forbidden while the
class has live subclasses (checked inside the catalog) or live records
(checked here, since only the record store knows that). Call
DestroyClass first to clear a class's records and edges before dropping
it.

A class with live records surfaces the same ErrInUsedProperty kind the
catalog already uses for "class has subclasses", rather than a bespoke
kind: both describe the same shape of failure, something still
references this class.
*/
func (t *Txn) DropClass(name string) (*schema.ClassDescriptor, error) {
	if err := t.requireWritable(); err != nil {
		return nil, err
	}

	cd, ok := t.cat.ClassByName(name)
	if !ok {
		return nil, nerrors.New(nerrors.ErrNoExstClass, name)
	}

	recs, err := t.store.ScanClass(cd.ClassID)
	if err != nil {
		return nil, err
	}
	if len(recs) > 0 {
		return nil, nerrors.New(nerrors.ErrInUsedProperty, "class has records: "+name)
	}

	indexes := t.cat.IndexesOf(cd.ClassID)

	dropped, err := t.cat.ClassDrop(name)
	if err != nil {
		return nil, err
	}

	for _, idx := range indexes {
		if err := index.DropBuckets(t.kvTxn, idx.IndexID); err != nil {
			return nil, err
		}
	}
	if err := t.kvTxn.DeleteBucket(store.ClassBucketName(cd.ClassID)); err != nil {
		return nil, err
	}

	return dropped, nil
}

/*
DestroyClass deletes every live record and edge of the named class and
all its subclasses; vertices cascade-destroy their incident edges. A
class must be destroyed before it can be dropped.
*/
func (t *Txn) DestroyClass(name string) error {
	if err := t.requireWritable(); err != nil {
		return err
	}
	cd, ok := t.cat.ClassByName(name)
	if !ok {
		return nerrors.New(nerrors.ErrNoExstClass, name)
	}
	for _, classID := range t.cat.ResolveSubclasses(cd.ClassID) {
		if err := t.store.DestroyClass(classID); err != nil {
			return err
		}
	}
	return nil
}

/*
AddProperty declares a new typed property on a class.
*/
func (t *Txn) AddProperty(className, propName string, propType codec.Type) (*schema.PropertyDescriptor, error) {
	if err := t.requireWritable(); err != nil {
		return nil, err
	}
	return t.cat.PropertyAdd(className, propName, byte(propType))
}

/*
AlterProperty renames a property declared directly on className.
*/
func (t *Txn) AlterProperty(className, oldName, newName string) (*schema.PropertyDescriptor, error) {
	if err := t.requireWritable(); err != nil {
		return nil, err
	}
	return t.cat.PropertyAlter(className, oldName, newName)
}

/*
RemoveProperty drops a property declared directly on className. Fails
with ErrInUsedProperty while an index still references it:
call DropIndex first.
*/
func (t *Txn) RemoveProperty(className, propName string) error {
	if err := t.requireWritable(); err != nil {
		return err
	}
	return t.cat.PropertyRemove(className, propName)
}

/*
CreateIndex registers a secondary index on className.propName and
populates it by scanning className and every subclass's live records.
If unique is true and a duplicate value is
found mid-population, every entry inserted so far is rolled back and
ErrInvalidIndexConstrain is returned, and the index is never left half
built.
*/
func (t *Txn) CreateIndex(className, propName string, unique bool) (*schema.IndexDescriptor, error) {
	if err := t.requireWritable(); err != nil {
		return nil, err
	}

	cd, ok := t.cat.ClassByName(className)
	if !ok {
		return nil, nerrors.New(nerrors.ErrNoExstClass, className)
	}
	pd, ok := t.cat.ResolveProperty(cd.ClassID, propName)
	if !ok {
		return nil, nerrors.New(nerrors.ErrNoExstProperty, propName)
	}
	if !index.SupportsType(codec.Type(pd.Type)) {
		return nil, nerrors.New(nerrors.ErrInvalidComparator, propName)
	}

	idx, err := t.cat.IndexRegister(cd.ClassID, pd.PropertyID, unique)
	if err != nil {
		return nil, err
	}

	ref := index.IndexRef{IndexID: idx.IndexID, Unique: idx.Unique}

	for _, classID := range t.cat.ResolveSubclasses(cd.ClassID) {
		recs, err := t.store.ScanClass(classID)
		if err != nil {
			index.DropBuckets(t.kvTxn, idx.IndexID)
			t.cat.IndexUnregister(cd.ClassID, pd.PropertyID)
			return nil, err
		}
		for _, d := range recs {
			value, present := d.Record.Attr(propName)
			if !present {
				continue
			}
			iref := index.Ref{ClassID: classID, PositionID: d.RID.PositionID}
			if err := index.Insert(t.kvTxn, ref, codec.Type(pd.Type), value, iref); err != nil {
				// index.Insert already leaves this value's bucket entry
				// untouched on a unique violation; drop both buckets
				// entirely rather than reasoning about partial state.
				index.DropBuckets(t.kvTxn, idx.IndexID)
				t.cat.IndexUnregister(cd.ClassID, pd.PropertyID)
				return nil, err
			}
		}
	}

	return idx, nil
}

/*
DropIndex removes a secondary index and its kv sub-databases.
*/
func (t *Txn) DropIndex(className, propName string) error {
	if err := t.requireWritable(); err != nil {
		return err
	}
	cd, ok := t.cat.ClassByName(className)
	if !ok {
		return nerrors.New(nerrors.ErrNoExstClass, className)
	}
	pd, ok := t.cat.ResolveProperty(cd.ClassID, propName)
	if !ok {
		return nerrors.New(nerrors.ErrNoExstProperty, propName)
	}
	idx, ok := t.cat.IndexFor(cd.ClassID, pd.PropertyID)
	if !ok {
		return nerrors.New(nerrors.ErrNoExstIndex, propName)
	}

	if _, err := t.cat.IndexUnregister(cd.ClassID, pd.PropertyID); err != nil {
		return err
	}
	return index.DropBuckets(t.kvTxn, idx.IndexID)
}
