package schema

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"strings"

	"github.com/phirasit/nogdb/kv"
	"github.com/phirasit/nogdb/nerrors"
)

// Fixed-name sub-databases for the catalog.
const (
	BucketClasses    = ".classes"
	BucketProperties = ".properties"
	BucketIndexes    = ".indexes"
	BucketRelations  = ".relations"
)

/*
Catalog is the schema snapshot one transaction observes. A Txn holds
exactly one Catalog for its lifetime, loaded from the catalog buckets at
Begin; a writer's mutations become the database's current catalog only
once Save has run and the owning kv.Txn commits. Clone supports callers
that want to stage speculative schema changes without touching the
transaction's own snapshot.
*/
type Catalog struct {
	classesByID   map[uint16]*ClassDescriptor
	classesByName map[string]*ClassDescriptor

	// properties declared directly on a class, keyed by propertyId.
	propsByClass map[uint16]map[uint16]*PropertyDescriptor

	indexes          map[uint32]*IndexDescriptor
	indexByClassProp map[uint16]map[uint16]*IndexDescriptor

	// children is the .relations bucket's in-memory image: superClassId ->
	// direct subclass ids. Kept so ResolveSubclasses does not need a full
	// scan of classesByID on every query.
	children map[uint16][]uint16

	nextClassID    uint16
	nextPropertyID uint16
	nextIndexID    uint32
}

/*
NewCatalog returns an empty catalog. Class and index ids start at 1;
property ids start at 2, because ids 0 and 1 are the builtin
@className/@recordId properties.
*/
func NewCatalog() *Catalog {
	return &Catalog{
		classesByID:      make(map[uint16]*ClassDescriptor),
		classesByName:    make(map[string]*ClassDescriptor),
		propsByClass:     make(map[uint16]map[uint16]*PropertyDescriptor),
		indexes:          make(map[uint32]*IndexDescriptor),
		indexByClassProp: make(map[uint16]map[uint16]*IndexDescriptor),
		children:         make(map[uint16][]uint16),
		nextClassID:      1,
		nextPropertyID:   2, // 0 and 1 are the builtin @className/@recordId ids
		nextIndexID:      1,
	}
}

/*
Clone returns a deep-enough copy of c for a writer transaction to mutate
without affecting readers that still hold c.
*/
func (c *Catalog) Clone() *Catalog {
	n := &Catalog{
		classesByID:      make(map[uint16]*ClassDescriptor, len(c.classesByID)),
		classesByName:    make(map[string]*ClassDescriptor, len(c.classesByName)),
		propsByClass:     make(map[uint16]map[uint16]*PropertyDescriptor, len(c.propsByClass)),
		indexes:          make(map[uint32]*IndexDescriptor, len(c.indexes)),
		indexByClassProp: make(map[uint16]map[uint16]*IndexDescriptor, len(c.indexByClassProp)),
		children:         make(map[uint16][]uint16, len(c.children)),
		nextClassID:      c.nextClassID,
		nextPropertyID:   c.nextPropertyID,
		nextIndexID:      c.nextIndexID,
	}
	for id, cd := range c.classesByID {
		cp := *cd
		n.classesByID[id] = &cp
		n.classesByName[strings.ToLower(cp.Name)] = &cp
	}
	for cid, props := range c.propsByClass {
		m := make(map[uint16]*PropertyDescriptor, len(props))
		for pid, pd := range props {
			cp := *pd
			m[pid] = &cp
		}
		n.propsByClass[cid] = m
	}
	for id, idx := range c.indexes {
		cp := *idx
		n.indexes[id] = &cp
		byClass, ok := n.indexByClassProp[cp.ClassID]
		if !ok {
			byClass = make(map[uint16]*IndexDescriptor)
			n.indexByClassProp[cp.ClassID] = byClass
		}
		byClass[cp.PropertyID] = &cp
	}
	for super, kids := range c.children {
		cp := make([]uint16, len(kids))
		copy(cp, kids)
		n.children[super] = cp
	}
	return n
}

// ---- lookups ----

/*
ClassByName resolves a class by name. Class names are case-insensitive.
*/
func (c *Catalog) ClassByName(name string) (*ClassDescriptor, bool) {
	cd, ok := c.classesByName[strings.ToLower(name)]
	return cd, ok
}

/*
ClassByID resolves a class by id.
*/
func (c *Catalog) ClassByID(id uint16) (*ClassDescriptor, bool) {
	cd, ok := c.classesByID[id]
	return cd, ok
}

/*
ResolveSubclasses returns classId together with every transitive
subclass id.
*/
func (c *Catalog) ResolveSubclasses(classID uint16) []uint16 {
	out := []uint16{classID}
	queue := []uint16{classID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range c.children[cur] {
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

/*
ResolveProperty searches a class then walks super, first match wins.
*/
func (c *Catalog) ResolveProperty(classID uint16, name string) (*PropertyDescriptor, bool) {
	for {
		if props, ok := c.propsByClass[classID]; ok {
			for _, pd := range props {
				if strings.EqualFold(pd.Name, name) {
					return pd, true
				}
			}
		}
		cd, ok := c.classesByID[classID]
		if !ok || !cd.HasSuper() {
			return nil, false
		}
		classID = cd.SuperClassID
	}
}

/*
ResolvePropertyByID finds a property's descriptor by (owning-or-ancestor
class, id). Unlike ResolveProperty it takes the id as already known (the
caller resolved it once via ResolveProperty) and just confirms visibility.
*/
func (c *Catalog) ResolvePropertyByID(classID, propertyID uint16) (*PropertyDescriptor, bool) {
	for {
		if props, ok := c.propsByClass[classID]; ok {
			if pd, ok := props[propertyID]; ok {
				return pd, true
			}
		}
		cd, ok := c.classesByID[classID]
		if !ok || !cd.HasSuper() {
			return nil, false
		}
		classID = cd.SuperClassID
	}
}

/*
PropertiesOf returns every property visible on classID, own and
inherited, bottom-up (own properties shadow ancestor properties of the
same name, though property ids never actually collide since ids are
allocated from a single global counter).
*/
func (c *Catalog) PropertiesOf(classID uint16) []*PropertyDescriptor {
	var out []*PropertyDescriptor
	seen := make(map[string]bool)
	for {
		if props, ok := c.propsByClass[classID]; ok {
			for _, pd := range props {
				key := strings.ToLower(pd.Name)
				if !seen[key] {
					seen[key] = true
					out = append(out, pd)
				}
			}
		}
		cd, ok := c.classesByID[classID]
		if !ok || !cd.HasSuper() {
			break
		}
		classID = cd.SuperClassID
	}
	return out
}

/*
IndexFor returns the index descriptor for (classID, propertyID) if one
exists directly on classID. This lookup does not walk inheritance; use
IndexForInherited to find an index registered on an ancestor class,
which also covers classID's records.
*/
func (c *Catalog) IndexFor(classID, propertyID uint16) (*IndexDescriptor, bool) {
	byClass, ok := c.indexByClassProp[classID]
	if !ok {
		return nil, false
	}
	idx, ok := byClass[propertyID]
	return idx, ok
}

/*
IndexForInherited resolves an index that applies to a record of classID
by walking classID's ancestor chain, the same way ResolveProperty does:
an index created on an ancestor class covers every subclass's records
for that inherited property.
*/
func (c *Catalog) IndexForInherited(classID, propertyID uint16) (*IndexDescriptor, bool) {
	for {
		if idx, ok := c.IndexFor(classID, propertyID); ok {
			return idx, true
		}
		cd, ok := c.classesByID[classID]
		if !ok || !cd.HasSuper() {
			return nil, false
		}
		classID = cd.SuperClassID
	}
}

func (c *Catalog) IndexByID(id uint32) (*IndexDescriptor, bool) {
	idx, ok := c.indexes[id]
	return idx, ok
}

/*
IndexesOf returns every index descriptor registered directly on classID
(not walking inheritance), used by ClassDrop/PropertyRemove callers that
need to tear down the matching kv sub-databases.
*/
func (c *Catalog) IndexesOf(classID uint16) []*IndexDescriptor {
	var out []*IndexDescriptor
	for _, idx := range c.indexByClassProp[classID] {
		out = append(out, idx)
	}
	return out
}

// ---- mutation ----

var reservedClassPrefixes = []string{"@", "."}

func validClassName(name string) bool {
	if name == "" {
		return false
	}
	for _, p := range reservedClassPrefixes {
		if strings.HasPrefix(name, p) {
			return false
		}
	}
	return true
}

func validPropertyName(name string) bool {
	if name == "" {
		return false
	}
	if strings.HasPrefix(name, "@") {
		return false
	}
	return true
}

/*
ClassCreate registers a new class. super may be empty for a
root class.
*/
func (c *Catalog) ClassCreate(name string, kind ClassKind, super string) (*ClassDescriptor, error) {
	if !validClassName(name) {
		return nil, nerrors.New(nerrors.ErrInvalidClassName, name)
	}
	if _, ok := c.ClassByName(name); ok {
		return nil, nerrors.New(nerrors.ErrDuplicateClass, name)
	}

	var superID uint16
	if super != "" {
		superCd, ok := c.ClassByName(super)
		if !ok {
			return nil, nerrors.New(nerrors.ErrNoExstClass, super)
		}
		if superCd.Kind != kind {
			return nil, nerrors.New(nerrors.ErrMismatchClassType, "super class kind differs from "+name)
		}
		superID = superCd.ClassID
	}

	cd := &ClassDescriptor{
		ClassID:      c.nextClassID,
		Name:         name,
		Kind:         kind,
		SuperClassID: superID,
	}
	c.nextClassID++

	c.classesByID[cd.ClassID] = cd
	c.classesByName[strings.ToLower(name)] = cd
	c.propsByClass[cd.ClassID] = make(map[uint16]*PropertyDescriptor)

	if superID != 0 {
		c.children[superID] = append(c.children[superID], cd.ClassID)
	}

	return cd, nil
}

/*
ClassDrop removes a class. Subclasses are checked here; live records
are checked by the caller before this is invoked, so the catalog package
stays storage-agnostic.
*/
func (c *Catalog) ClassDrop(name string) (*ClassDescriptor, error) {
	cd, ok := c.ClassByName(name)
	if !ok {
		return nil, nerrors.New(nerrors.ErrNoExstClass, name)
	}
	if len(c.children[cd.ClassID]) > 0 {
		return nil, nerrors.New(nerrors.ErrInUsedProperty, "class has subclasses: "+name)
	}

	delete(c.classesByID, cd.ClassID)
	delete(c.classesByName, strings.ToLower(name))
	delete(c.propsByClass, cd.ClassID)
	delete(c.children, cd.ClassID)

	for _, idx := range c.indexByClassProp[cd.ClassID] {
		delete(c.indexes, idx.IndexID)
	}
	delete(c.indexByClassProp, cd.ClassID)

	if cd.SuperClassID != 0 {
		kids := c.children[cd.SuperClassID]
		for i, k := range kids {
			if k == cd.ClassID {
				c.children[cd.SuperClassID] = append(kids[:i], kids[i+1:]...)
				break
			}
		}
	}

	return cd, nil
}

/*
ClassAlter renames a class, preserving its id.
*/
func (c *Catalog) ClassAlter(oldName, newName string) (*ClassDescriptor, error) {
	cd, ok := c.ClassByName(oldName)
	if !ok {
		return nil, nerrors.New(nerrors.ErrNoExstClass, oldName)
	}
	if !validClassName(newName) {
		return nil, nerrors.New(nerrors.ErrInvalidClassName, newName)
	}
	if _, ok := c.ClassByName(newName); ok && !strings.EqualFold(newName, oldName) {
		return nil, nerrors.New(nerrors.ErrDuplicateClass, newName)
	}

	delete(c.classesByName, strings.ToLower(oldName))
	cd.Name = newName
	c.classesByName[strings.ToLower(newName)] = cd

	return cd, nil
}

/*
PropertyAdd declares a new property on a class. Property ids
are allocated from a single database-wide counter, which trivially
satisfies "unique within a class and inherited from ancestors"
since no two properties anywhere ever share an id.
*/
func (c *Catalog) PropertyAdd(className, propName string, propType byte) (*PropertyDescriptor, error) {
	cd, ok := c.ClassByName(className)
	if !ok {
		return nil, nerrors.New(nerrors.ErrNoExstClass, className)
	}
	if !validPropertyName(propName) {
		return nil, nerrors.New(nerrors.ErrInvalidPropName, propName)
	}
	if _, ok := c.ResolveProperty(cd.ClassID, propName); ok {
		return nil, nerrors.New(nerrors.ErrDuplicateProperty, propName)
	}

	pd := &PropertyDescriptor{
		PropertyID: c.nextPropertyID,
		Name:       propName,
		Type:       propType,
		ClassID:    cd.ClassID,
	}
	c.nextPropertyID++

	c.propsByClass[cd.ClassID][pd.PropertyID] = pd

	return pd, nil
}

/*
PropertyAlter renames a property in place, preserving its id.
*/
func (c *Catalog) PropertyAlter(className, oldName, newName string) (*PropertyDescriptor, error) {
	cd, ok := c.ClassByName(className)
	if !ok {
		return nil, nerrors.New(nerrors.ErrNoExstClass, className)
	}
	pd, ok := c.propsInClassByName(cd.ClassID, oldName)
	if !ok {
		return nil, nerrors.New(nerrors.ErrNoExstProperty, oldName)
	}
	if !validPropertyName(newName) {
		return nil, nerrors.New(nerrors.ErrInvalidPropName, newName)
	}
	if _, ok := c.ResolveProperty(cd.ClassID, newName); ok {
		return nil, nerrors.New(nerrors.ErrDuplicateProperty, newName)
	}

	pd.Name = newName
	return pd, nil
}

/*
PropertyRemove drops a property declared directly on className. Fails
with ErrInUsedProperty if an index still references it.
*/
func (c *Catalog) PropertyRemove(className, propName string) error {
	cd, ok := c.ClassByName(className)
	if !ok {
		return nerrors.New(nerrors.ErrNoExstClass, className)
	}
	pd, ok := c.propsInClassByName(cd.ClassID, propName)
	if !ok {
		return nerrors.New(nerrors.ErrNoExstProperty, propName)
	}
	// Property ids are database-wide, so this also catches an index that a
	// subclass registered on the inherited property.
	for _, idx := range c.indexes {
		if idx.PropertyID == pd.PropertyID {
			return nerrors.New(nerrors.ErrInUsedProperty, propName)
		}
	}

	delete(c.propsByClass[cd.ClassID], pd.PropertyID)
	return nil
}

func (c *Catalog) propsInClassByName(classID uint16, name string) (*PropertyDescriptor, bool) {
	for _, pd := range c.propsByClass[classID] {
		if strings.EqualFold(pd.Name, name) {
			return pd, true
		}
	}
	return nil, false
}

/*
IndexRegister allocates an IndexDescriptor. Population of the index's two
kv sub-databases (and rollback on a uniqueness violation) is the
index/query packages' job; the catalog only tracks the descriptor.
*/
func (c *Catalog) IndexRegister(classID, propertyID uint16, unique bool) (*IndexDescriptor, error) {
	if _, ok := c.IndexFor(classID, propertyID); ok {
		return nil, nerrors.New(nerrors.ErrDuplicateIndex, "")
	}

	idx := &IndexDescriptor{
		IndexID:    c.nextIndexID,
		ClassID:    classID,
		PropertyID: propertyID,
		Unique:     unique,
	}
	c.nextIndexID++

	c.indexes[idx.IndexID] = idx
	byClass, ok := c.indexByClassProp[classID]
	if !ok {
		byClass = make(map[uint16]*IndexDescriptor)
		c.indexByClassProp[classID] = byClass
	}
	byClass[propertyID] = idx

	return idx, nil
}

/*
IndexUnregister removes an IndexDescriptor. Dropping its kv sub-databases
is the caller's job.
*/
func (c *Catalog) IndexUnregister(classID, propertyID uint16) (*IndexDescriptor, error) {
	idx, ok := c.IndexFor(classID, propertyID)
	if !ok {
		return nil, nerrors.New(nerrors.ErrNoExstIndex, "")
	}
	delete(c.indexes, idx.IndexID)
	delete(c.indexByClassProp[classID], propertyID)
	return idx, nil
}

// ---- persistence ----

func u16key(id uint16) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, id)
	return buf
}

func u32key(id uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, id)
	return buf
}

/*
Load reads the catalog back from the .classes, .properties and .indexes
sub-databases. The subclass links are rebuilt from each class's
SuperClassID; the .relations sub-database is not read. Returns a fresh,
empty Catalog if .classes does not exist yet (a brand new database).
*/
func Load(txn kv.Txn) (*Catalog, error) {
	c := NewCatalog()

	classesBucket, err := txn.Bucket(BucketClasses)
	if err != nil {
		return nil, nerrors.New(nerrors.ErrStorage, err.Error())
	}
	if classesBucket == nil {
		return c, nil
	}

	cur := classesBucket.Cursor()
	var maxClassID uint16
	for k, v := cur.First(); k != nil; k, v = cur.Next() {
		var cd ClassDescriptor
		if err := gobDecode(v, &cd); err != nil {
			return nil, err
		}
		cdCopy := cd
		c.classesByID[cd.ClassID] = &cdCopy
		c.classesByName[strings.ToLower(cd.Name)] = &cdCopy
		c.propsByClass[cd.ClassID] = make(map[uint16]*PropertyDescriptor)
		if cd.SuperClassID != 0 {
			c.children[cd.SuperClassID] = append(c.children[cd.SuperClassID], cd.ClassID)
		}
		if cd.ClassID > maxClassID {
			maxClassID = cd.ClassID
		}
	}
	c.nextClassID = maxClassID + 1

	propsBucket, err := txn.Bucket(BucketProperties)
	if err != nil {
		return nil, nerrors.New(nerrors.ErrStorage, err.Error())
	}
	var maxPropID uint16 = 1
	if propsBucket != nil {
		cur = propsBucket.Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			var pd PropertyDescriptor
			if err := gobDecode(v, &pd); err != nil {
				return nil, err
			}
			pdCopy := pd
			if c.propsByClass[pd.ClassID] == nil {
				c.propsByClass[pd.ClassID] = make(map[uint16]*PropertyDescriptor)
			}
			c.propsByClass[pd.ClassID][pd.PropertyID] = &pdCopy
			if pd.PropertyID > maxPropID {
				maxPropID = pd.PropertyID
			}
		}
	}
	c.nextPropertyID = maxPropID + 1

	indexBucket, err := txn.Bucket(BucketIndexes)
	if err != nil {
		return nil, nerrors.New(nerrors.ErrStorage, err.Error())
	}
	var maxIndexID uint32
	if indexBucket != nil {
		cur = indexBucket.Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			var idx IndexDescriptor
			if err := gobDecode(v, &idx); err != nil {
				return nil, err
			}
			idxCopy := idx
			c.indexes[idx.IndexID] = &idxCopy
			byClass, ok := c.indexByClassProp[idx.ClassID]
			if !ok {
				byClass = make(map[uint16]*IndexDescriptor)
				c.indexByClassProp[idx.ClassID] = byClass
			}
			byClass[idx.PropertyID] = &idxCopy
			if idx.IndexID > maxIndexID {
				maxIndexID = idx.IndexID
			}
		}
	}
	c.nextIndexID = maxIndexID + 1

	return c, nil
}

/*
Save writes the full catalog back to its four sub-databases. Called once
per committing write transaction that touched the schema.
*/
func (c *Catalog) Save(txn kv.Txn) error {
	classesBucket, err := txn.CreateBucketIfNotExists(BucketClasses)
	if err != nil {
		return err
	}
	propsBucket, err := txn.CreateBucketIfNotExists(BucketProperties)
	if err != nil {
		return err
	}
	indexBucket, err := txn.CreateBucketIfNotExists(BucketIndexes)
	if err != nil {
		return err
	}
	relBucket, err := txn.CreateBucketIfNotExists(BucketRelations)
	if err != nil {
		return err
	}

	if err := clearBucket(classesBucket); err != nil {
		return err
	}
	for id, cd := range c.classesByID {
		v, err := gobEncode(*cd)
		if err != nil {
			return err
		}
		if err := classesBucket.Put(u16key(id), v); err != nil {
			return err
		}
	}

	if err := clearBucket(propsBucket); err != nil {
		return err
	}
	for _, props := range c.propsByClass {
		for id, pd := range props {
			v, err := gobEncode(*pd)
			if err != nil {
				return err
			}
			if err := propsBucket.Put(u16key(id), v); err != nil {
				return err
			}
		}
	}

	if err := clearBucket(indexBucket); err != nil {
		return err
	}
	for id, idx := range c.indexes {
		v, err := gobEncode(*idx)
		if err != nil {
			return err
		}
		if err := indexBucket.Put(u32key(id), v); err != nil {
			return err
		}
	}

	if err := clearBucket(relBucket); err != nil {
		return err
	}
	for super, kids := range c.children {
		v, err := gobEncode(kids)
		if err != nil {
			return err
		}
		if err := relBucket.Put(u16key(super), v); err != nil {
			return err
		}
	}

	return nil
}

func clearBucket(b kv.Bucket) error {
	cur := b.Cursor()
	var keys [][]byte
	for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
		kc := make([]byte, len(k))
		copy(kc, k)
		keys = append(keys, kc)
	}
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func gobEncode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, nerrors.New(nerrors.ErrGraphUnknown, err.Error())
	}
	return buf.Bytes(), nil
}

func gobDecode(b []byte, v interface{}) error {
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(v); err != nil {
		return nerrors.New(nerrors.ErrGraphUnknown, err.Error())
	}
	return nil
}
