/*
Package nogdb is an embedded property-graph database engine: durable,
transactional storage for a typed schema of vertex and edge classes
(single inheritance), arbitrary typed properties, graph adjacency,
secondary indexes, compound boolean queries, and traversal.

Context is the process-wide handle onto one database directory; Txn is the transactional facade every other operation
requires. A Context is opened once per path and shared by every
transaction it issues.
*/
package nogdb

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/phirasit/nogdb/kv"
	"github.com/phirasit/nogdb/nerrors"
)

const lockFileName = ".context.lock"

// openTags tracks, per process, which instance tag currently owns an open
// path. A lock file on disk whose tag this process did not itself
// register is reported as ErrContextLocked. The lock is best-effort and
// advisory; the only real mutual exclusion is the single-writer mutex
// inside kv.Env.
var (
	openMu   sync.Mutex
	openTags = map[string]string{}
)

/*
Options configures a newly opened Context: the maximum number of named
sub-databases and the maximum total size of the store.
*/
type Options = kv.Options

/*
DefaultOptions returns the documented defaults: 1024 sub-databases, 1 GiB.
*/
func DefaultOptions() *Options {
	return kv.DefaultOptions()
}

/*
Context is a process-wide handle onto one database directory.
*/
type Context struct {
	env         kv.Env
	path        string
	instanceTag string
}

/*
OpenContext opens (creating if necessary) the database at path.
*/
func OpenContext(path string, opts *Options) (*Context, error) {
	openMu.Lock()
	defer openMu.Unlock()

	lockPath := filepath.Join(path, lockFileName)
	existingTag, tracked := openTags[path]

	if data, err := os.ReadFile(lockPath); err == nil {
		onDisk := strings.TrimSpace(string(data))
		// A lock file we did not write ourselves means another opener holds
		// this directory. A matching tag (re-open from the same process) or
		// a tag we wrote earlier in this process is fine.
		if onDisk != "" && !tracked {
			return nil, nerrors.New(nerrors.ErrContextLocked, path)
		}
	}

	env, err := kv.Open(path, opts)
	if err != nil {
		return nil, err
	}

	tag := existingTag
	if tag == "" {
		tag = uuid.NewString()
		openTags[path] = tag
	}

	if err := os.WriteFile(lockPath, []byte(tag), 0o644); err != nil {
		env.Close()
		return nil, nerrors.New(nerrors.ErrStorage, err.Error())
	}

	return &Context{env: env, path: path, instanceTag: tag}, nil
}

/*
CloseContext releases a Context's resources. It is an error to call this
while any transaction issued from ctx is still open.
*/
func CloseContext(ctx *Context) error {
	openMu.Lock()
	delete(openTags, ctx.path)
	openMu.Unlock()

	os.Remove(filepath.Join(ctx.path, lockFileName))
	return ctx.env.Close()
}

/*
Path returns the directory ctx was opened against.
*/
func (ctx *Context) Path() string {
	return ctx.path
}
