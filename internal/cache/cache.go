// Package cache stores generated IR on disk, keyed by a digest of the
// encoded input tree and the options it was compiled with.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"dysc/internal/ast"
	"dysc/internal/astio"
	"dysc/internal/version"
)

// Current schema version - increment when Payload format changes
const schemaVersion uint16 = 1

// Digest identifies one cached artifact.
type Digest [sha256.Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Cache is a directory of msgpack payloads. Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Payload is one cached compilation result.
type Payload struct {
	Schema  uint16
	Name    string
	IR      string
	Created time.Time
}

// Open uses dir, or $XDG_CACHE_HOME/dysc (falling back to ~/.cache/dysc)
// when dir is empty.
func Open(dir string) (*Cache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "dysc")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Key digests the msgpack form of tree together with opts, which must be
// msgpack-encodable, and the compiler build that will generate the IR.
func Key(tree ast.Node, opts any) (Digest, error) {
	var d Digest
	data, err := astio.Marshal(tree, astio.FormatMsgpack)
	if err != nil {
		return d, err
	}
	optData, err := msgpack.Marshal(opts)
	if err != nil {
		return d, fmt.Errorf("encode cache options: %w", err)
	}
	h := sha256.New()
	h.Write([]byte{byte(schemaVersion >> 8), byte(schemaVersion)})
	fmt.Fprintf(h, "%s\x00%s\x00", version.Version, version.GitCommit)
	h.Write(optData)
	h.Write(data)
	copy(d[:], h.Sum(nil))
	return d, nil
}

func (c *Cache) pathFor(key Digest) string {
	hexKey := key.String()
	return filepath.Join(c.dir, "ir", hexKey[:2], hexKey+".mp")
}

// Put writes payload atomically. A nil cache ignores writes.
func (c *Cache) Put(key Digest, payload *Payload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	out := *payload
	out.Schema = schemaVersion
	if out.Created.IsZero() {
		out.Created = time.Now().UTC()
	}
	if err = msgpack.NewEncoder(f).Encode(&out); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the payload for key. Missing entries and entries written by
// another schema version are misses.
func (c *Cache) Get(key Digest) (*Payload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var out Payload
	if err := msgpack.NewDecoder(f).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("read cache entry %s: %w", key, err)
	}
	if out.Schema != schemaVersion {
		return nil, false, nil
	}
	return &out, true, nil
}

// DropAll removes every cached entry.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
