// Package cache persists compiled units keyed by source path so that a
// fresh run can skip files whose content has not changed since the last
// compile.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/dmitriid/svx/internal/domain"
)

var bucketUnits = []byte("units")

type BuildCache struct {
	db *bbolt.DB
}

func Open(path string) (*BuildCache, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open build cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketUnits)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BuildCache{db: db}, nil
}

func (c *BuildCache) Close() error {
	return c.db.Close()
}

type unitRecord struct {
	Hash       string   `json:"hash"`
	Name       string   `json:"name"`
	Kind       int      `json:"kind"`
	Source     string   `json:"source"`
	Template   string   `json:"template"`
	Style      []string `json:"style,omitempty"`
	Diagnostic bool     `json:"diagnostic,omitempty"`
}

// Get returns the cached unit for path if it was compiled from content
// with the given hash.
func (c *BuildCache) Get(path, hash string) (domain.CompiledUnit, bool) {
	var rec unitRecord
	found := false

	c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketUnits).Get([]byte(path))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil
		}
		found = rec.Hash == hash
		return nil
	})

	if !found {
		return domain.CompiledUnit{}, false
	}
	return domain.CompiledUnit{
		Name:       rec.Name,
		Kind:       domain.DocumentKind(rec.Kind),
		Source:     rec.Source,
		Template:   rec.Template,
		Style:      rec.Style,
		Diagnostic: rec.Diagnostic,
	}, true
}

func (c *BuildCache) Put(path, hash string, unit domain.CompiledUnit) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(unitRecord{
			Hash:       hash,
			Name:       unit.Name,
			Kind:       int(unit.Kind),
			Source:     unit.Source,
			Template:   unit.Template,
			Style:      unit.Style,
			Diagnostic: unit.Diagnostic,
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketUnits).Put([]byte(path), data)
	})
}

func (c *BuildCache) Delete(path string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketUnits).Delete([]byte(path))
	})
}

// HashContent returns the content hash used for cache keys.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
