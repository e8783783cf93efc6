// Package grants persists the directory trees the user has authorized.
package grants

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/vitomein/loadintel/exportbridge/internal/documents"
	"github.com/vitomein/loadintel/exportbridge/internal/shared/docref"
)

const grantsBucket = "uri_permissions"

// ErrNoGrant is returned when a tree has no persisted grant.
var ErrNoGrant = errors.New("no grant for tree")

// Grant is a persisted permission on a document tree
type Grant struct {
	URI       string           `json:"uri"`
	Access    documents.Access `json:"access"`
	GrantedAt time.Time        `json:"granted_at"`
}

// Allows reports whether the grant includes every bit of access.
func (g Grant) Allows(access documents.Access) bool {
	return g.Access&access == access
}

// Store is the persistent grant table
type Store struct {
	db     *bbolt.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens or creates the grant table at path
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create grants directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open grants database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(grantsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create grants bucket: %w", err)
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Take persists access on the tree named by uri. Access already granted
// on the same tree is kept.
func (s *Store) Take(uri string, access documents.Access) (Grant, error) {
	key, err := treeKey(uri)
	if err != nil {
		return Grant{}, err
	}
	if access&(documents.AccessRead|documents.AccessWrite) == 0 {
		return Grant{}, fmt.Errorf("no persistable access requested for %s", key)
	}

	var grant Grant
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(grantsBucket))
		if existing := b.Get([]byte(key)); existing != nil {
			if err := sonic.Unmarshal(existing, &grant); err != nil {
				return fmt.Errorf("corrupt grant record for %s: %w", key, err)
			}
		}
		grant.URI = key
		grant.Access |= access
		grant.GrantedAt = s.now().UTC()

		data, err := sonic.Marshal(grant)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return Grant{}, fmt.Errorf("failed to persist grant: %w", err)
	}

	s.logger.Info("URI permission persisted",
		zap.String("uri", key),
		zap.Stringer("access", grant.Access),
	)
	return grant, nil
}

// Get returns the grant for a tree.
func (s *Store) Get(uri string) (Grant, error) {
	key, err := treeKey(uri)
	if err != nil {
		return Grant{}, err
	}

	var grant Grant
	err = s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(grantsBucket)).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNoGrant, key)
		}
		return sonic.Unmarshal(data, &grant)
	})
	return grant, err
}

// List returns all grants ordered by URI
func (s *Store) List() ([]Grant, error) {
	var grants []Grant
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(grantsBucket)).ForEach(func(k, v []byte) error {
			var g Grant
			if err := sonic.Unmarshal(v, &g); err != nil {
				s.logger.Warn("Skipping corrupt grant record", zap.ByteString("uri", k), zap.Error(err))
				return nil
			}
			grants = append(grants, g)
			return nil
		})
	})
	return grants, err
}

// Release removes the grant for a tree.
func (s *Store) Release(uri string) error {
	key, err := treeKey(uri)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(grantsBucket))
		if b.Get([]byte(key)) == nil {
			return fmt.Errorf("%w: %s", ErrNoGrant, key)
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return err
	}

	s.logger.Info("URI permission released", zap.String("uri", key))
	return nil
}

// CheckURIPermission implements documents.PermissionChecker
func (s *Store) CheckURIPermission(ref docref.Ref, access documents.Access) error {
	grant, err := s.Get(ref.TreeURI())
	if err != nil {
		if errors.Is(err, ErrNoGrant) {
			return fmt.Errorf("%w: %s", documents.ErrPermissionDenied, err)
		}
		return err
	}
	if !grant.Allows(access) {
		return fmt.Errorf("%w: %s grants %s, need %s",
			documents.ErrPermissionDenied, grant.URI, grant.Access, access)
	}
	return nil
}

// treeKey canonicalizes any handle to the URI of its tree.
func treeKey(uri string) (string, error) {
	ref, err := docref.Parse(uri)
	if err != nil {
		return "", err
	}
	return ref.TreeURI(), nil
}
