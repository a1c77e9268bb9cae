package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketTransitions = "transitions"
)

// Transition is a state change of the control loop
type Transition struct {
	Session   uuid.UUID            `json:"session" cbor:"1,keyasint"`
	Time      time.Time            `json:"time" cbor:"2,keyasint"`
	From      thermal.State        `json:"from" cbor:"3,keyasint"`
	To        thermal.State        `json:"to" cbor:"4,keyasint"`
	PowerMode thermal.PowerBitmask `json:"powerMode" cbor:"5,keyasint"`
}

type Persistence interface {
	Init() error

	SaveTransition(transition Transition) error
	// LoadTransitions returns the latest transitions, oldest first. limit <= 0 returns all of them.
	LoadTransitions(limit int) ([]Transition, error)
	DeleteTransitions() error
}

type persistence struct {
	dbPath string
	// maxTransitions bounds the number of stored transitions, 0 means unbounded
	maxTransitions int
}

func NewPersistence(dbPath string, maxTransitions int) Persistence {
	p := &persistence{
		dbPath:         dbPath,
		maxTransitions: maxTransitions,
	}
	return p
}

func (p persistence) Init() (err error) {
	// get parent path of dbPath
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		// create directory
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func sequenceKey(sequence uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, sequence)
	return key
}

// SaveTransition appends the given transition, dropping the oldest ones above the configured limit
func (p persistence) SaveTransition(transition Transition) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := cbor.Marshal(transition)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketTransitions))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		sequence, err := b.NextSequence()
		if err != nil {
			return err
		}
		if err := b.Put(sequenceKey(sequence), data); err != nil {
			return err
		}

		if p.maxTransitions <= 0 {
			return nil
		}
		var keys [][]byte
		err = b.ForEach(func(k, v []byte) error {
			keys = append(keys, k)
			return nil
		})
		if err != nil {
			return err
		}
		for i := 0; i < len(keys)-p.maxTransitions; i++ {
			if err := b.Delete(keys[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p persistence) LoadTransitions(limit int) ([]Transition, error) {
	db, err := p.openPersistence()
	if err != nil {
		return nil, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var transitions []Transition
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketTransitions))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(transitions) >= limit {
				break
			}
			var transition Transition
			if err := cbor.Unmarshal(v, &transition); err != nil {
				ui.Warning("Unable to unmarshal transition %x: %v", k, err)
				continue
			}
			transitions = append(transitions, transition)
		}
		return nil
	})

	// reverse to oldest first
	for i, j := 0, len(transitions)-1; i < j; i, j = i+1, j-1 {
		transitions[i], transitions[j] = transitions[j], transitions[i]
	}
	return transitions, err
}

func (p persistence) DeleteTransitions() error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(BucketTransitions)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(BucketTransitions))
	})
}
