package devfaucet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/hyperledger/web3j-cli-sub000/pkg/pow"
)

var (
	ErrUnknownSeed = errors.New("unknown seed")
	ErrSeedSpent   = errors.New("seed already used")

	challengesBucket = []byte("challenges")
	grantsBucket     = []byte("grants")
)

// IssuedChallenge is a challenge handed out by the faucet. A seed can be
// redeemed at most once.
type IssuedChallenge struct {
	Seed       string    `json:"seed"`
	Difficulty int       `json:"difficulty"`
	Amount     string    `json:"amount"`
	IssuedAt   time.Time `json:"issued_at"`
	SpentAt    time.Time `json:"spent_at,omitempty"`
}

// Grant records funds handed out to an address.
type Grant struct {
	TxHash    string    `json:"tx_hash"`
	Address   string    `json:"address"`
	Amount    string    `json:"amount"`
	Seed      string    `json:"seed,omitempty"`
	Nonce     uint64    `json:"nonce,omitempty"`
	Token     bool      `json:"token"`
	GrantedAt time.Time `json:"granted_at"`
}

// Store persists challenges and grants in BoltDB
type Store struct {
	db *bbolt.DB
}

// OpenStore opens or creates the database at path
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(challengesBucket); err != nil {
			return fmt.Errorf("failed to create challenges bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists(grantsBucket); err != nil {
			return fmt.Errorf("failed to create grants bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// PutChallenge records an issued challenge
func (s *Store) PutChallenge(ch IssuedChallenge) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(challengesBucket).Put([]byte(ch.Seed), data)
	})
}

// Redeem marks seed as spent if verify accepts its challenge. Lookup, check
// and update happen in one transaction so a seed can never pay out twice.
func (s *Store) Redeem(seed string, verify func(pow.Challenge) error) (*IssuedChallenge, error) {
	var issued IssuedChallenge

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(challengesBucket)
		data := bucket.Get([]byte(seed))
		if data == nil {
			return ErrUnknownSeed
		}

		if err := json.Unmarshal(data, &issued); err != nil {
			return fmt.Errorf("failed to unmarshal challenge: %w", err)
		}
		if !issued.SpentAt.IsZero() {
			return ErrSeedSpent
		}

		if err := verify(pow.Challenge{Seed: issued.Seed, Difficulty: issued.Difficulty}); err != nil {
			return err
		}

		issued.SpentAt = time.Now().UTC()
		updated, err := json.Marshal(issued)
		if err != nil {
			return fmt.Errorf("failed to marshal challenge: %w", err)
		}
		return bucket.Put([]byte(seed), updated)
	})
	if err != nil {
		return nil, err
	}

	return &issued, nil
}

// PutGrant records a grant keyed by its transaction hash
func (s *Store) PutGrant(g Grant) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal grant: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(grantsBucket).Put([]byte(g.TxHash), data)
	})
}

// Grants lists grants, oldest first. A non-empty address filters them.
func (s *Store) Grants(address string) ([]Grant, error) {
	var grants []Grant

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(grantsBucket).ForEach(func(_, data []byte) error {
			var g Grant
			if err := json.Unmarshal(data, &g); err != nil {
				return fmt.Errorf("failed to unmarshal grant: %w", err)
			}
			if address == "" || equalFoldAddress(g.Address, address) {
				grants = append(grants, g)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(grants, func(i, j int) bool { return grants[i].GrantedAt.Before(grants[j].GrantedAt) })
	return grants, nil
}
