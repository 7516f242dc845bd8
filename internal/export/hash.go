package export

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"slices"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	dbTypes "github.com/robalyx/antiraid/internal/database/types"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/crypto/argon2"
)

// HashType represents the different hashing algorithms available.
type HashType string

const (
	// HashTypeArgon2id uses the Argon2id algorithm for hashing.
	HashTypeArgon2id HashType = "argon2id"
	// HashTypeSHA256 uses the SHA256 algorithm for hashing.
	HashTypeSHA256 HashType = "sha256"
)

// systemTarget is written in place of a hash for system targets.
const systemTarget = "system"

// HashID converts a single ID to a hash using the specified algorithm with the provided salt.
func HashID(id snowflake.ID, salt string, hashType HashType, iterations uint32, memory uint32) string {
	idBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(idBytes, uint64(id))

	var hash []byte

	switch hashType {
	case HashTypeArgon2id:
		hash = argon2.IDKey(idBytes, []byte(salt), iterations, memory*1024, 1, 32)
	case HashTypeSHA256:
		// Iterative SHA256 hashing with salt
		hash = []byte(salt)

		h := sha256.New()
		for range iterations {
			h.Reset()
			h.Write(idBytes)
			h.Write(hash)
			hash = h.Sum(nil)
		}
	}

	return hex.EncodeToString(hash)
}

// Hasher pseudonymises ledger targets.
type Hasher struct {
	salt        string
	hashType    HashType
	iterations  uint32
	memory      uint32
	concurrency int
}

// NewHasher creates a hasher from the export configuration.
func NewHasher(config *Config) *Hasher {
	return &Hasher{
		salt:        config.Salt,
		hashType:    HashType(config.HashType),
		iterations:  config.Iterations,
		memory:      config.Memory,
		concurrency: max(int(config.Concurrency), 1),
	}
}

// HashIDs hashes every distinct ID concurrently and returns the hashes keyed by ID.
func (h *Hasher) HashIDs(ids []snowflake.ID) map[snowflake.ID]string {
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	var mu sync.Mutex

	hashes := make(map[snowflake.ID]string, len(unique))
	p := pool.New().WithMaxGoroutines(min(h.concurrency, max(len(unique), 1)))

	for _, id := range unique {
		p.Go(func() {
			hash := HashID(id, h.salt, h.hashType, h.iterations, h.memory)

			mu.Lock()
			hashes[id] = hash
			mu.Unlock()
		})
	}

	p.Wait()

	return hashes
}

// Target returns the pseudonym of a target from precomputed hashes.
func Target(target dbTypes.Target, hashes map[snowflake.ID]string) string {
	id, ok := target.UserID()
	if !ok {
		return systemTarget
	}

	return hashes[id]
}
