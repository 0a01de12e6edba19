package draft

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// IDGenerator issues draft item ids. Ids are opaque positive integers that
// widgets echo back in hidden form fields.
type IDGenerator interface {
	Next() (int64, error)
}

// MaxDraftItemID is the largest id a browser keeps exact as a JSON number.
const MaxDraftItemID = 1<<53 - 1

// RandomGenerator derives a positive id of at most 53 bits from a random UUID.
type RandomGenerator struct{}

func (RandomGenerator) Next() (int64, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return 0, fmt.Errorf("failed to generate draft item id: %w", err)
	}

	// Drop the version nibble, then keep 53 of the remaining 60 random bits.
	raw := binary.BigEndian.Uint64(id[:8])
	raw = (raw>>16)<<12 | raw&0xfff
	value := int64(raw >> 7)
	if value == 0 {
		value = 1
	}
	return value, nil
}

// TimestampGenerator reproduces the legacy format: epoch seconds followed by
// four random digits in 1000..9999. Collisions within one second are possible.
type TimestampGenerator struct {
	Now func() time.Time
}

func (g TimestampGenerator) Next() (int64, error) {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return 0, fmt.Errorf("failed to generate draft item id: %w", err)
	}

	raw := strconv.FormatInt(now().Unix(), 10) + strconv.FormatInt(n.Int64()+1000, 10)
	return strconv.ParseInt(raw, 10, 64)
}
