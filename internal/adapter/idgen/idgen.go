// Package idgen generates account numbers.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/iho/ledgerd/internal/usecase"
)

// Supported generation strategies.
const (
	StrategyULID = "ulid"
	StrategyUUID = "uuid"
)

// ULIDGenerator generates ULID-based IDs.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

// UUIDGenerator generates random UUIDv4 IDs.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUIDGenerator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate generates a new UUID.
func (g *UUIDGenerator) Generate() string {
	return uuid.NewString()
}

// New returns the generator for strategy.
func New(strategy string) (usecase.IDGenerator, error) {
	switch strategy {
	case "", StrategyULID:
		return NewULIDGenerator(), nil
	case StrategyUUID:
		return NewUUIDGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown account id strategy %q", strategy)
	}
}
