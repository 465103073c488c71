package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// LamportsPerSOL is the number of lamports in one SOL
const LamportsPerSOL int64 = 1_000_000_000

// ID represents a unique identifier
type ID string

// GenerateUUID creates a new UUID
func GenerateUUID() ID {
	return ID(uuid.New().String())
}

// NewID creates an ID from string
func NewID(id string) (ID, error) {
	_, err := uuid.Parse(id)
	if err != nil {
		return "", err
	}
	return ID(id), nil
}

// String returns string representation
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the ID is empty
func (id ID) IsZero() bool {
	return id == ""
}

// Timestamps represents creation and update times
type Timestamps struct {
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// NewTimestamps creates new timestamps
func NewTimestamps() Timestamps {
	now := time.Now().UTC()
	return Timestamps{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Update updates the UpdatedAt timestamp
func (t Timestamps) Update() Timestamps {
	t.UpdatedAt = time.Now().UTC()
	return t
}

// Version represents entity version for optimistic locking
type Version struct {
	Value int `json:"value" bson:"value"`
}

// NewVersion creates new version
func NewVersion() Version {
	return Version{Value: 1}
}

// Update increments version
func (v Version) Update() Version {
	v.Value++
	return v
}

// Lamports is an amount in the smallest SOL unit
type Lamports int64

// NewLamports validates a raw lamport amount
func NewLamports(amount int64) (Lamports, error) {
	if amount < 0 {
		return 0, errors.New("amount cannot be negative")
	}
	return Lamports(amount), nil
}

// IsPositive checks if the amount is positive
func (l Lamports) IsPositive() bool {
	return l > 0
}

// Int64 returns the raw amount
func (l Lamports) Int64() int64 {
	return int64(l)
}

// SOL returns the amount expressed in SOL
func (l Lamports) SOL() float64 {
	return float64(l) / float64(LamportsPerSOL)
}

// MaxBasisPoints is 100%
const MaxBasisPoints int64 = 10_000

// BasisPoints returns the share of the amount for the given basis points, rounded down.
// bps is clamped to [0, MaxBasisPoints] so the share never exceeds the amount.
func (l Lamports) BasisPoints(bps int64) Lamports {
	switch {
	case bps <= 0:
		return 0
	case bps > MaxBasisPoints:
		bps = MaxBasisPoints
	}
	whole, rest := int64(l)/MaxBasisPoints, int64(l)%MaxBasisPoints
	return Lamports(whole*bps + rest*bps/MaxBasisPoints)
}
