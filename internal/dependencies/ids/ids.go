package ids

import (
	"github.com/google/uuid"

	"github.com/mcoot/roomserver/internal/model"
)

// Generator mints connection ids
type Generator interface {
	NewConnID() model.ConnID
}

// UUIDGenerator issues random v4 UUIDs
type UUIDGenerator struct{}

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewConnID returns a fresh connection id
func (g *UUIDGenerator) NewConnID() model.ConnID {
	return model.ConnID(uuid.NewString())
}
