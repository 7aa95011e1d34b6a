package guardtheory

import "github.com/oklog/ulid/v2"

// IDGenerator provides randomness for request/correlation IDs.
type IDGenerator interface {
	NewID() string
}

// ULIDGenerator generates time-ordered ULIDs.
type ULIDGenerator struct{}

func (ULIDGenerator) NewID() string {
	return ulid.Make().String()
}
