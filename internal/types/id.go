// README: Opaque identifiers (ULID) for requests and async price operations.
package types

import "github.com/oklog/ulid/v2"

type ID string

// NewID returns a lexically sortable, unique identifier.
func NewID() ID {
	return ID(ulid.Make().String())
}
