package asterisk

import "github.com/Distrotech/asterisk/id"

// ID is the primary identifier type for callers and attempts.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
