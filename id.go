package ledger

import "github.com/kitchenops/ledger/id"

// ID is the identifier type for ledger event and audit records.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
