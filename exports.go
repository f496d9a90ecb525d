package ledger

import "github.com/kitchenops/ledger/types"

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Re-export Money constructors
var (
	BDT  = types.BDT
	USD  = types.USD
	AED  = types.AED
	GBP  = types.GBP
	Zero = types.Zero
	Sum  = types.Sum
)

// ParseAmount is re-exported from types package.
var ParseAmount = types.ParseAmount
