package core

import (
	"github.com/holiman/uint256"
	"github.com/plasmacash/plasma-go/pkg/util"
)

// AssetCustodian holds the underlying assets and the bond value on behalf
// of the ledger. Implementations must either complete a transfer or
// return an error, partial transfers are not expected.
type AssetCustodian interface {
	// TransferAsset hands the given asset over to the recipient.
	TransferAsset(recipient util.Uint160, assetID util.Uint256) error
	// TransferValue pays the given amount of bond value out to the
	// recipient.
	TransferValue(recipient util.Uint160, amount *uint256.Int) error
}
