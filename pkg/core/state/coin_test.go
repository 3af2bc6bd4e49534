package state

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/plasmacash/plasma-go/pkg/internal/random"
	"github.com/plasmacash/plasma-go/pkg/internal/testserdes"
	"github.com/stretchr/testify/require"
)

func TestCoinSerialization(t *testing.T) {
	coin := &Coin{
		Slot:         13,
		AssetID:      random.Uint256(),
		Denomination: uint256.NewInt(1000),
		DepositBlock: 3,
		Owner:        random.Uint160(),
		State:        Deposited,
	}
	testserdes.EncodeDecodeBinary(t, coin, new(Coin))

	coin.State = Exiting
	coin.Exit = &Exit{
		Owner:     random.Uint160(),
		PrevOwner: random.Uint160(),
		CreatedAt: 1600000000,
		Bond:      uint256.NewInt(100),
		PrevBlock: 3,
		ExitBlock: 8,
	}
	testserdes.EncodeDecodeBinary(t, coin, new(Coin))

	coin.State = Exited
	coin.Exit = nil
	coin.Withdrawn = true
	testserdes.EncodeDecodeBinary(t, coin, new(Coin))
}

func TestCoinStateString(t *testing.T) {
	for s, expected := range map[CoinState]string{
		Deposited:    "DEPOSITED",
		Exiting:      "EXITING",
		Challenged:   "CHALLENGED",
		Responded:    "RESPONDED",
		Exited:       "EXITED",
		CoinState(9): "UNKNOWN",
	} {
		require.Equal(t, expected, s.String())
	}
}

func TestBalanceSerialization(t *testing.T) {
	b := NewBalance()
	testserdes.EncodeDecodeBinary(t, b, new(Balance))

	b.Bonded = uint256.NewInt(200)
	b.Withdrawable = uint256.NewInt(100)
	testserdes.EncodeDecodeBinary(t, b, new(Balance))
}

func TestChallengeSerialization(t *testing.T) {
	c := &Challenge{
		Challenger: random.Uint160(),
		TxHash:     random.Uint256(),
		TxOwner:    random.Uint160(),
		Block:      1000,
	}
	testserdes.EncodeDecodeBinary(t, c, new(Challenge))
}

func TestChildBlockSerialization(t *testing.T) {
	b := &ChildBlock{
		Root:      random.Uint256(),
		CreatedAt: 1600000000,
	}
	testserdes.EncodeDecodeBinary(t, b, new(ChildBlock))
}
