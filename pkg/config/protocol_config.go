package config

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/holiman/uint256"
	"github.com/plasmacash/plasma-go/pkg/util"
)

// Protocol defaults.
const (
	// DefaultChildBlockInterval is the default spacing of operator batch
	// blocks, deposit blocks use the numbers in between.
	DefaultChildBlockInterval = 1000
	// DefaultMaturityPeriod is the default waiting interval before an
	// unresolved exit may be finalized.
	DefaultMaturityPeriod = 7 * 24 * time.Hour
	// DefaultBondAmount is the default dispute bond in wei (0.1 of the
	// base unit).
	DefaultBondAmount = "100000000000000000"
)

// ProtocolConfiguration represents the protocol config.
type ProtocolConfiguration struct {
	// ChildBlockInterval is the numbering step of operator batch blocks.
	ChildBlockInterval uint64 `yaml:"ChildBlockInterval"`
	// MaturityPeriodSeconds is the exit maturity window in seconds.
	MaturityPeriodSeconds uint64 `yaml:"MaturityPeriodSeconds"`
	// BondAmount is the dispute bond in wei, a decimal string.
	BondAmount string `yaml:"BondAmount"`
	// Operator is the only identity allowed to submit batch blocks.
	Operator util.Uint160 `yaml:"Operator"`
}

// DefaultProtocolConfiguration returns the protocol config filled with
// default values.
func DefaultProtocolConfiguration() ProtocolConfiguration {
	return ProtocolConfiguration{
		ChildBlockInterval:    DefaultChildBlockInterval,
		MaturityPeriodSeconds: uint64(DefaultMaturityPeriod / time.Second),
		BondAmount:            DefaultBondAmount,
	}
}

// Validate checks ProtocolConfiguration for internal consistency.
func (p ProtocolConfiguration) Validate() error {
	if p.ChildBlockInterval < 2 {
		return errors.New("ChildBlockInterval must be at least 2")
	}
	if p.MaturityPeriodSeconds == 0 {
		return errors.New("MaturityPeriodSeconds must not be zero")
	}
	if _, err := p.Bond(); err != nil {
		return err
	}
	return nil
}

// MaturityPeriod returns the exit maturity window.
func (p ProtocolConfiguration) MaturityPeriod() time.Duration {
	return time.Duration(p.MaturityPeriodSeconds) * time.Second
}

// Bond parses the configured bond amount.
func (p ProtocolConfiguration) Bond() (*uint256.Int, error) {
	b, ok := new(big.Int).SetString(p.BondAmount, 10)
	if !ok || b.Sign() <= 0 {
		return nil, fmt.Errorf("invalid BondAmount: %q", p.BondAmount)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("BondAmount overflows 256 bits: %q", p.BondAmount)
	}
	return v, nil
}
