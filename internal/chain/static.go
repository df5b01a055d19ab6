package chain

import (
	"context"
	"fmt"
	"time"

	"OptionSentinel/internal/model"
)

// StaticChain serves a fixed set of contracts. Expiries match by calendar day.
type StaticChain struct {
	contracts map[string]model.OptionsContract
}

func staticKey(symbol string, strike float64, expiry time.Time, right model.Right) string {
	return fmt.Sprintf("%s|%s|%.4f|%s", symbol, expiry.Format("2006-01-02"), strike, right)
}

// NewStaticChain lists contracts. Missing OCC symbols are filled in.
func NewStaticChain(contracts ...model.OptionsContract) *StaticChain {
	c := &StaticChain{contracts: make(map[string]model.OptionsContract, len(contracts))}
	for _, k := range contracts {
		if k.Symbol == "" {
			k.Symbol = OCCSymbol(k.Underlying, k.Expiry, k.Right, k.Strike)
		}
		c.contracts[staticKey(k.Underlying, k.Strike, k.Expiry, k.Right)] = k
	}
	return c
}

func (c *StaticChain) Contract(_ context.Context, symbol string, strike float64, expiry time.Time, right model.Right) (model.OptionsContract, bool, error) {
	k, ok := c.contracts[staticKey(symbol, strike, expiry, right)]
	return k, ok, nil
}

// Len returns the number of listed contracts.
func (c *StaticChain) Len() int { return len(c.contracts) }
