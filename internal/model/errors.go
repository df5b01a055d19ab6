package model

import "errors"

// Every failure below is recoverable: an evaluation that hits one produces no strategy.
var (
	ErrInsufficientHistory   = errors.New("insufficient history")
	ErrInvalidPriceData      = errors.New("invalid price data")
	ErrInvalidVolatilityData = errors.New("invalid volatility data")
	ErrContractNotFound      = errors.New("contract not found")
	ErrMissingSnapshot       = errors.New("missing snapshot")
	ErrMissingProfile        = errors.New("missing volatility profile")
)
