package backtest

import "errors"

// Validation and computation errors. Single-asset validation errors are
// detected eagerly, before any simulation runs.
var (
	// ErrEmptySeries is returned when the price series has no data.
	ErrEmptySeries = errors.New("price series is empty")

	// ErrMissingClose is returned when a point lacks a usable close price.
	ErrMissingClose = errors.New("price series is missing close data")

	// ErrInsufficientData is returned when the series is shorter than
	// MinSeriesLength.
	ErrInsufficientData = errors.New("insufficient price data")

	// ErrNonPositivePrice is returned when a purchase would divide by a
	// zero or negative close price.
	ErrNonPositivePrice = errors.New("non-positive close price on purchase date")

	// ErrTooFewAssets is returned when a multi-asset run has fewer than
	// MinAssets entries.
	ErrTooFewAssets = errors.New("too few assets for comparison")

	// ErrTooManyAssets is returned when a multi-asset run has more than
	// MaxAssets entries.
	ErrTooManyAssets = errors.New("too many assets for comparison")

	// ErrEmptyIntersection is returned when the assets share no trading dates.
	ErrEmptyIntersection = errors.New("no shared trading dates across assets")
)
