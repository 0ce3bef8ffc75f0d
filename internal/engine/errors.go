package engine

import (
	"errors"
	"fmt"

	"github.com/monsefu/resplan/internal/model"
)

// Sentinels matched by errors.Is on the typed errors below.
var (
	ErrInvalidForecast = errors.New("invalid forecast")
	ErrMissingRatio    = errors.New("missing ratio")
	// ErrDemandOverflow wraps ErrInvalidForecast: the forecast and ratios
	// yield a figure too large to plan for.
	ErrDemandOverflow = fmt.Errorf("%w: demand out of range", ErrInvalidForecast)
)

// Reasons carried in InvalidForecastError.Err.
var (
	ErrNegativeCount  = errors.New("negative count")
	ErrNonFiniteCount = errors.New("non-finite count")
	ErrNonNumeric     = errors.New("non-numeric count")
	ErrMonthRange     = errors.New("month outside 1..12")
	ErrCountTooLarge  = errors.New("count exceeds 1e12")
)

// InvalidForecastError reports a forecast that cannot be planned from.
type InvalidForecastError struct {
	Field string // "denuncias", "emergencias" or "month"
	Code  model.TypeCode
	Value float64
	Err   error
}

func (e *InvalidForecastError) Error() string {
	if e.Field == "month" {
		return fmt.Sprintf("invalid forecast: month %v: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("invalid forecast: %s[%d] = %v: %v", e.Field, e.Code, e.Value, e.Err)
}

func (e *InvalidForecastError) Unwrap() error { return e.Err }

// Is matches ErrInvalidForecast.
func (e *InvalidForecastError) Is(target error) bool { return target == ErrInvalidForecast }

// MissingRatioError reports a ratio that is absent or not strictly positive.
type MissingRatioError struct {
	Category string
	Param    string
	Present  bool
	Value    float64
}

func (e *MissingRatioError) Error() string {
	if !e.Present {
		return fmt.Sprintf("missing ratio %s.%s", e.Category, e.Param)
	}
	return fmt.Sprintf("invalid ratio %s.%s = %v: must be > 0", e.Category, e.Param, e.Value)
}

// Is matches ErrMissingRatio.
func (e *MissingRatioError) Is(target error) bool { return target == ErrMissingRatio }
