package helpers

import (
	"errors"
	"math/bits"
)

// MaxTotalAmount bounds a registration total; totals are stored as
// numeric(10,2).
const MaxTotalAmount = 100_000_000

var ErrTotalOverflow = errors.New("total amount overflows")

// EventRates are the per-event prices used to quote a registration.
type EventRates struct {
	PerPerson     uint64
	PerAdultGuest uint64
	PerChildGuest uint64
}

// ComputeTotal is perPerson + adults*perAdult + children*perChild. It fails
// with ErrTotalOverflow instead of wrapping.
func ComputeTotal(perPerson, perAdult, perChild, adults, children uint64) (uint64, error) {
	adultHi, adultTotal := bits.Mul64(adults, perAdult)
	childHi, childTotal := bits.Mul64(children, perChild)
	if adultHi != 0 || childHi != 0 {
		return 0, ErrTotalOverflow
	}

	total, carry := bits.Add64(perPerson, adultTotal, 0)
	total, carry2 := bits.Add64(total, childTotal, 0)
	if carry != 0 || carry2 != 0 {
		return 0, ErrTotalOverflow
	}
	return total, nil
}

// TotalForEvent quotes a registration against rates. An unresolved event
// (nil rates) quotes 0.
func TotalForEvent(rates *EventRates, adults, children uint64) (uint64, error) {
	if rates == nil {
		return 0, nil
	}
	return ComputeTotal(rates.PerPerson, rates.PerAdultGuest, rates.PerChildGuest, adults, children)
}
