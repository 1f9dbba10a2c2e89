package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Denomination identifies one of the five guild currencies, ordered by
// descending exchange value.
type Denomination int

const (
	Platinum Denomination = iota
	Gold
	Electrum
	Silver
	Copper
)

// NumDenominations is the size of the fixed denomination set.
const NumDenominations = 5

var denominationNames = [NumDenominations]string{"platinum", "gold", "electrum", "silver", "copper"}

var denominationCodes = [NumDenominations]rune{'p', 'g', 'e', 's', 'c'}

func (d Denomination) String() string {
	if d < 0 || d >= NumDenominations {
		return "unknown"
	}
	return denominationNames[d]
}

// Code returns the single-letter code used in amount strings.
func (d Denomination) Code() rune {
	return denominationCodes[d]
}

// Denominations lists all five denominations in value order, highest first.
func Denominations() [NumDenominations]Denomination {
	return [NumDenominations]Denomination{Platinum, Gold, Electrum, Silver, Copper}
}

func denominationByCode(r rune) (Denomination, bool) {
	for i, code := range denominationCodes {
		if r == code {
			return Denomination(i), true
		}
	}
	return 0, false
}

// Amounts holds one signed quantity per denomination, indexed by
// Denomination. A zero entry means no movement in that denomination.
type Amounts [NumDenominations]int64

// IsZero reports whether no denomination moves at all.
func (a Amounts) IsZero() bool {
	for _, qty := range a {
		if qty != 0 {
			return false
		}
	}
	return true
}

// HasNegative reports whether any denomination moves a negative quantity.
func (a Amounts) HasNegative() bool {
	for _, qty := range a {
		if qty < 0 {
			return true
		}
	}
	return false
}

// Negated returns the amounts with every quantity sign-flipped.
func (a Amounts) Negated() Amounts {
	var out Amounts
	for i, qty := range a {
		out[i] = -qty
	}
	return out
}

// Add returns the element-wise sum of a and b.
func (a Amounts) Add(b Amounts) Amounts {
	var out Amounts
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func (a Amounts) String() string {
	parts := make([]string, 0, NumDenominations)
	for _, d := range Denominations() {
		if a[d] != 0 {
			parts = append(parts, fmt.Sprintf("%d%c", a[d], d.Code()))
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, ",")
}

// ParseAmounts parses a comma-separated amount string such as "2g,5s" or
// "-10p,+3c". Each entry is an optionally signed integer followed by one
// denomination code letter; a letter may appear at most once. Returns
// ErrInvalidFormat for anything outside the grammar, ErrDuplicateDenomination
// for a repeated letter, and ErrInvalidFormat when every quantity is zero.
func ParseAmounts(s string) (Amounts, error) {
	var out Amounts
	if s == "" {
		return out, fmt.Errorf("%w: empty amount string", ErrInvalidFormat)
	}
	for _, r := range s {
		if !validAmountRune(r) {
			return out, fmt.Errorf("%w: invalid character %q", ErrInvalidFormat, r)
		}
	}

	var seen [NumDenominations]bool
	for _, entry := range strings.Split(s, ",") {
		if entry == "" {
			return Amounts{}, fmt.Errorf("%w: empty entry", ErrInvalidFormat)
		}
		runes := []rune(entry)
		denom, ok := denominationByCode(runes[len(runes)-1])
		if !ok {
			return Amounts{}, fmt.Errorf("%w: entry %q has no denomination code", ErrInvalidFormat, entry)
		}
		if seen[denom] {
			return Amounts{}, fmt.Errorf("%w: %s", ErrDuplicateDenomination, denom)
		}
		seen[denom] = true

		qty, err := strconv.ParseInt(string(runes[:len(runes)-1]), 10, 64)
		if err != nil {
			return Amounts{}, fmt.Errorf("%w: entry %q", ErrInvalidFormat, entry)
		}
		out[denom] = qty
	}

	if out.IsZero() {
		return Amounts{}, fmt.Errorf("%w: all amounts are zero", ErrInvalidFormat)
	}
	return out, nil
}

func validAmountRune(r rune) bool {
	if r >= '0' && r <= '9' {
		return true
	}
	if r == '+' || r == '-' || r == ',' {
		return true
	}
	_, ok := denominationByCode(r)
	return ok
}
