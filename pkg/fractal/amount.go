package fractal

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	apierrors "github.com/fractal-global/fractal-go/pkg/errors"
)

// Amount is a quantity of global credits with millicredit precision.
//
// Amounts are unsigned fixed-point values stored as thousandths of a
// credit; the wire form is the integer millicredit count. The canonical
// string form carries exactly three decimals, e.g. "15.750".
type Amount uint64

// AmountFromMillis builds an Amount from a raw millicredit count.
func AmountFromMillis(millis uint64) Amount {
	return Amount(millis)
}

// ParseAmount parses a decimal credits string ("15", "15.7", "15.750").
// More than three fractional digits or a negative value is rejected.
func ParseAmount(s string) (Amount, error) {
	if err := apierrors.ValidateAmountString(s); err != nil {
		return 0, err
	}

	whole, frac, _ := strings.Cut(s, ".")
	units, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, apierrors.Wrap(apierrors.ErrCodeInvalidAmount, err, "parse amount %q", s)
	}

	// Right-pad the fraction to millis: "7" -> 700, "75" -> 750.
	for len(frac) < 3 {
		frac += "0"
	}
	millis, err := strconv.ParseUint(frac, 10, 64)
	if err != nil {
		return 0, apierrors.Wrap(apierrors.ErrCodeInvalidAmount, err, "parse amount %q", s)
	}

	if units > math.MaxUint64/1000 || units*1000 > math.MaxUint64-millis {
		return 0, apierrors.New(apierrors.ErrCodeInvalidAmount, "amount %q exceeds the representable range", s)
	}
	return Amount(units*1000 + millis), nil
}

// Millis returns the raw millicredit count.
func (a Amount) Millis() uint64 { return uint64(a) }

// String formats the amount with exactly three decimals.
func (a Amount) String() string {
	return fmt.Sprintf("%d.%03d", uint64(a)/1000, uint64(a)%1000)
}

// MarshalJSON encodes the amount as its integer millicredit count.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint64(a))
}

// UnmarshalJSON decodes the amount from its integer millicredit count.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var millis uint64
	if err := json.Unmarshal(data, &millis); err != nil {
		return apierrors.Wrap(apierrors.ErrCodeInvalidAmount, err, "decode amount")
	}
	*a = Amount(millis)
	return nil
}

// WalletAddress identifies a credits wallet.
//
// Addresses are the "fr" prefix followed by a digit body and a trailing
// Luhn check digit, e.g. "fr1234566".
type WalletAddress string

// ParseWalletAddress validates shape and check digit of a wallet address.
func ParseWalletAddress(s string) (WalletAddress, error) {
	if err := apierrors.ValidateWalletAddress(s); err != nil {
		return "", err
	}

	digits := strings.TrimPrefix(s, "fr")
	body, check := digits[:len(digits)-1], digits[len(digits)-1]
	if luhnDigit(body) != check {
		return "", apierrors.New(apierrors.ErrCodeInvalidWalletAddress, "wallet address %q has a bad check digit", s)
	}

	return WalletAddress(s), nil
}

// NewWalletAddress builds an address from a digit body, appending the
// check digit. It is mainly useful for tests and tooling.
func NewWalletAddress(body string) (WalletAddress, error) {
	for _, r := range body {
		if r < '0' || r > '9' {
			return "", apierrors.New(apierrors.ErrCodeInvalidWalletAddress, "wallet body must be digits: %q", body)
		}
	}
	if body == "" {
		return "", apierrors.New(apierrors.ErrCodeInvalidWalletAddress, "wallet body cannot be empty")
	}
	return WalletAddress("fr" + body + string(luhnDigit(body))), nil
}

// String returns the address in wire form.
func (w WalletAddress) String() string { return string(w) }

// luhnDigit computes the Luhn check digit for a digit string.
func luhnDigit(body string) byte {
	sum := 0
	double := true
	for i := len(body) - 1; i >= 0; i-- {
		d := int(body[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return byte('0' + (10-sum%10)%10)
}
