package access

import (
	"strings"
	"unicode"

	"golang.org/x/xerrors"
)

const (
	// MinAddressLength is the minimum number of characters of an address.
	MinAddressLength = 3

	// MaxAddressLength is the maximum number of characters of an address.
	MaxAddressLength = 64
)

var (
	// ErrAddressTooShort is returned when an address has less than
	// MinAddressLength characters.
	ErrAddressTooShort = xerrors.New("address too short")

	// ErrAddressTooLong is returned when an address has more than
	// MaxAddressLength characters.
	ErrAddressTooLong = xerrors.New("address too long")

	// ErrAddressNotNormalized is returned when an address is not in its
	// lower-case form.
	ErrAddressNotNormalized = xerrors.New("address not normalized")

	// ErrAddressInvalidChar is returned when an address contains a space or a
	// control character.
	ErrAddressInvalidChar = xerrors.New("address contains an invalid character")
)

// Address is the human readable address of a caller.
//
// - implements access.Identity
type Address string

// NewAddress validates the string and returns the address.
func NewAddress(str string) (Address, error) {
	err := ValidateAddress(str)
	if err != nil {
		return "", err
	}

	return Address(str), nil
}

// ValidateAddress returns an error if the string is not a well-formed address.
func ValidateAddress(str string) error {
	n := len([]rune(str))

	if n < MinAddressLength {
		return xerrors.Errorf("invalid address '%s': %w", str, ErrAddressTooShort)
	}

	if n > MaxAddressLength {
		return xerrors.Errorf("invalid address '%s': %w", str, ErrAddressTooLong)
	}

	for _, r := range str {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return xerrors.Errorf("invalid address '%s': %w", str, ErrAddressInvalidChar)
		}
	}

	if strings.ToLower(str) != str {
		return xerrors.Errorf("invalid address '%s': %w", str, ErrAddressNotNormalized)
	}

	return nil
}

// Equal implements access.Identity. It returns true if the other identity is
// the same address.
func (a Address) Equal(other Identity) bool {
	addr, ok := other.(Address)
	return ok && addr == a
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a), nil
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return string(a)
}
