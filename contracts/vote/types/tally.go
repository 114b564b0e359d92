package types

import (
	"fmt"
	"strings"

	"golang.org/x/xerrors"
	"lukechampine.com/uint128"
)

// ErrOverflow is returned when a counter cannot be incremented anymore.
var ErrOverflow = xerrors.New("counter overflow")

// Choice is the option selected by a voter.
type Choice bool

const (
	// No is the choice against the proposal.
	No Choice = false

	// Yes is the choice in favour of the proposal.
	Yes Choice = true
)

// ParseChoice returns the choice of the text which is either "yes", "no",
// "true" or "false", case insensitive.
func ParseChoice(text string) (Choice, error) {
	switch strings.ToLower(text) {
	case "yes", "true":
		return Yes, nil
	case "no", "false":
		return No, nil
	default:
		return No, xerrors.Errorf("invalid choice '%s'", text)
	}
}

// String implements fmt.Stringer.
func (c Choice) String() string {
	if c == Yes {
		return "yes"
	}

	return "no"
}

// Tally contains the counters of a votable unit.
type Tally struct {
	Yes uint128.Uint128
	No  uint128.Uint128
}

// Vote returns the tally with the counter of the choice incremented by one. It
// returns an error if the counter would overflow.
func (t Tally) Vote(choice Choice) (Tally, error) {
	var err error

	if choice == Yes {
		t.Yes, err = increment(t.Yes)
	} else {
		t.No, err = increment(t.No)
	}

	if err != nil {
		return t, xerrors.Errorf("failed to count %v: %w", choice, err)
	}

	return t, nil
}

// Reset returns a tally with both counters at zero.
func (t Tally) Reset() Tally {
	return Tally{
		Yes: uint128.Zero,
		No:  uint128.Zero,
	}
}

// String implements fmt.Stringer.
func (t Tally) String() string {
	return fmt.Sprintf("Tally[yes=%v no=%v]", t.Yes, t.No)
}

func increment(counter uint128.Uint128) (uint128.Uint128, error) {
	if counter.Equals(uint128.Max) {
		return counter, ErrOverflow
	}

	return counter.Add64(1), nil
}
