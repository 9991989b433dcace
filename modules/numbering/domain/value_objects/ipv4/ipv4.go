// Package ipv4 holds the pure address-space math behind the IP allocator:
// dotted-decimal strings to and from their 32-bit representation, range
// capacity and containment.
package ipv4

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kadrohq/kadro/pkg/serrors"
)

var ErrInvalidAddressFormat = serrors.NewError("INVALID_ADDRESS_FORMAT", "address is not a valid dotted-decimal IPv4 string", "Numbering.Errors.InvalidAddressFormat")

// ToInt converts a dotted-decimal address into its 32-bit value,
// (o0<<24)|(o1<<16)|(o2<<8)|o3. The string must have exactly four numeric
// octets, each in [0,255].
func ToInt(addr string) (uint32, error) {
	parts := strings.Split(addr, ".")
	if len(parts) != 4 {
		return 0, ErrInvalidAddressFormat
	}
	var v uint32
	for _, part := range parts {
		octet, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return 0, ErrInvalidAddressFormat
		}
		v = v<<8 | uint32(octet)
	}
	return v, nil
}

// FromInt is the inverse of ToInt.
func FromInt(v uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", (v>>24)&0xFF, (v>>16)&0xFF, (v>>8)&0xFF, v&0xFF)
}

// CountInRange returns the number of addresses in [start, end] inclusive.
// A range whose end precedes its start is valid input with zero capacity,
// matching the "no addresses available" outcome rather than an error.
func CountInRange(start, end string) (uint32, error) {
	s, err := ToInt(start)
	if err != nil {
		return 0, err
	}
	e, err := ToInt(end)
	if err != nil {
		return 0, err
	}
	if e < s {
		return 0, nil
	}
	return e - s + 1, nil
}

// WithinRange reports whether addr lies inside [start, end], comparing the
// 32-bit representations.
func WithinRange(addr, start, end string) (bool, error) {
	a, err := ToInt(addr)
	if err != nil {
		return false, err
	}
	s, err := ToInt(start)
	if err != nil {
		return false, err
	}
	e, err := ToInt(end)
	if err != nil {
		return false, err
	}
	return a >= s && a <= e, nil
}
