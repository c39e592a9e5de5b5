package crypto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
)

// AddressPrefix defines the human-readable part used for bech32 identities.
type AddressPrefix string

// LaunchpadPrefix is the prefix used when rendering participant identities.
const LaunchpadPrefix AddressPrefix = "lp"

// AddressLength is the byte length of a participant or beneficiary identity.
const AddressLength = 20

var (
	ErrInvalidAddress = errors.New("crypto: invalid address")
	ErrZeroAddress    = errors.New("crypto: zero address")
)

// Address represents a 20-byte identity with a specific bech32 prefix.
type Address struct {
	prefix AddressPrefix
	bytes  [AddressLength]byte
}

// NewAddress wraps raw identity bytes. b must be exactly 20 bytes long.
func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != AddressLength {
		return Address{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, AddressLength, len(b))
	}
	addr := Address{prefix: prefix}
	copy(addr.bytes[:], b)
	return addr, nil
}

// FromIdentity wraps a fixed-size identity.
func FromIdentity(prefix AddressPrefix, id [AddressLength]byte) Address {
	return Address{prefix: prefix, bytes: id}
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes[:], 8, 5, true)
	if err != nil {
		return ""
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		return ""
	}
	return encoded
}

// Bytes returns a copy of the identity bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, AddressLength)
	copy(out, a.bytes[:])
	return out
}

// Identity returns the fixed-size identity.
func (a Address) Identity() [AddressLength]byte { return a.bytes }

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// DecodeAddress parses a bech32 encoded identity.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv)
}

// ParseIdentity accepts either a 0x-prefixed hex identity or a bech32 string
// and returns the raw 20 bytes. The zero identity is rejected.
func ParseIdentity(value string) ([AddressLength]byte, error) {
	var out [AddressLength]byte
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return out, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		if !common.IsHexAddress(trimmed) {
			return out, fmt.Errorf("%w: %q", ErrInvalidAddress, value)
		}
		out = common.HexToAddress(trimmed)
	} else {
		addr, err := DecodeAddress(strings.ToLower(trimmed))
		if err != nil {
			return out, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		out = addr.bytes
	}
	if out == ([AddressLength]byte{}) {
		return out, ErrZeroAddress
	}
	return out, nil
}

// FormatIdentity renders an identity as a bech32 string with the launchpad
// prefix.
func FormatIdentity(id [AddressLength]byte) string {
	return FromIdentity(LaunchpadPrefix, id).String()
}

// HexIdentity renders an identity as a checksummed 0x hex string.
func HexIdentity(id [AddressLength]byte) string {
	return common.Address(id).Hex()
}
