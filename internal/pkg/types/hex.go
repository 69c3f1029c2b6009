package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Hex represents a hexadecimal-encoded quantity as a string (e.g., "0x1a"),
// the native encoding of the Ethereum JSON-RPC API. It provides validation,
// JSON marshaling/unmarshaling, and lossless conversion helpers. Quantities
// may be up to 256 bits wide, so full-precision conversions go through
// math/big.
type Hex string

// HexFromString validates the input string and returns a Hex value if valid.
func HexFromString(s string) (Hex, error) {
	if err := validateHex(s); err != nil {
		return "", err
	}
	return Hex(s), nil
}

// validateHex checks whether a string is a valid hexadecimal quantity
// starting with "0x" or "0X".
func validateHex(s string) error {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return fmt.Errorf("hex string must start with 0x")
	}

	if _, ok := new(big.Int).SetString(s[2:], 16); !ok {
		return fmt.Errorf("invalid hexadecimal value: %q", s)
	}

	return nil
}

// IsEmpty reports whether the value is the zero Hex.
func (h Hex) IsEmpty() bool {
	return h == ""
}

// MarshalJSON encodes the Hex as a JSON string.
func (h Hex) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(h))
}

// UnmarshalJSON parses and validates a JSON-encoded hexadecimal string.
func (h *Hex) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid hex string: %w", err)
	}

	if err := validateHex(s); err != nil {
		return err
	}

	*h = Hex(s)
	return nil
}

// Add returns a new Hex representing the result of adding n to the current
// value. If the original value is invalid, it treats it as zero.
func (h Hex) Add(n int64) Hex {
	sum := h.Int() + n
	return Hex(fmt.Sprintf("0x%x", sum))
}

// Int returns the decoded int64 value from the hexadecimal string. It is
// intended for quantities known to fit in 64 bits, such as block heights and
// chain ids. If parsing fails, it returns zero.
func (h Hex) Int() int64 {
	if len(h) < 2 {
		return 0
	}

	v, _ := strconv.ParseInt(string(h)[2:], 16, 64)
	return v
}

// BigInt returns the decoded value as a big.Int, preserving full precision
// for 256-bit quantities. An empty or invalid value decodes to zero.
func (h Hex) BigInt() *big.Int {
	v := new(big.Int)
	if len(h) < 2 {
		return v
	}

	if _, ok := v.SetString(string(h)[2:], 16); !ok {
		return new(big.Int)
	}
	return v
}

// Decimal returns the value as a base-10 string, losslessly for quantities up
// to 256 bits. An empty or invalid value renders as "0".
func (h Hex) Decimal() string {
	return h.BigInt().String()
}
