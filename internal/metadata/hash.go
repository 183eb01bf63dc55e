package metadata

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// CIDFromBytes32 converts the raw 32-byte digest emitted on-chain into the
// CIDv0 the gateway expects: the multihash prefix 0x1220 (sha2-256, 32
// bytes) is prepended and the result base58-encoded.
func CIDFromBytes32(hexDigest string) (string, error) {
	digest, err := hex.DecodeString(strings.TrimPrefix(hexDigest, "0x"))
	if err != nil {
		return "", fmt.Errorf("metadata: decode digest %q: %w", hexDigest, err)
	}
	if len(digest) != 32 {
		return "", fmt.Errorf("metadata: digest %q is %d bytes, want 32", hexDigest, len(digest))
	}
	return base58Encode(append([]byte{0x12, 0x20}, digest...)), nil
}

func base58Encode(data []byte) string {
	x := new(big.Int).SetBytes(data)
	radix := big.NewInt(58)
	mod := new(big.Int)

	var out []byte
	for x.Sign() > 0 {
		x.DivMod(x, radix, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}
	for _, b := range data {
		if b != 0 {
			break
		}
		out = append(out, base58Alphabet[0])
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}
