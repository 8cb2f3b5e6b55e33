package lnauth

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// messagePrefix is the magic prepended to every signed message. Wallets sign
// the challenge with the standard Bitcoin signed-message convention, not a raw
// digest over the challenge bytes.
const messagePrefix = "Bitcoin Signed Message:\n"

// VerifyMessage checks sigHex (DER-encoded ECDSA, hex) over message under
// pubkeyHex (compressed secp256k1, hex). A malformed signature or public key
// is returned as an error; a well-formed signature that does not match
// returns (false, nil).
func VerifyMessage(message, sigHex, pubkeyHex string) (bool, error) {
	sigBytes, err := hex.DecodeString(sigHex)
	if err != nil {
		return false, fmt.Errorf("decode signature hex: %w", err)
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false, fmt.Errorf("parse signature: %w", err)
	}

	keyBytes, err := hex.DecodeString(pubkeyHex)
	if err != nil {
		return false, fmt.Errorf("decode public key hex: %w", err)
	}
	pubKey, err := btcec.ParsePubKey(keyBytes)
	if err != nil {
		return false, fmt.Errorf("parse public key: %w", err)
	}

	hash := MessageHash(message)
	return sig.Verify(hash, pubKey), nil
}

// SignMessage produces the DER-encoded hex signature over message with the
// given private key. Used by tests to exercise the verify path with real
// signatures.
func SignMessage(message string, priv *btcec.PrivateKey) string {
	sig := ecdsa.Sign(priv, MessageHash(message))
	return hex.EncodeToString(sig.Serialize())
}

// MessageHash computes the double-SHA256 signed-message digest:
// dsha256(varint(len(prefix)) || prefix || varint(len(msg)) || msg).
func MessageHash(message string) []byte {
	var buf bytes.Buffer
	writeCompactSize(&buf, uint64(len(messagePrefix)))
	buf.WriteString(messagePrefix)
	writeCompactSize(&buf, uint64(len(message)))
	buf.WriteString(message)
	h := chainhash.DoubleHashH(buf.Bytes())
	return h[:]
}

// writeCompactSize encodes n with Bitcoin's variable-length integer encoding.
func writeCompactSize(buf *bytes.Buffer, n uint64) {
	switch {
	case n < 0xfd:
		buf.WriteByte(byte(n))
	case n <= 0xffff:
		buf.WriteByte(0xfd)
		_ = binary.Write(buf, binary.LittleEndian, uint16(n))
	case n <= 0xffffffff:
		buf.WriteByte(0xfe)
		_ = binary.Write(buf, binary.LittleEndian, uint32(n))
	default:
		buf.WriteByte(0xff)
		_ = binary.Write(buf, binary.LittleEndian, n)
	}
}
