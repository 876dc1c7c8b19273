// Package keys implements the secp256k1 identity used to author events:
// secret scalar generation and validation, x-only public key derivation,
// BIP-340 signing and verification, and npub/nsec bech32 encoding.
package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/bech32"
)

var (
	ErrInvalidSecretKey = errors.New("invalid secret key")
	ErrInvalidPublicKey = errors.New("invalid public key")
)

// Bech32 human readable prefixes for key material.
const (
	PrefixSecretKey = "nsec"
	PrefixPublicKey = "npub"
)

// Keypair is a secret scalar and its derived public point. The public
// identity is the x coordinate only. Immutable after creation.
type Keypair struct {
	sec *btcec.PrivateKey
	pub string
}

// Generate produces a fresh keypair from the system random source.
func Generate() (*Keypair, error) {
	sec, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("keypair generation failed: %w", err)
	}
	return wrap(sec), nil
}

// FromSecretBytes returns the keypair for a 32 byte secret scalar. The
// bytes must encode a valid scalar in [1, N).
func FromSecretBytes(b []byte) (*Keypair, error) {
	if len(b) != 32 {
		return nil, ErrInvalidSecretKey
	}
	k := new(big.Int).SetBytes(b)
	if k.Sign() == 0 || k.Cmp(btcec.S256().Params().N) >= 0 {
		return nil, ErrInvalidSecretKey
	}
	sec, _ := btcec.PrivKeyFromBytes(b)
	return wrap(sec), nil
}

// FromSecretHex returns the keypair for a 64 character hex secret key.
func FromSecretHex(sk string) (*Keypair, error) {
	b, err := hex.DecodeString(sk)
	if err != nil {
		return nil, ErrInvalidSecretKey
	}
	return FromSecretBytes(b)
}

// FromString accepts either a hex secret key or an nsec bech32 string.
func FromString(s string) (*Keypair, error) {
	if strings.HasPrefix(s, PrefixSecretKey) {
		b, err := decodeBech32(PrefixSecretKey, s)
		if err != nil {
			return nil, ErrInvalidSecretKey
		}
		return FromSecretBytes(b)
	}
	return FromSecretHex(s)
}

func wrap(sec *btcec.PrivateKey) *Keypair {
	return &Keypair{
		sec: sec,
		pub: hex.EncodeToString(schnorr.SerializePubKey(sec.PubKey())),
	}
}

// PublicKey returns the x-only public key in hex, the form events carry in
// their pubkey field.
func (k *Keypair) PublicKey() string { return k.pub }

// SecretHex returns the secret key bytes in hex.
func (k *Keypair) SecretHex() string {
	return hex.EncodeToString(k.sec.Serialize())
}

// Npub returns the public key encoded as an npub bech32 string.
func (k *Keypair) Npub() (string, error) {
	b, err := hex.DecodeString(k.pub)
	if err != nil {
		return "", err
	}
	return encodeBech32(PrefixPublicKey, b)
}

// Nsec returns the secret key encoded as an nsec bech32 string.
func (k *Keypair) Nsec() (string, error) {
	return encodeBech32(PrefixSecretKey, k.sec.Serialize())
}

// Sign produces a 64 byte BIP-340 signature over the given 32 byte digest.
func (k *Keypair) Sign(digest []byte) ([]byte, error) {
	sig, err := schnorr.Sign(k.sec, digest)
	if err != nil {
		return nil, err
	}
	return sig.Serialize(), nil
}

// Verify reports whether sig is a valid signature by pubkey over digest.
// Malformed inputs simply fail verification, they never raise.
func Verify(pubkey string, digest, sig []byte) bool {
	pkb, err := hex.DecodeString(pubkey)
	if err != nil {
		return false
	}
	pk, err := schnorr.ParsePubKey(pkb)
	if err != nil {
		return false
	}
	s, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false
	}
	return s.Verify(digest, pk)
}

// IsValidPublicKey checks that pk is a lower case 64 character hex string.
func IsValidPublicKey(pk string) bool {
	if strings.ToLower(pk) != pk {
		return false
	}
	dec, err := hex.DecodeString(pk)
	if err != nil {
		return false
	}
	return len(dec) == 32
}

// DecodeNpub decodes an npub bech32 string to the hex public key.
func DecodeNpub(npub string) (string, error) {
	b, err := decodeBech32(PrefixPublicKey, npub)
	if err != nil {
		return "", ErrInvalidPublicKey
	}
	if len(b) != 32 {
		return "", ErrInvalidPublicKey
	}
	return hex.EncodeToString(b), nil
}

func encodeBech32(hrp string, b []byte) (string, error) {
	converted, err := bech32.ConvertBits(b, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, converted)
}

func decodeBech32(wantHrp, s string) ([]byte, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return nil, err
	}
	if hrp != wantHrp {
		return nil, fmt.Errorf("wrong prefix '%s', expected '%s'", hrp, wantHrp)
	}
	return bech32.ConvertBits(data, 5, 8, false)
}
