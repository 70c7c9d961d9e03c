package utils

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/pkg/errors"
)

// Supported signature schemes.
const (
	SchemeRSA       = "rsa"
	SchemeSecp256k1 = "secp256k1"
)

// Verifier is the signature primitive used to authorize spending. It is treated as a
// black box by validation and must be safe to call with arbitrary bytes.
type Verifier interface {
	Verify(publicKey []byte, msg []byte, signature []byte) bool
}

// VerifierFunc adapts a plain function to Verifier.
type VerifierFunc func(publicKey []byte, msg []byte, signature []byte) bool

func (f VerifierFunc) Verify(publicKey []byte, msg []byte, signature []byte) bool {
	return f(publicKey, msg, signature)
}

// Signer produces signatures that the matching Verifier accepts.
type Signer interface {
	// PublicKey returns the owner key as stored in outputs.
	PublicKey() []byte
	Sign(msg []byte) ([]byte, error)
}

// NewVerifier returns the verifier for the named scheme.
func NewVerifier(scheme string) (Verifier, error) {
	switch scheme {
	case SchemeRSA:
		return RSAVerifier{}, nil
	case SchemeSecp256k1:
		return Secp256k1Verifier{}, nil
	default:
		return nil, errors.Errorf("unknown signature scheme %q", scheme)
	}
}

// NewSigner generates a fresh key for the named scheme.
func NewSigner(scheme string) (Signer, error) {
	switch scheme {
	case SchemeRSA:
		sk, _ := GenerateKeyPair(2048)
		if sk == nil {
			return nil, errors.New("failed to generate rsa key")
		}
		return &RSASigner{Key: sk}, nil
	case SchemeSecp256k1:
		sk, err := btcec.NewPrivateKey()
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate secp256k1 key")
		}
		return &Secp256k1Signer{Key: sk}, nil
	default:
		return nil, errors.Errorf("unknown signature scheme %q", scheme)
	}
}

// GenerateKeyPair generates a new key pair
func GenerateKeyPair(bits int) (*rsa.PrivateKey, *rsa.PublicKey) {
	privkey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil
	}
	return privkey, &privkey.PublicKey
}

// PrivateKeyToBytes private key to bytes
func PrivateKeyToBytes(priv *rsa.PrivateKey) []byte {
	privBytes := pem.EncodeToMemory(
		&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(priv),
		},
	)

	return privBytes
}

// PublicKeyToBytes public key to bytes
func PublicKeyToBytes(pub *rsa.PublicKey) []byte {
	pubASN1, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil
	}

	return pubASN1
}

// BytesToPrivateKey bytes to private key
func BytesToPrivateKey(priv []byte) *rsa.PrivateKey {
	block, _ := pem.Decode(priv)
	if block == nil {
		return nil
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil
	}
	return key
}

// BytesToPublicKey bytes to public key
func BytesToPublicKey(pub []byte) *rsa.PublicKey {
	ifc, err := x509.ParsePKIXPublicKey(pub)
	if err != nil {
		return nil
	}
	key, ok := ifc.(*rsa.PublicKey)
	if !ok {
		return nil
	}
	return key
}

// Hash message using SHA256
func SHA256(msg []byte) []byte {
	newhash := crypto.SHA256
	pssh := newhash.New()
	pssh.Write(msg)
	return pssh.Sum(nil)
}

// Sign a message's SHA256 digest with provided private key.
func Sign(msg []byte, sk *rsa.PrivateKey) ([]byte, error) {
	digest := SHA256(msg)

	var opts rsa.PSSOptions
	opts.SaltLength = rsa.PSSSaltLengthAuto
	signature, err := rsa.SignPSS(rand.Reader, sk, crypto.SHA256, digest, &opts)
	if err != nil {
		return nil, err
	}

	return signature, nil
}

// Verify the given signature matches the message.
func Verify(msg []byte, pk *rsa.PublicKey, signature []byte) bool {
	digest := SHA256(msg)

	var opts rsa.PSSOptions
	opts.SaltLength = rsa.PSSSaltLengthAuto

	return rsa.VerifyPSS(pk, crypto.SHA256, digest, signature, &opts) == nil
}

// RSASigner signs with RSA-PSS over SHA256. Owner keys are PKIX encoded.
type RSASigner struct {
	Key *rsa.PrivateKey
}

func (s *RSASigner) PublicKey() []byte {
	return PublicKeyToBytes(&s.Key.PublicKey)
}

func (s *RSASigner) Sign(msg []byte) ([]byte, error) {
	return Sign(msg, s.Key)
}

// RSAVerifier checks RSA-PSS signatures against PKIX encoded owner keys.
type RSAVerifier struct{}

func (RSAVerifier) Verify(publicKey []byte, msg []byte, signature []byte) bool {
	pk := BytesToPublicKey(publicKey)
	if pk == nil {
		return false
	}
	return Verify(msg, pk, signature)
}

// Secp256k1Signer signs the SHA256 digest with ECDSA, DER encoded. Owner keys are
// compressed SEC encoded points.
type Secp256k1Signer struct {
	Key *btcec.PrivateKey
}

func (s *Secp256k1Signer) PublicKey() []byte {
	return s.Key.PubKey().SerializeCompressed()
}

func (s *Secp256k1Signer) Sign(msg []byte) ([]byte, error) {
	return ecdsa.Sign(s.Key, SHA256(msg)).Serialize(), nil
}

// Secp256k1Verifier checks DER ECDSA signatures against SEC encoded owner keys.
type Secp256k1Verifier struct{}

func (Secp256k1Verifier) Verify(publicKey []byte, msg []byte, signature []byte) bool {
	pk, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(SHA256(msg), pk)
}
