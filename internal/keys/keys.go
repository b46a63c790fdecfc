// Package keys generates and safeguards the client-side RSA-OAEP key pair.
// The encoded forms match WebCrypto exports (SPKI for public, PKCS#8 for
// private, both base64) so keys are interchangeable with browser clients.
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"

	"github.com/pkg/errors"

	"whisperchat/internal/models"
)

// ModulusBits is fixed; the 190-byte plaintext ceiling in the cipher
// package follows from it.
const ModulusBits = 2048

// GenerateKeyPair creates a 2048-bit RSA key pair (exponent 65537) and
// returns both halves base64-encoded. Called once per account, at
// registration. Durable custody of the private half is the caller's
// responsibility: there is no escrow and loss is unrecoverable.
func GenerateKeyPair() (models.KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, ModulusBits)
	if err != nil {
		return models.KeyPair{}, errors.Wrap(err, "generate rsa key")
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return models.KeyPair{}, errors.Wrap(err, "marshal public key")
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return models.KeyPair{}, errors.Wrap(err, "marshal private key")
	}

	return models.KeyPair{
		PublicKey:  base64.StdEncoding.EncodeToString(pubDER),
		PrivateKey: base64.StdEncoding.EncodeToString(privDER),
	}, nil
}

// ParsePublicKey decodes a base64 SPKI public key.
func ParsePublicKey(encoded string) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(err, "decode public key")
	}
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, errors.Wrap(err, "parse public key")
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, errors.Errorf("not an RSA public key: %T", key)
	}
	return pub, nil
}

// ParsePrivateKey decodes a base64 PKCS#8 private key.
func ParsePrivateKey(encoded string) (*rsa.PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(err, "decode private key")
	}
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.Errorf("not an RSA private key: %T", key)
	}
	return priv, nil
}
