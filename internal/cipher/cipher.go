// Package cipher seals and opens message bodies with RSA-OAEP (SHA-256).
// Ciphertext is base64 and interchangeable with what a WebCrypto client
// produces for the same key.
package cipher

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"

	"whisperchat/internal/apperr"
	"whisperchat/internal/keys"
)

// MaxPlaintext is the OAEP capacity of a 2048-bit modulus with SHA-256:
// 256 - 2*32 - 2 bytes. Longer plaintext is rejected outright rather than
// silently truncated or sent unencrypted.
const MaxPlaintext = keys.ModulusBits/8 - 2*sha256.Size - 2

// Encrypt seals plaintext under the recipient's base64 SPKI public key.
// OAEP padding is randomized: equal inputs produce different ciphertext, so
// ciphertext equality implies nothing about plaintext equality.
func Encrypt(plaintext, recipientPublicKey string) (string, error) {
	if len(plaintext) > MaxPlaintext {
		return "", apperr.Newf(apperr.KindValidation,
			"message is %d bytes, limit is %d", len(plaintext), MaxPlaintext)
	}

	pub, err := keys.ParsePublicKey(recipientPublicKey)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, err, "recipient public key")
	}

	sealed, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, []byte(plaintext), nil)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, err, "encrypt message")
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a base64 ciphertext with the holder's base64 PKCS#8 private
// key. Any failure — undecodable input, wrong key, truncation, bad padding —
// is a decryption-kind error scoped to this one message; callers must treat
// it as recoverable, not fatal to their session.
func Decrypt(ciphertext, ownPrivateKey string) (string, error) {
	priv, err := keys.ParsePrivateKey(ownPrivateKey)
	if err != nil {
		return "", apperr.Wrap(apperr.KindDecryption, err, "private key")
	}

	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", apperr.Wrap(apperr.KindDecryption, err, "decode ciphertext")
	}

	plain, err := rsa.DecryptOAEP(sha256.New(), nil, priv, sealed, nil)
	if err != nil {
		return "", apperr.Wrap(apperr.KindDecryption, err, "decrypt message")
	}
	return string(plain), nil
}

// Opened is the result of attempting to open one message. A failed open
// never carries the ciphertext: consumers that want something displayable
// use Render, which substitutes an explicit marker.
type Opened struct {
	Plaintext string
	OK        bool
	Reason    string
}

// Undecryptable is what Render shows in place of a message that could not
// be opened.
const Undecryptable = "[undecryptable]"

func (o Opened) Render() string {
	if o.OK {
		return o.Plaintext
	}
	return Undecryptable
}

// Open decrypts one message into a tagged result. Used when rendering a
// conversation: each message is opened independently, so one bad envelope
// cannot take the rest down with it.
func Open(ciphertext, ownPrivateKey string) Opened {
	plain, err := Decrypt(ciphertext, ownPrivateKey)
	if err != nil {
		return Opened{Reason: err.Error()}
	}
	return Opened{Plaintext: plain, OK: true}
}
