package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Encoding is how a processor renders the HMAC digest in its signature
// header.
type Encoding int

const (
	EncodingBase64 Encoding = iota
	EncodingHex
)

func (e Encoding) encode(sum []byte) string {
	if e == EncodingHex {
		return hex.EncodeToString(sum)
	}
	return base64.StdEncoding.EncodeToString(sum)
}

func (e Encoding) decode(s string) ([]byte, error) {
	if e == EncodingHex {
		return hex.DecodeString(s)
	}
	return base64.StdEncoding.DecodeString(s)
}

// Verifier authenticates webhook bodies with HMAC-SHA256 over the raw bytes.
type Verifier struct {
	secret   []byte
	encoding Encoding
}

// NewVerifier returns a Verifier for secret. An empty secret rejects
// everything.
func NewVerifier(secret string, encoding Encoding) *Verifier {
	return &Verifier{secret: []byte(secret), encoding: encoding}
}

// Sign returns the header value a processor would send for body.
func (v *Verifier) Sign(body []byte) string {
	return "sha256=" + v.encoding.encode(v.sum(body))
}

// Verify reports whether header carries a valid signature for body. The
// header may omit the "sha256=" prefix.
func (v *Verifier) Verify(body []byte, header string) bool {
	return VerifySignature(body, header, v.secret, v.encoding)
}

func (v *Verifier) sum(body []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return mac.Sum(nil)
}

// VerifySignature checks header against HMAC-SHA256(secret, body). Digests
// are compared in constant time; anything undecodable fails.
func VerifySignature(body []byte, header string, secret []byte, encoding Encoding) bool {
	header = strings.TrimSpace(header)
	if header == "" || len(secret) == 0 {
		return false
	}
	got, err := encoding.decode(strings.TrimPrefix(header, "sha256="))
	if err != nil || len(got) != sha256.Size {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
