// Package digest computes content digests of asset files for cache-busting file
// names and integrity attributes. Digests never take part in copy decisions.
package digest

import (
	"crypto/md5"  //nolint:gosec // cache-busting names, not security
	"crypto/sha1" //nolint:gosec // cache-busting names, not security
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"

	"git.home.luguber.info/inful/pageassets/internal/foundation/errors"
)

// Algorithm names a digest function.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	SHA384 Algorithm = "sha384"
	SHA512 Algorithm = "sha512"
	BLAKE3 Algorithm = "blake3"
)

// Encoding names the text encoding of a digest.
type Encoding string

const (
	Hex       Encoding = "hex"
	Base64    Encoding = "base64"
	Base64URL Encoding = "base64url"
	Base32    Encoding = "base32"
)

var constructors = map[Algorithm]func() hash.Hash{
	MD5:    md5.New,
	SHA1:   sha1.New,
	SHA256: sha256.New,
	SHA384: sha512.New384,
	SHA512: sha512.New,
	BLAKE3: func() hash.Hash { return blake3.New() },
}

var encoders = map[Encoding]func([]byte) string{
	Hex:       hex.EncodeToString,
	Base64:    base64.StdEncoding.EncodeToString,
	Base64URL: base64.RawURLEncoding.EncodeToString,
	Base32:    func(b []byte) string { return strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)) },
}

// Supported reports whether alg is a known algorithm.
func Supported(alg Algorithm) bool {
	_, ok := constructors[alg]
	return ok
}

// SupportedEncoding reports whether enc is a known encoding.
func SupportedEncoding(enc Encoding) bool {
	_, ok := encoders[enc]
	return ok
}

// Digest is an encoded content digest.
type Digest struct {
	Algorithm Algorithm
	Encoding  Encoding
	Value     string
}

func (d Digest) String() string { return d.Value }

// Integrity returns the digest in "<alg>-<value>" form for integrity attributes.
func (d Digest) Integrity() string {
	return string(d.Algorithm) + "-" + d.Value
}

// FileStem returns the digest in a form usable as a file name.
func (d Digest) FileStem() string {
	if d.Encoding != Base64 {
		return d.Value
	}
	return strings.NewReplacer("+", "-", "/", "_", "=", "").Replace(d.Value)
}

// Reader hashes everything read from r.
func Reader(r io.Reader, alg Algorithm, enc Encoding) (Digest, error) {
	newHash, ok := constructors[alg]
	if !ok {
		return Digest{}, fmt.Errorf("unsupported hashing algorithm %q", alg)
	}
	encode, ok := encoders[enc]
	if !ok {
		return Digest{}, fmt.Errorf("unsupported digest encoding %q", enc)
	}
	h := newHash()
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, err
	}
	return Digest{Algorithm: alg, Encoding: enc, Value: encode(h.Sum(nil))}, nil
}

// File streams the file at path through the selected algorithm.
func File(path string, alg Algorithm, enc Encoding) (Digest, error) {
	f, err := os.Open(path) //nolint:gosec // asset paths come from resolved page references
	if err != nil {
		return Digest{}, errors.WrapError(err, errors.CategoryFileSystem, "open asset for hashing").
			WithContext("path", path).
			WithContext("operation", "hash").
			Build()
	}
	defer func() { _ = f.Close() }()

	d, err := Reader(f, alg, enc)
	if err != nil {
		return Digest{}, errors.WrapError(err, errors.CategoryFileSystem, "hash asset").
			WithContext("path", path).
			WithContext("operation", "hash").
			Build()
	}
	return d, nil
}
