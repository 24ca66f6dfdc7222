package config

import (
	"git.home.luguber.info/inful/pageassets/internal/digest"
	"git.home.luguber.info/inful/pageassets/internal/foundation/normalization"
)

var modeNormalizer = normalization.NewNormalizer("mode", map[string]Mode{
	"parse":     ModeParse,
	"directory": ModeDirectory,
}, ModeParse)

var algNormalizer = normalization.NewNormalizer("hashing algorithm", map[string]digest.Algorithm{
	"md5":    digest.MD5,
	"sha1":   digest.SHA1,
	"sha256": digest.SHA256,
	"sha384": digest.SHA384,
	"sha512": digest.SHA512,
	"blake3": digest.BLAKE3,
}, digest.SHA1)

var encodingNormalizer = normalization.NewNormalizer("digest encoding", map[string]digest.Encoding{
	"hex":       digest.Hex,
	"base64":    digest.Base64,
	"base64url": digest.Base64URL,
	"base32":    digest.Base32,
}, digest.Hex)

// ParseMode normalizes raw into a Mode. Empty input selects parse mode.
func ParseMode(raw string) (Mode, error) {
	return modeNormalizer.NormalizeWithError(raw)
}
