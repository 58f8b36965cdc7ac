package credit

// Requests to and from a credit provider are digitally signed:
//
// 1) Encode every parameter of the request (except the signature itself)
//    as a string of the form "{key}:{value}".
// 2) Concatenate the key/value pairs in ascending order by key, with no
//    separator between pairs.
// 3) Compute the HMAC-SHA256 digest of the encoded parameters, using the
//    secret key shared with the provider.
// 4) Encode the digest in lowercase hexadecimal.
//
// The encoding is deterministic: the same key/value set always produces the
// same signature no matter how the parameter map was built.

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// SignatureKey is the parameter that carries the signature itself. It is
// always excluded from the signed payload.
const SignatureKey = "signature"

// Sign computes the hex-encoded HMAC-SHA256 signature of the parameters.
func Sign(params map[string]string, sharedSecret string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if key == SignatureKey {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	mac := hmac.New(sha256.New, []byte(sharedSecret))
	for _, key := range keys {
		mac.Write([]byte(key))
		mac.Write([]byte(":"))
		mac.Write([]byte(params[key]))
	}
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a provider-supplied signature against the one we
// compute for the same parameters. Comparison is constant-time.
func VerifySignature(params map[string]string, sharedSecret, provided string) bool {
	expected := Sign(params, sharedSecret)
	return hmac.Equal([]byte(expected), []byte(provided))
}
