package portal

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/muurk/wifiprov/internal/credstore"
)

const (
	// FieldNetworkName is the form field carrying the network name
	FieldNetworkName = "ssid"

	// FieldSecret is the form field carrying the secret
	FieldSecret = "password"
)

// ParseSubmission extracts the credential pair from a form body.
//
// The body is split at the first '&'. The first segment's value ends there;
// the second segment's value runs to the end of the buffer or the first
// whitespace, so it may contain further '&'. Values are form-decoded when
// they decode cleanly and kept verbatim otherwise, then truncated to the
// credential bounds. Unknown keys are ignored.
func ParseSubmission(body []byte) credstore.Pair {
	var pair credstore.Pair

	first, rest, found := strings.Cut(string(body), "&")
	assignField(&pair, first, !found)
	if found {
		assignField(&pair, rest, true)
	}

	return pair.Truncated()
}

func assignField(pair *credstore.Pair, segment string, last bool) {
	key, value, ok := strings.Cut(segment, "=")
	if !ok {
		return
	}
	if last {
		if i := strings.IndexFunc(value, unicode.IsSpace); i >= 0 {
			value = value[:i]
		}
	}
	value = decodeValue(value)

	switch key {
	case FieldNetworkName:
		pair.NetworkName = value
	case FieldSecret:
		pair.Secret = value
	}
}

func decodeValue(v string) string {
	decoded, err := url.QueryUnescape(v)
	if err != nil {
		return v
	}
	return decoded
}
