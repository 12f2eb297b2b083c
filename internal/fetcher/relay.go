package fetcher

import (
	"bytes"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// envelope is the JSON wrapper returned by allorigins-style relays.
type envelope struct {
	Contents *string        `json:"contents"`
	Status   envelopeStatus `json:"status"`
}

type envelopeStatus struct {
	URL         string `json:"url"`
	HTTPCode    int    `json:"http_code"`
	ContentType string `json:"content_type"`
}

// relayURL builds {relay}?url={escaped target}. Existing query parameters
// of the relay base URL are preserved.
func relayURL(relay, target string) (string, error) {
	u, err := url.Parse(relay)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("url", target)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// unwrapEnvelope decodes body as a relay envelope. ok is false when the
// body is not a JSON object carrying a contents string, in which case the
// body is the page itself. err is set only when the body claims to be JSON
// but cannot be decoded.
func unwrapEnvelope(body []byte, contentType string) (env *envelope, ok bool, err error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false, nil
	}

	var e envelope
	if err := json.Unmarshal(trimmed, &e); err != nil {
		if isJSONContentType(contentType) {
			return nil, false, err
		}
		return nil, false, nil
	}
	if e.Contents == nil {
		return nil, false, nil
	}
	return &e, true, nil
}

func isJSONContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "application/json") || strings.Contains(ct, "+json")
}
