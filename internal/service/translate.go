package service

import (
	"fmt"
	"net/http"
	"strings"

	"gateway-proxy-go/internal/config"
	"gateway-proxy-go/internal/model"
)

// strippedRequestHeaders are removed from every forwarded request. The
// framing headers describe the inbound body, which may be dropped; the client
// derives its own from the outbound body.
var strippedRequestHeaders = []string{"Host", "X-Forwarded-For", "Content-Length", "Transfer-Encoding"}

// Translator turns inbound gateway requests into outbound upstream requests.
type Translator struct {
	lookup config.Lookup
}

// NewTranslator creates a Translator that reads TARGET_URL from lookup on every call.
func NewTranslator(lookup config.Lookup) *Translator {
	return &Translator{lookup: lookup}
}

// Translate builds the outbound request for in.
func (t *Translator) Translate(in *model.InboundRequest) (*model.OutboundRequest, error) {
	base, err := t.lookup.String(config.KeyTargetURL)
	if err != nil {
		return nil, model.NewError(model.KindConfigurationMissing, err)
	}
	if err := config.ValidateBaseURL(base); err != nil {
		return nil, model.NewError(model.KindConfigurationMissing, fmt.Errorf("%s: %w", config.KeyTargetURL, err))
	}

	target := base + in.Path
	if in.RawQuery != "" {
		target += "?" + in.RawQuery
	}

	out := &model.OutboundRequest{
		Method: in.Method,
		URL:    target,
		Header: forwardHeaders(in.Header),
	}
	if in.Method != http.MethodGet && in.Method != http.MethodHead {
		out.Body = in.Body
	}
	return out, nil
}

// forwardHeaders copies src under canonical names, without the stripped
// names (matched case-insensitively).
func forwardHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		if isStripped(key) {
			continue
		}
		for _, v := range vals {
			dst.Add(key, v)
		}
	}
	return dst
}

func isStripped(name string) bool {
	for _, s := range strippedRequestHeaders {
		if strings.EqualFold(name, s) {
			return true
		}
	}
	return false
}
