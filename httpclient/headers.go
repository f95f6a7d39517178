package httpclient

import (
	"sort"
	"strings"
)

const (
	headerContentType = "content-type"
	headerUserAgent   = "user-agent"
)

// normalizeHeaders returns a copy with lower-case keys and a lower-case
// content-type value. Used for internal decisions only.
func normalizeHeaders(h Headers) Headers {
	out := make(Headers, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = v
	}
	if ct, ok := out[headerContentType]; ok {
		out[headerContentType] = strings.ToLower(ct)
	}
	return out
}

// remapHeaders writes values from the normalized set back onto the
// original-cased keys of raw. Keys present only in patch are added as-is.
func remapHeaders(raw, normalized, patch Headers) Headers {
	for k := range raw {
		if v, ok := normalized[strings.ToLower(k)]; ok {
			raw[k] = v
		}
	}
	for k, v := range patch {
		found := false
		for rk := range raw {
			if strings.EqualFold(rk, k) {
				raw[rk] = v
				found = true
			}
		}
		if !found {
			raw[k] = v
		}
	}
	return raw
}

// serializeHeaders renders headers as "Name: value" lines in key order.
func serializeHeaders(h Headers) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+h[k])
	}
	return lines
}

// splitHeaderLine splits a raw header line on its first colon.
func splitHeaderLine(line string) (string, string, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", "", false
	}
	k, v, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(k), strings.TrimSpace(v), true
}

// mediaType lower-cases a content-type value and drops its parameters.
func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
