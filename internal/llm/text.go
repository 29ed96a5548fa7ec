package llm

import (
	"encoding/json"
	"strings"
)

// TextContent returns a plain-text response body. Providers return raw
// text, but canned and proxied responses may arrive JSON-quoted.
func TextContent(resp *Response) string {
	if resp == nil {
		return ""
	}
	raw := strings.TrimSpace(string(resp.Content))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(resp.Content, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return raw
}

// Decode validates a structured response against schema and unmarshals
// it into out.
func Decode(resp *Response, schema *Schema, out any) error {
	if resp == nil {
		return invalid(nil, "nil response")
	}
	if err := schema.Check(resp.Content); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Content, out); err != nil {
		return invalid(resp.Content, "decode: %w", err)
	}
	return nil
}
