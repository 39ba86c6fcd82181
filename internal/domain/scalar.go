package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Identifier is an id issued by the inventory service, held as the JSON
// token it arrived as. 5 and "5" are different ids, and each is written back
// exactly as received. A value that is not a JSON token, such as
// Identifier("abc") built from operator input, encodes as a JSON string.
type Identifier string

// ParseIdentifier turns operator input into an identifier: JSON numbers and
// quoted JSON strings are taken as tokens, anything else as a string id.
func ParseIdentifier(text string) Identifier {
	if isToken([]byte(text)) {
		return Identifier(text)
	}
	return StringIdentifier(text)
}

// StringIdentifier returns the identifier of the JSON string s.
func StringIdentifier(s string) Identifier {
	b, _ := json.Marshal(s)
	return Identifier(b)
}

// String returns the id as displayed: string ids without their quotes.
func (id Identifier) String() string {
	return scalarText(string(id))
}

// Token returns the JSON token of the id.
func (id Identifier) Token() string {
	return string(id)
}

// IsNumeric reports whether the id is a JSON number.
func (id Identifier) IsNumeric() bool {
	return jsonNumber.MatchString(string(id))
}

// Matches reports whether text names this id, either as its token or as
// its displayed text.
func (id Identifier) Matches(text string) bool {
	return string(id) == text || id.String() == text
}

// UnmarshalJSON accepts a JSON string or number.
func (id *Identifier) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if !isToken(data) {
		return fmt.Errorf("identifier: expected string or number, got %s", data)
	}
	*id = Identifier(data)
	return nil
}

// MarshalJSON writes the id back as it was received.
func (id Identifier) MarshalJSON() ([]byte, error) {
	return encodeScalar(string(id))
}

// Port is a service port as sent by the inventory service: a number (80) or
// a string such as a range ("8000-8080"). Ports are display-only and any
// JSON scalar is kept verbatim.
type Port string

// String returns the port as displayed.
func (p Port) String() string {
	return scalarText(string(p))
}

// UnmarshalJSON accepts any JSON scalar.
func (p *Port) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '{' || data[0] == '[' {
		return fmt.Errorf("port: expected a scalar, got %s", data)
	}
	*p = Port(data)
	return nil
}

// MarshalJSON writes the port back as it was received.
func (p Port) MarshalJSON() ([]byte, error) {
	return encodeScalar(string(p))
}

// isToken reports whether data is a JSON number or a JSON string.
func isToken(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if data[0] == '"' {
		return json.Valid(data)
	}
	return jsonNumber.Match(data)
}

// scalarText returns the displayed text of a JSON scalar token. Text that is
// not a string token is returned as is.
func scalarText(token string) string {
	if len(token) > 0 && token[0] == '"' {
		var s string
		if err := json.Unmarshal([]byte(token), &s); err == nil {
			return s
		}
	}
	return token
}

func encodeScalar(token string) ([]byte, error) {
	if token == "" {
		return []byte("null"), nil
	}
	if isToken([]byte(token)) || token == "true" || token == "false" || token == "null" {
		return []byte(token), nil
	}
	return json.Marshal(token)
}
