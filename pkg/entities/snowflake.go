package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Snowflake is a Discord ID. It is always encoded as a string, but decodes from either a JSON string or a JSON number
// so that documents written with numeric IDs can still be loaded.
type Snowflake string

// String implements the fmt.Stringer interface.
func (s Snowflake) String() string {
	return string(s)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *Snowflake) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return fmt.Errorf("error decoding snowflake: %w", err)
		}
		*s = Snowflake(str)
		return nil
	}

	n, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("could not parse snowflake %s: %w", b, err)
	}
	*s = Snowflake(strconv.FormatUint(n, 10))
	return nil
}

// SnowflakePtr returns a pointer to the snowflake for the given ID.
func SnowflakePtr(id string) *Snowflake {
	s := Snowflake(id)
	return &s
}
