package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ID is a record identifier.
// Ids regularly arrive as strings from form inputs, so decoding accepts both 42 and "42".
// Negative, fractional and non-numeric ids decode as 0, which never matches a record.
type ID int

// ParseID converts form input into an ID. Blank or non-numeric input yields 0, which never matches a record.
func ParseID(s string) ID {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return ID(n)
}

func (id ID) String() string { return strconv.Itoa(int(id)) }

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ParseID(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return errors.Wrap(err, "decoding id")
	}
	if f < 0 || f != math.Trunc(f) {
		*id = 0
		return nil
	}
	*id = ID(f)
	return nil
}
