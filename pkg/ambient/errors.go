package ambient

import (
	"errors"
	"fmt"
)

// ErrRecordNotFound is returned by DataSource.Read when no record matches.
var ErrRecordNotFound = errors.New("ambient: record not found")

func stringValue(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
