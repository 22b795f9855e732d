package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

// Cursor marks a position in a listing ordered by (timestamp DESC, id DESC),
// the order case listings use over updated_at. The next page starts strictly
// after this position.
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

// ErrInvalidCursor is returned when a cursor string cannot be decoded
var ErrInvalidCursor = errors.New("invalid cursor format")

// EncodeCursor packs the last row's id and timestamp into an opaque token.
// RFC3339Nano keeps full timestamp precision so rows updated in the same
// second still resume correctly.
func EncodeCursor(lastID string, timestamp time.Time) string {
	if lastID == "" {
		return ""
	}
	raw := lastID + "|" + timestamp.UTC().Format(time.RFC3339Nano)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor reverses EncodeCursor. An empty token means the first page
// and decodes to nil without error.
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[0] == "" {
		return nil, ErrInvalidCursor
	}

	timestamp, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{
		LastID:    parts[0],
		Timestamp: timestamp,
	}, nil
}
