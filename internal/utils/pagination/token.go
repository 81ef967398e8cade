// Package pagination encodes keyset cursors for entry listings.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano

// EncodeToken builds the cursor for the last entry of a page. Entries are
// ordered by entry date then creation time, both descending.
func EncodeToken(entryDate time.Time, createdAt time.Time) string {
	raw := entryDate.UTC().Format(timeFormat) + "|" + createdAt.UTC().Format(timeFormat)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeToken reverses EncodeToken.
func DecodeToken(token string) (entryDate time.Time, createdAt time.Time, err error) {
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid page token: %w", err)
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid page token: expected two fields")
	}

	if entryDate, err = time.Parse(timeFormat, parts[0]); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid page token entry date: %w", err)
	}
	if createdAt, err = time.Parse(timeFormat, parts[1]); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid page token created_at: %w", err)
	}
	return entryDate, createdAt, nil
}
