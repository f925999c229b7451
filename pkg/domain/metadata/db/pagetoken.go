package db

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type pageToken struct {
	// id of the last item in the previous page.
	After int64 `json:"after"`

	// page size the token is issued for.
	Size int `json:"size"`
}

// NormalizePageSize returns page size to be used actually.
func NormalizePageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if MaxPageSize < size {
		return MaxPageSize
	}
	return size
}

// EncodePageToken issues a token pointing the page after the item with id `after`.
func EncodePageToken(after int64, size int) string {
	b, _ := json.Marshal(pageToken{After: after, Size: size})
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodePageToken parses a token and returns the id of the last item of the previous page.
//
// Empty token means the first page, and then it returns 0.
//
// Returns
//
// - int64: id which items of the page should be greater than.
//
// - error: ErrInvalidPageToken when the token is broken or is issued for other page size than `size`.
func DecodePageToken(token string, size int) (int64, error) {
	if token == "" {
		return 0, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidPageToken, err)
	}
	t := pageToken{}
	if err := json.Unmarshal(b, &t); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidPageToken, err)
	}
	if t.Size != size {
		return 0, fmt.Errorf(
			"%w: the token is issued for page size %d, but used with %d",
			ErrInvalidPageToken, t.Size, size,
		)
	}
	return t.After, nil
}
