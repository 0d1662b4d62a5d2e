package domain

import (
	"encoding/base64"
	"strconv"
)

// Page size bounds for list operations.
const (
	DefaultMaxResults = 100
	MaxMaxResults     = 1000
)

// PageRequest carries pagination parameters for list operations. PageToken
// is opaque to callers; internally it is a base64 row offset.
type PageRequest struct {
	MaxResults int
	PageToken  string
}

// Offset decodes the page token. Empty or garbage tokens start from the
// beginning rather than erroring, so a stale token degrades to page one.
func (p PageRequest) Offset() int {
	if p.PageToken == "" {
		return 0
	}
	raw, err := base64.StdEncoding.DecodeString(p.PageToken)
	if err != nil {
		return 0
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// Limit clamps the requested page size to [1, MaxMaxResults].
func (p PageRequest) Limit() int {
	switch {
	case p.MaxResults <= 0:
		return DefaultMaxResults
	case p.MaxResults > MaxMaxResults:
		return MaxMaxResults
	default:
		return p.MaxResults
	}
}

// EncodePageToken turns a row offset into an opaque token. Offset zero means
// the first page, which needs no token.
func EncodePageToken(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// NextPageToken returns the token for the page after the current one, or ""
// when the listing is exhausted.
func NextPageToken(offset, limit int, total int64) string {
	next := offset + limit
	if int64(next) >= total {
		return ""
	}
	return EncodePageToken(next)
}
