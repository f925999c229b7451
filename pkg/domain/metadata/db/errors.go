package db

import "errors"

// page token is broken, or it is issued for other page size.
var ErrInvalidPageToken = errors.New("invalid page token")

// tables of the metadata store are not found.
var ErrNoSchema = errors.New("metadata store schema is not found")
