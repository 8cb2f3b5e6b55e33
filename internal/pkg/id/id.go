package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable by
// creation time, which keeps offboarding requests and job records naturally
// ordered under their DynamoDB keys.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
