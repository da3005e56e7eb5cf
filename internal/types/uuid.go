package types

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// UUID_PREFIX values namespace generated identifiers by entity.
const (
	UUID_PREFIX_SUBSCRIPTION  = "subs"
	UUID_PREFIX_WEBHOOK_EVENT = "wbe"
	UUID_PREFIX_PORTFOLIO     = "pfl"
	UUID_PREFIX_REQUEST       = "req"
)

// GenerateUUID returns a lowercase ULID. ULIDs are lexicographically sortable
// by creation time which keeps audit tables naturally ordered.
func GenerateUUID() string {
	return strings.ToLower(ulid.Make().String())
}

// GenerateUUIDWithPrefix returns a prefixed ULID, ex: subs_01hx....
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return prefix + "_" + GenerateUUID()
}
