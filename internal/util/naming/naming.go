// Package naming derives the names of managed allow-list resources.
//
// All resources managed by this tool share the "aws-ip-ranges" prefix so
// they can be identified (and excluded from manual edits) at a glance.
// A service maps to one resource per address family; lists that overflow a
// single prefix list continue into "-continued-<n>" siblings.
package naming

import (
	"fmt"
	"strings"
)

// Prefix is the common name prefix of every managed resource.
const Prefix = "aws-ip-ranges"

// Resource returns the canonical resource name for a service and address
// family token ("ipv4" or "ipv6"). Service names are lowercased and
// underscores become dashes, e.g. "API_GATEWAY" -> "aws-ip-ranges-api-gateway-ipv4".
func Resource(service, family string) string {
	return fmt.Sprintf("%s-%s-%s", Prefix, strings.ReplaceAll(strings.ToLower(service), "_", "-"), family)
}

// Continuation returns the name of chunk n of a chunked resource.
// Chunk 0 keeps the base name.
func Continuation(base string, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-continued-%d", base, n)
}
