// Package netsum parses, orders and collapses CIDR lists.
//
// Lists are homogeneous per address family. Summarization merges
// overlapping and adjacent networks into the minimal covering set; sorting
// orders by parsed network value without merging. Canonical rendering is
// dotted/prefix form for IPv4 and the fully expanded form for IPv6.
package netsum

import (
	"fmt"
	"net/netip"
	"slices"
	"strconv"

	"go4.org/netipx"
)

// Family is an IP address family.
type Family int

const (
	IPv4 Family = iota + 1
	IPv6
)

// String returns the lowercase family token used in resource names.
func (f Family) String() string {
	if f == IPv6 {
		return "ipv6"
	}
	return "ipv4"
}

// ParseError reports a CIDR string that could not be parsed as a network
// of the expected address family.
type ParseError struct {
	CIDR   string
	Family Family
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s as %s network: %v", e.CIDR, e.Family, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse parses cidr as a network of the given family. The address must be
// the network address: host bits set beyond the prefix length are rejected,
// as is a prefix of the wrong family.
func Parse(family Family, cidr string) (netip.Prefix, error) {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return netip.Prefix{}, &ParseError{CIDR: cidr, Family: family, Err: err}
	}
	if family == IPv4 && !p.Addr().Is4() {
		return netip.Prefix{}, &ParseError{CIDR: cidr, Family: family, Err: fmt.Errorf("not an IPv4 network")}
	}
	if family == IPv6 && p.Addr().Is4() {
		return netip.Prefix{}, &ParseError{CIDR: cidr, Family: family, Err: fmt.Errorf("not an IPv6 network")}
	}
	if p.Masked() != p {
		return netip.Prefix{}, &ParseError{CIDR: cidr, Family: family, Err: fmt.Errorf("host bits set")}
	}
	return p, nil
}

// ParseList parses every entry of cidrs as a network of the given family.
func ParseList(family Family, cidrs []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		p, err := Parse(family, cidr)
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, p)
	}
	return prefixes, nil
}

// Render returns the canonical string form of a prefix: dotted/prefix for
// IPv4, fully expanded for IPv6.
func Render(family Family, p netip.Prefix) string {
	if family == IPv6 {
		return p.Addr().StringExpanded() + "/" + strconv.Itoa(p.Bits())
	}
	return p.String()
}

// Summarize collapses cidrs into the minimal set of covering networks,
// sorted ascending and rendered canonically. A single-entry IPv4 list is
// returned unchanged without invoking the merge step.
//
// Summarize is idempotent: applying it to its own output is a no-op.
func Summarize(family Family, cidrs []string) ([]string, error) {
	if family == IPv4 && len(cidrs) == 1 {
		return slices.Clone(cidrs), nil
	}

	prefixes, err := ParseList(family, cidrs)
	if err != nil {
		return nil, err
	}

	var builder netipx.IPSetBuilder
	for _, p := range prefixes {
		builder.AddPrefix(p)
	}
	set, err := builder.IPSet()
	if err != nil {
		return nil, fmt.Errorf("collapsing networks: %w", err)
	}

	collapsed := set.Prefixes()
	out := make([]string, 0, len(collapsed))
	for _, p := range collapsed {
		out = append(out, Render(family, p))
	}
	return out, nil
}

// Sort orders cidrs ascending by parsed network value (address, then
// prefix length) without merging. The sort is stable. IPv4 entries keep
// their original spelling; IPv6 entries are rendered in expanded form.
// Lists shorter than two entries are returned unchanged.
func Sort(family Family, cidrs []string) ([]string, error) {
	if len(cidrs) < 2 {
		return slices.Clone(cidrs), nil
	}

	prefixes, err := ParseList(family, cidrs)
	if err != nil {
		return nil, err
	}

	if family == IPv4 {
		idx := make([]int, len(cidrs))
		for i := range idx {
			idx[i] = i
		}
		slices.SortStableFunc(idx, func(i, j int) int {
			return comparePrefixes(prefixes[i], prefixes[j])
		})
		out := make([]string, len(cidrs))
		for n, i := range idx {
			out[n] = cidrs[i]
		}
		return out, nil
	}

	slices.SortStableFunc(prefixes, comparePrefixes)
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, Render(family, p))
	}
	return out, nil
}

func comparePrefixes(a, b netip.Prefix) int {
	if c := a.Addr().Compare(b.Addr()); c != 0 {
		return c
	}
	switch {
	case a.Bits() < b.Bits():
		return -1
	case a.Bits() > b.Bits():
		return 1
	}
	return 0
}
