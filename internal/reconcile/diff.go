// Package reconcile converges managed allow-list resources onto the
// desired per-service CIDR lists.
//
// Two resource kinds are maintained: WAF IP sets, whose update API takes a
// full replacement payload, and managed prefix lists, whose update API
// takes incremental add/remove deltas and whose mutations complete
// asynchronously. Both paths compute the same Delta first; the replace
// style uses it only to decide whether an update is needed at all.
//
// No resource is ever deleted. Failures are isolated per service and
// resource kind by the Runner; everything below it propagates errors.
package reconcile

import "net/netip"

// Delta is the minimal change set between a desired CIDR list and a
// resource's current entries, compared as parsed network values so
// syntactic variants of the same network are equal.
type Delta struct {
	Add    []netip.Prefix
	Remove []netip.Prefix
}

// Empty reports whether applying the delta would change nothing.
func (d Delta) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// diffEntries computes Add = desired − current and Remove = current −
// desired. Input order is preserved: Add follows desired order, Remove
// follows current (backend) order, which fixes the order batches are
// applied in.
func diffEntries(desired, current []netip.Prefix) Delta {
	desiredSet := make(map[netip.Prefix]struct{}, len(desired))
	for _, p := range desired {
		desiredSet[p] = struct{}{}
	}
	currentSet := make(map[netip.Prefix]struct{}, len(current))
	for _, p := range current {
		currentSet[p] = struct{}{}
	}

	var delta Delta
	for _, p := range current {
		if _, ok := desiredSet[p]; !ok {
			delta.Remove = append(delta.Remove, p)
		}
	}
	for _, p := range desired {
		if _, ok := currentSet[p]; !ok {
			delta.Add = append(delta.Add, p)
		}
	}
	return delta
}
