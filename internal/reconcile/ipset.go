package reconcile

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"iprangesync/internal/config"
	"iprangesync/internal/netsum"
	"iprangesync/internal/platform/awswaf"
	"iprangesync/internal/ranges"
	"iprangesync/internal/util/naming"
)

// IPSetReconciler converges WAF IP sets onto desired CIDR lists. The IP
// set inventory of each scope is listed once per run and cached.
type IPSetReconciler struct {
	client awswaf.Client
	now    func() time.Time

	inventories map[string]map[string]awswaf.IPSet
}

// NewIPSetReconciler creates a reconciler with cold caches.
func NewIPSetReconciler(client awswaf.Client) *IPSetReconciler {
	return &IPSetReconciler{
		client:      client,
		now:         time.Now,
		inventories: make(map[string]map[string]awswaf.IPSet),
	}
}

// ReconcileService converges the IP sets of one service within one scope,
// one set per address family with ranges. It returns the names created and
// updated; on error the caller discards both and isolates the failure.
func (r *IPSetReconciler) ReconcileService(ctx context.Context, scope string, svc config.Service, rng *ranges.ServiceRanges) (created, updated []string, err error) {
	sets, err := r.inventory(ctx, scope)
	if err != nil {
		return nil, nil, err
	}

	for _, fam := range []struct {
		family netsum.Family
		list   []string
	}{
		{netsum.IPv4, rng.IPv4},
		{netsum.IPv6, rng.IPv6},
	} {
		if len(fam.list) == 0 {
			log.Debug("No ranges for family, skipping IP set", "service", svc.Name, "family", fam.family)
			continue
		}

		addressList := fam.list
		if svc.WafIPSet.Summarize && len(addressList) > 1 {
			addressList, err = netsum.Summarize(fam.family, addressList)
			if err != nil {
				return created, updated, err
			}
		}

		name := naming.Resource(svc.Name, fam.family.String())
		if set, ok := sets[name]; ok {
			didUpdate, err := r.update(ctx, scope, set, fam.family, addressList)
			if err != nil {
				return created, updated, err
			}
			if didUpdate {
				updated = append(updated, name)
			}
		} else {
			if err := r.create(ctx, scope, name, fam.family, addressList); err != nil {
				return created, updated, err
			}
			created = append(created, name)
		}
	}

	return created, updated, nil
}

// inventory lists the scope's IP sets on first use and caches the result
// for the remainder of the run.
func (r *IPSetReconciler) inventory(ctx context.Context, scope string) (map[string]awswaf.IPSet, error) {
	if sets, ok := r.inventories[scope]; ok {
		return sets, nil
	}

	log.Info("Listing IP sets", "scope", scope)
	sets, err := r.client.ListIPSets(ctx, scope)
	if err != nil {
		return nil, err
	}
	r.inventories[scope] = sets
	return sets, nil
}

func (r *IPSetReconciler) create(ctx context.Context, scope, name string, family netsum.Family, addressList []string) error {
	log.Info("Creating IP set", "name", name, "scope", scope, "entries", len(addressList))

	tags := []awswaf.Tag{
		{Key: "Name", Value: name},
		{Key: "ManagedBy", Value: managedByValue},
		{Key: "CreatedAt", Value: timestamp(r.now)},
		{Key: "UpdatedAt", Value: notYetUpdated},
	}
	return r.client.CreateIPSet(ctx, scope, name, family, addressList, entryDescription, tags)
}

// update diffs the set against the desired list and, when they differ,
// replaces the whole entry list. The delta only gates the call: this API
// takes a full replacement payload, never an incremental one.
func (r *IPSetReconciler) update(ctx context.Context, scope string, set awswaf.IPSet, family netsum.Family, addressList []string) (bool, error) {
	desired, err := netsum.ParseList(family, addressList)
	if err != nil {
		return false, err
	}

	addresses, err := r.client.GetAddresses(ctx, scope, set)
	if err != nil {
		return false, err
	}
	current, err := netsum.ParseList(family, addresses)
	if err != nil {
		return false, err
	}

	delta := diffEntries(desired, current)
	if delta.Empty() {
		log.Info("Nothing to add or remove", "name", set.Name)
		return false, nil
	}

	log.Info("Updating IP set", "name", set.Name, "scope", scope,
		"entries", len(addressList), "add", len(delta.Add), "remove", len(delta.Remove))
	if err := r.client.UpdateIPSet(ctx, scope, set, addressList); err != nil {
		return false, err
	}

	tags := []awswaf.Tag{{Key: "UpdatedAt", Value: timestamp(r.now)}}
	if err := r.client.TagResource(ctx, set.ARN, tags); err != nil {
		return false, err
	}
	return true, nil
}
