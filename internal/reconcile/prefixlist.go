package reconcile

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/charmbracelet/log"

	"iprangesync/internal/config"
	"iprangesync/internal/netsum"
	"iprangesync/internal/platform/awsec2"
	"iprangesync/internal/ranges"
	"iprangesync/internal/util/naming"
	"iprangesync/internal/util/poll"
)

const (
	// entryBatchSize is the backend's cap on entry additions plus
	// removals per modify call.
	entryBatchSize = 100

	// createCapacityHeadroom is the extra capacity granted at creation so
	// the list can grow without an immediate resize.
	createCapacityHeadroom = 10

	// backendMaxEntries is the backend's absolute per-list entry ceiling.
	backendMaxEntries = 1000
)

// PrefixListReconciler converges managed prefix lists onto desired CIDR
// lists, chunking lists that exceed the configured per-instance size. The
// prefix list inventory is listed once per run and cached.
type PrefixListReconciler struct {
	client   awsec2.Client
	now      func() time.Time
	pollOpts []poll.Option

	inventory map[string]awsec2.PrefixList
}

// NewPrefixListReconciler creates a reconciler with cold caches.
func NewPrefixListReconciler(client awsec2.Client) *PrefixListReconciler {
	return &PrefixListReconciler{
		client: client,
		now:    time.Now,
	}
}

// ReconcileService converges the prefix lists of one service, one chunked
// resource group per address family with ranges. It returns the names
// created and updated; on error the caller discards both and isolates the
// failure. Chunks whose desired content disappears on a later run are left
// in place untouched.
func (r *PrefixListReconciler) ReconcileService(ctx context.Context, svc config.Service, rng *ranges.ServiceRanges) (created, updated []string, err error) {
	lists, err := r.listInventory(ctx)
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
			log.Debug("No ranges for family, skipping prefix list", "service", svc.Name, "family", fam.family)
			continue
		}

		addressList := fam.list
		if svc.PrefixList.Summarize && len(addressList) > 1 {
			addressList, err = netsum.Summarize(fam.family, addressList)
			if err != nil {
				return created, updated, err
			}
		}

		base := naming.Resource(svc.Name, fam.family.String())
		for i, chunk := range chunkStrings(addressList, svc.PrefixList.ChunkSize) {
			name := naming.Continuation(base, i)
			if pl, ok := lists[name]; ok {
				didUpdate, err := r.update(ctx, pl, fam.family, chunk)
				if err != nil {
					return created, updated, err
				}
				if didUpdate {
					updated = append(updated, name)
				}
			} else {
				if err := r.create(ctx, name, fam.family, chunk); err != nil {
					return created, updated, err
				}
				created = append(created, name)
			}
		}
	}

	return created, updated, nil
}

// listInventory lists all prefix lists on first use and caches the result
// for the remainder of the run.
func (r *PrefixListReconciler) listInventory(ctx context.Context) (map[string]awsec2.PrefixList, error) {
	if r.inventory != nil {
		return r.inventory, nil
	}

	log.Info("Listing managed prefix lists")
	lists, err := r.client.ListPrefixLists(ctx)
	if err != nil {
		return nil, err
	}
	r.inventory = lists
	return lists, nil
}

// create makes a prefix list holding chunk, sized with growth headroom.
// Entries beyond the first batch are appended through successive modify
// calls, waiting out in-progress states between calls.
func (r *PrefixListReconciler) create(ctx context.Context, name string, family netsum.Family, chunk []string) error {
	entries := make([]awsec2.Entry, 0, len(chunk))
	for _, cidr := range chunk {
		entries = append(entries, awsec2.Entry{CIDR: cidr, Description: entryDescription})
	}

	maxEntries := min(len(entries)+createCapacityHeadroom, backendMaxEntries)
	first := entries[:min(entryBatchSize, len(entries))]

	log.Info("Creating prefix list", "name", name, "family", family,
		"entries", len(entries), "maxEntries", maxEntries)
	tags := []awsec2.Tag{
		{Key: "Name", Value: name},
		{Key: "ManagedBy", Value: managedByValue},
		{Key: "CreatedAt", Value: timestamp(r.now)},
		{Key: "UpdatedAt", Value: notYetUpdated},
	}
	pl, err := r.client.CreatePrefixList(ctx, name, family, int32(maxEntries), first, tags)
	if err != nil {
		return err
	}

	for start := entryBatchSize; start < len(entries); start += entryBatchSize {
		pl, err = r.awaitStable(ctx, pl)
		if err != nil {
			return err
		}

		end := min(start+entryBatchSize, len(entries))
		log.Info("Appending prefix list entries", "name", name, "from", start, "to", end)
		pl, err = r.client.ModifyEntries(ctx, pl.ID, pl.Version, name, entries[start:end], nil)
		if err != nil {
			return err
		}
	}

	return nil
}

// update diffs the prefix list against the desired chunk and applies the
// delta through batched incremental modify calls. A capacity resize, when
// needed, strictly precedes the first entry change: the backend rejects
// resizing and re-contenting in one call.
func (r *PrefixListReconciler) update(ctx context.Context, pl awsec2.PrefixList, family netsum.Family, chunk []string) (bool, error) {
	desired, err := netsum.ParseList(family, chunk)
	if err != nil {
		return false, err
	}

	entries, err := r.client.GetEntries(ctx, pl.ID, pl.Version)
	if err != nil {
		return false, err
	}
	current := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		p, err := netsum.Parse(family, e.CIDR)
		if err != nil {
			return false, err
		}
		current = append(current, p)
	}

	delta := diffEntries(desired, current)
	if delta.Empty() {
		log.Info("Nothing to add or remove", "name", pl.Name)
		return false, nil
	}

	version := pl.Version
	if len(delta.Add) > 0 && int(pl.MaxEntries) < len(chunk) {
		version, err = r.grow(ctx, pl, len(chunk))
		if err != nil {
			return false, err
		}
	}

	add := make([]awsec2.Entry, 0, len(delta.Add))
	for _, p := range delta.Add {
		add = append(add, awsec2.Entry{CIDR: p.String(), Description: entryDescription})
	}
	remove := make([]string, 0, len(delta.Remove))
	for _, p := range delta.Remove {
		remove = append(remove, p.String())
	}

	log.Info("Updating prefix list", "name", pl.Name, "entries", len(chunk),
		"add", len(add), "remove", len(remove))
	cur, err := r.client.ModifyEntries(ctx, pl.ID, version, pl.Name,
		batchEntries(add, 0), batchStrings(remove, 0))
	if err != nil {
		return false, err
	}

	total := max(len(add), len(remove))
	for start := entryBatchSize; start < total; start += entryBatchSize {
		cur, err = r.awaitStable(ctx, cur)
		if err != nil {
			return false, err
		}

		log.Info("Updating prefix list, next batch", "name", pl.Name, "from", start)
		cur, err = r.client.ModifyEntries(ctx, cur.ID, cur.Version, cur.Name,
			batchEntries(add, start), batchStrings(remove, start))
		if err != nil {
			return false, err
		}
	}

	tags := []awsec2.Tag{{Key: "UpdatedAt", Value: timestamp(r.now)}}
	if err := r.client.CreateTags(ctx, pl.ID, tags); err != nil {
		return false, err
	}
	return true, nil
}

// grow raises the capacity ceiling to target and waits for the resize to
// complete. It returns the version to use for the subsequent entry
// changes. A state string outside the modify lifecycle is a contract
// violation that abandons the resource's remaining operations.
func (r *PrefixListReconciler) grow(ctx context.Context, pl awsec2.PrefixList, target int) (int64, error) {
	log.Info("Growing prefix list capacity", "name", pl.Name,
		"from", pl.MaxEntries, "to", target)
	resized, err := r.client.Resize(ctx, pl.ID, pl.Name, int32(target))
	if err != nil {
		return 0, err
	}

	switch resized.State {
	case awsec2.StateModifyInProgress, awsec2.StateModifyComplete:
	case awsec2.StateModifyFailed:
		return 0, fmt.Errorf("prefix list %s capacity resize failed: %s", pl.Name, resized.StateMessage)
	default:
		return 0, &StateError{Resource: pl.Name, State: resized.State, Message: resized.StateMessage}
	}

	if resized.State == awsec2.StateModifyInProgress {
		if _, err := r.awaitStable(ctx, resized); err != nil {
			return 0, err
		}
	}
	return resized.Version, nil
}

// awaitStable waits for an in-progress prefix list to reach a completed
// state, polling on the bounded additive schedule. Exhausting the budget
// is fatal for the resource's remaining operations.
func (r *PrefixListReconciler) awaitStable(ctx context.Context, pl awsec2.PrefixList) (awsec2.PrefixList, error) {
	if pl.State != awsec2.StateCreateInProgress && pl.State != awsec2.StateModifyInProgress {
		return pl, nil
	}

	log.Info("Prefix list operation in progress, waiting", "name", pl.Name, "state", pl.State)
	latest := pl
	err := poll.Until(func() (bool, error) {
		got, err := r.client.GetPrefixList(ctx, pl.ID)
		if err != nil {
			return false, err
		}
		if got.State == awsec2.StateCreateComplete || got.State == awsec2.StateModifyComplete {
			latest = got
			return true, nil
		}
		return false, nil
	}, r.pollOpts...)
	if err != nil {
		if errors.Is(err, poll.ErrExhausted) {
			return pl, fmt.Errorf("prefix list %s did not reach a stable state: %w", pl.Name, err)
		}
		return pl, err
	}
	return latest, nil
}

func batchEntries(entries []awsec2.Entry, start int) []awsec2.Entry {
	if start >= len(entries) {
		return nil
	}
	return entries[start:min(start+entryBatchSize, len(entries))]
}

func batchStrings(list []string, start int) []string {
	if start >= len(list) {
		return nil
	}
	return list[start:min(start+entryBatchSize, len(list))]
}
