package reconcile

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"iprangesync/internal/config"
	"iprangesync/internal/platform/awsec2"
	"iprangesync/internal/platform/awswaf"
	"iprangesync/internal/ranges"
)

// KindResult names the resources created and updated for one kind.
type KindResult struct {
	Created []string
	Updated []string
}

// Result is the run's outcome per resource kind. It may be partial when
// individual resources failed; those failures are logged, not returned.
type Result struct {
	PrefixList KindResult
	WafIPSet   KindResult
}

// Runner drives one reconciliation pass over all configured services.
type Runner struct {
	cfg         *config.Config
	prefixLists *PrefixListReconciler
	ipSets      *IPSetReconciler
}

// NewRunner creates a runner with cold per-run caches. A Runner is good
// for a single Run call; build a fresh one per invocation.
func NewRunner(cfg *config.Config, ec2Client awsec2.Client, wafClient awswaf.Client) *Runner {
	return &Runner{
		cfg:         cfg,
		prefixLists: NewPrefixListReconciler(ec2Client),
		ipSets:      NewIPSetReconciler(wafClient),
	}
}

// Run extracts the configured service ranges from the feed document and
// converges both resource kinds: prefix lists for every service first,
// then IP sets per scope. A failure on one service/resource kind is
// logged and does not stop the remaining work; extraction failure aborts
// the whole run.
func (r *Runner) Run(ctx context.Context, doc *ranges.Document) (*Result, error) {
	serviceRanges, err := ranges.Extract(doc, r.cfg.Services)
	if err != nil {
		return nil, fmt.Errorf("extracting service ranges: %w", err)
	}

	result := &Result{}

	log.Info("Handling managed prefix lists")
	for _, svc := range r.cfg.Services {
		if svc.PrefixList == nil || !svc.PrefixList.Enable {
			log.Debug("Prefix list not enabled for service", "service", svc.Name)
			continue
		}

		created, updated, err := r.prefixLists.ReconcileService(ctx, svc, serviceRanges[svc.Name])
		if err != nil {
			log.Error("Prefix list reconciliation failed, continuing with remaining services",
				"service", svc.Name, "err", err)
			continue
		}
		result.PrefixList.Created = append(result.PrefixList.Created, created...)
		result.PrefixList.Updated = append(result.PrefixList.Updated, updated...)
	}

	log.Info("Handling WAF IP sets")
	for _, svc := range r.cfg.Services {
		if svc.WafIPSet == nil || !svc.WafIPSet.Enable {
			log.Debug("IP set not enabled for service", "service", svc.Name)
			continue
		}

		for _, scope := range svc.WafIPSet.Scopes {
			created, updated, err := r.ipSets.ReconcileService(ctx, scope, svc, serviceRanges[svc.Name])
			if err != nil {
				log.Error("IP set reconciliation failed, continuing with remaining services",
					"service", svc.Name, "scope", scope, "err", err)
				continue
			}
			result.WafIPSet.Created = append(result.WafIPSet.Created, created...)
			result.WafIPSet.Updated = append(result.WafIPSet.Updated, updated...)
		}
	}

	return result, nil
}
