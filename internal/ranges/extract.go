package ranges

import (
	"github.com/charmbracelet/log"

	"iprangesync/internal/config"
	"iprangesync/internal/netsum"
)

// ServiceRanges holds the CIDR lists of one service, one per address
// family. Both lists are always non-nil; a family with no matches is an
// empty list.
type ServiceRanges struct {
	IPv4 []string
	IPv6 []string
}

// matchKey identifies a configured selection. Region is empty for a
// wildcard key that accepts the service in any region.
type matchKey struct {
	Service string
	Region  string
}

// Extract maps the feed's flat prefix records onto the configured
// services. A record matches its exact (service, region) key when the
// service lists explicit regions, or the bare service key when it does
// not; unmatched records are discarded.
//
// Every configured service is a key of the result, even when nothing
// matched. Each family list is sorted by parsed network value but not
// summarized; summarization is a per-resource decision made later.
func Extract(doc *Document, services []config.Service) (map[string]*ServiceRanges, error) {
	wanted := make(map[matchKey]bool)
	out := make(map[string]*ServiceRanges, len(services))

	for _, svc := range services {
		out[svc.Name] = &ServiceRanges{IPv4: []string{}, IPv6: []string{}}
		if len(svc.Regions) > 0 {
			for _, region := range svc.Regions {
				log.Debug("Selecting service in region", "service", svc.Name, "region", region)
				wanted[matchKey{Service: svc.Name, Region: region}] = true
			}
		} else {
			log.Debug("Selecting service in all regions", "service", svc.Name)
			wanted[matchKey{Service: svc.Name}] = true
		}
	}

	matches := func(service, region string) bool {
		if wanted[matchKey{Service: service, Region: region}] {
			return true
		}
		return wanted[matchKey{Service: service}]
	}

	for _, rec := range doc.Prefixes {
		if matches(rec.Service, rec.Region) {
			out[rec.Service].IPv4 = append(out[rec.Service].IPv4, rec.IPPrefix)
		}
	}
	for _, rec := range doc.IPv6Prefixes {
		if matches(rec.Service, rec.Region) {
			out[rec.Service].IPv6 = append(out[rec.Service].IPv6, rec.IPv6Prefix)
		}
	}

	for name, sr := range out {
		sorted4, err := netsum.Sort(netsum.IPv4, sr.IPv4)
		if err != nil {
			return nil, err
		}
		sorted6, err := netsum.Sort(netsum.IPv6, sr.IPv6)
		if err != nil {
			return nil, err
		}
		sr.IPv4 = sorted4
		sr.IPv6 = sorted6
		log.Debug("Extracted service ranges", "service", name, "ipv4", len(sr.IPv4), "ipv6", len(sr.IPv6))
	}

	return out, nil
}
