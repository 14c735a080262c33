// Package topology builds the simulated infrastructure: one node per
// (service, replica) pair, each with a provider-specific identity, an owning
// service, and a region. Nodes are immutable after construction.
package topology

import (
	"fmt"
	"math/rand"
	"sort"
)

// Node is a single infrastructure element.
type Node struct {
	HostID   string            `json:"host_id"`
	Service  string            `json:"service"`
	Region   string            `json:"region"`
	Provider string            `json:"cloud_provider"`
	IP       string            `json:"ip"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Topology is the ordered node set plus the derived lookup indices, built once
// per run.
type Topology struct {
	nodes        []Node
	serviceHosts map[string][]string
	regionHosts  map[string][]string
	byHost       map[string]int
}

// Build constructs a topology of hostsPerService nodes for every service,
// assigning each node a random region drawn from the enabled providers.
func Build(rng *rand.Rand, services []string, hostsPerService int, providers []Provider) (*Topology, error) {
	if len(services) == 0 {
		return nil, fmt.Errorf("topology: no services configured")
	}
	if hostsPerService <= 0 {
		return nil, fmt.Errorf("topology: hostsPerService must be positive, got %d", hostsPerService)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("topology: no providers configured")
	}

	providerByRegion := make(map[string]Provider)
	regions := make([]string, 0)
	for _, p := range providers {
		for _, r := range p.Regions() {
			if _, ok := providerByRegion[r]; ok {
				continue
			}
			providerByRegion[r] = p
			regions = append(regions, r)
		}
	}

	t := &Topology{
		serviceHosts: make(map[string][]string),
		regionHosts:  make(map[string][]string),
		byHost:       make(map[string]int),
	}

	for _, svc := range services {
		for i := 0; i < hostsPerService; i++ {
			region := regions[rng.Intn(len(regions))]
			provider := providerByRegion[region]
			hostID := provider.HostID(rng, svc, i, region)
			node := Node{
				HostID:   hostID,
				Service:  svc,
				Region:   region,
				Provider: provider.Name(),
				IP:       fmt.Sprintf("10.%d.%d.%d", rng.Intn(256), rng.Intn(256), rng.Intn(256)),
				Metadata: provider.Metadata(rng, hostID, svc, region),
			}
			t.byHost[hostID] = len(t.nodes)
			t.nodes = append(t.nodes, node)
			t.serviceHosts[svc] = append(t.serviceHosts[svc], hostID)
			t.regionHosts[region] = append(t.regionHosts[region], hostID)
		}
	}

	return t, nil
}

// Nodes returns the ordered node list.
func (t *Topology) Nodes() []Node { return t.nodes }

// Size returns the total host count.
func (t *Topology) Size() int { return len(t.nodes) }

// ServiceHosts returns the host IDs owned by a service.
func (t *Topology) ServiceHosts(service string) []string { return t.serviceHosts[service] }

// RegionHosts returns the host IDs placed in a region.
func (t *Topology) RegionHosts(region string) []string { return t.regionHosts[region] }

// Services returns the distinct service names in stable order.
func (t *Topology) Services() []string {
	services := make([]string, 0, len(t.serviceHosts))
	seen := make(map[string]struct{}, len(t.serviceHosts))
	for _, n := range t.nodes {
		if _, ok := seen[n.Service]; ok {
			continue
		}
		seen[n.Service] = struct{}{}
		services = append(services, n.Service)
	}
	return services
}

// Regions returns regions that actually have members, sorted for determinism.
func (t *Topology) Regions() []string {
	regions := make([]string, 0, len(t.regionHosts))
	for r := range t.regionHosts {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}

// RegionServices returns the distinct services with at least one host in the
// region, sorted for determinism.
func (t *Topology) RegionServices(region string) []string {
	seen := make(map[string]struct{})
	for _, n := range t.nodes {
		if n.Region == region {
			seen[n.Service] = struct{}{}
		}
	}
	services := make([]string, 0, len(seen))
	for s := range seen {
		services = append(services, s)
	}
	sort.Strings(services)
	return services
}

// NodeByHost looks a node up by host ID.
func (t *Topology) NodeByHost(hostID string) (Node, bool) {
	idx, ok := t.byHost[hostID]
	if !ok {
		return Node{}, false
	}
	return t.nodes[idx], true
}

// RandomNode returns a uniformly random node. The topology is never empty
// after Build succeeds.
func (t *Topology) RandomNode(rng *rand.Rand) Node {
	return t.nodes[rng.Intn(len(t.nodes))]
}
