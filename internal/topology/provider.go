package topology

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/miradorstack/mirador-meltsim/internal/utils"
)

// Provider generates provider-specific host identity and metadata.
type Provider interface {
	Name() string
	Regions() []string
	HostID(rng *rand.Rand, service string, index int, region string) string
	Metadata(rng *rand.Rand, hostID, service, region string) map[string]string
}

// ProviderFor resolves a provider by name.
func ProviderFor(name string) (Provider, error) {
	switch strings.ToLower(name) {
	case "onpremise", "onprem":
		return onPremProvider{}, nil
	case "aws":
		return awsProvider{}, nil
	case "gcp":
		return gcpProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown cloud provider %q", name)
	}
}

type onPremProvider struct{}

func (onPremProvider) Name() string { return "onpremise" }

func (onPremProvider) Regions() []string {
	return []string{"dc-east", "dc-west", "dc-central"}
}

func (onPremProvider) HostID(rng *rand.Rand, service string, index int, region string) string {
	return fmt.Sprintf("%s-%02d.%s.internal", service, index+1, region)
}

func (onPremProvider) Metadata(rng *rand.Rand, hostID, service, region string) map[string]string {
	racks := []string{"r01", "r02", "r03", "r04"}
	return map[string]string{
		"datacenter": region,
		"rack":       racks[rng.Intn(len(racks))],
		"chassis":    fmt.Sprintf("ch-%02d", 1+rng.Intn(16)),
	}
}

type awsProvider struct{}

var awsInstanceTypes = []string{
	"t3.micro", "t3.small", "t3.medium", "t3.large",
	"m5.large", "m5.xlarge", "m5.2xlarge",
	"c5.large", "c5.xlarge", "r5.large",
}

func (awsProvider) Name() string { return "aws" }

func (awsProvider) Regions() []string {
	return []string{"us-east-1", "us-west-2", "eu-west-1", "ap-southeast-1"}
}

func (awsProvider) HostID(rng *rand.Rand, service string, index int, region string) string {
	// EC2 style: i- followed by 15 hex characters.
	return "i-" + utils.RandHex(rng, 15)
}

func (awsProvider) Metadata(rng *rand.Rand, hostID, service, region string) map[string]string {
	zones := []string{"a", "b", "c"}
	return map[string]string{
		"availability_zone": region + zones[rng.Intn(len(zones))],
		"instance_type":     awsInstanceTypes[rng.Intn(len(awsInstanceTypes))],
		"vpc_id":            "vpc-" + utils.RandHex(rng, 8),
		"subnet_id":         "subnet-" + utils.RandHex(rng, 8),
		"ami_id":            "ami-" + utils.RandHex(rng, 8),
	}
}

type gcpProvider struct{}

var gcpMachineTypes = []string{
	"e2-small", "e2-medium", "n2-standard-2", "n2-standard-4", "c2-standard-4",
}

func (gcpProvider) Name() string { return "gcp" }

func (gcpProvider) Regions() []string {
	return []string{"us-central1", "us-east4", "europe-west1", "asia-east1"}
}

func (gcpProvider) HostID(rng *rand.Rand, service string, index int, region string) string {
	return fmt.Sprintf("%s-%s", service, utils.RandHex(rng, 8))
}

func (gcpProvider) Metadata(rng *rand.Rand, hostID, service, region string) map[string]string {
	zones := []string{"a", "b", "c"}
	return map[string]string{
		"zone":         fmt.Sprintf("%s-%s", region, zones[rng.Intn(len(zones))]),
		"machine_type": gcpMachineTypes[rng.Intn(len(gcpMachineTypes))],
		"project_id":   "proj-" + utils.RandHex(rng, 6),
		"instance_id":  fmt.Sprintf("%d", 1000000000000+rng.Int63n(9000000000000)),
	}
}
