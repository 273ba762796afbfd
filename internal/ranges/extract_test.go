package ranges

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iprangesync/internal/config"
)

func testDoc() *Document {
	return &Document{
		SyncToken:  "1650000000",
		CreateDate: "2026-08-20-12-00-00",
		Prefixes: []PrefixRecord{
			{IPPrefix: "3.3.3.0/24", Region: "us-east-1", Service: "API_GATEWAY"},
			{IPPrefix: "1.1.1.0/24", Region: "us-east-1", Service: "CLOUDFRONT"},
			{IPPrefix: "2.2.2.0/24", Region: "eu-west-1", Service: "CLOUDFRONT"},
			{IPPrefix: "4.4.4.0/24", Region: "us-west-2", Service: "API_GATEWAY"},
			{IPPrefix: "5.5.5.0/24", Region: "us-east-1", Service: "S3"},
		},
		IPv6Prefixes: []IPv6PrefixRecord{
			{IPv6Prefix: "2600:1f14::/36", Region: "us-east-1", Service: "CLOUDFRONT"},
		},
	}
}

func TestExtractExplicitRegions(t *testing.T) {
	services := []config.Service{
		{Name: "API_GATEWAY", Regions: []string{"us-east-1"}},
	}

	got, err := Extract(testDoc(), services)
	require.NoError(t, err)

	require.Contains(t, got, "API_GATEWAY")
	assert.Equal(t, []string{"3.3.3.0/24"}, got["API_GATEWAY"].IPv4)
	assert.Empty(t, got["API_GATEWAY"].IPv6)
}

func TestExtractWildcardRegionFallback(t *testing.T) {
	services := []config.Service{
		{Name: "CLOUDFRONT"}, // no regions: every region accepted
	}

	got, err := Extract(testDoc(), services)
	require.NoError(t, err)

	assert.Equal(t, []string{"1.1.1.0/24", "2.2.2.0/24"}, got["CLOUDFRONT"].IPv4)
	assert.Equal(t, []string{"2600:1f14:0000:0000:0000:0000:0000:0000/36"}, got["CLOUDFRONT"].IPv6)
}

func TestExtractEveryConfiguredServicePresent(t *testing.T) {
	services := []config.Service{
		{Name: "CLOUDFRONT"},
		{Name: "DYNAMODB", Regions: []string{"ap-south-1"}}, // nothing matches
	}

	got, err := Extract(testDoc(), services)
	require.NoError(t, err)

	require.Contains(t, got, "DYNAMODB")
	assert.NotNil(t, got["DYNAMODB"].IPv4)
	assert.NotNil(t, got["DYNAMODB"].IPv6)
	assert.Empty(t, got["DYNAMODB"].IPv4)
	assert.Empty(t, got["DYNAMODB"].IPv6)
}

func TestExtractDiscardsUnconfiguredRecords(t *testing.T) {
	services := []config.Service{
		{Name: "API_GATEWAY", Regions: []string{"us-east-1"}},
	}

	got, err := Extract(testDoc(), services)
	require.NoError(t, err)

	require.Len(t, got, 1)
	// us-west-2 record not selected for API_GATEWAY, S3 not configured.
	assert.Equal(t, []string{"3.3.3.0/24"}, got["API_GATEWAY"].IPv4)
}

func TestExtractSortsFamilies(t *testing.T) {
	doc := &Document{
		Prefixes: []PrefixRecord{
			{IPPrefix: "10.0.2.0/24", Region: "us-east-1", Service: "EC2"},
			{IPPrefix: "10.0.0.0/24", Region: "us-east-1", Service: "EC2"},
			{IPPrefix: "10.0.1.0/24", Region: "us-east-1", Service: "EC2"},
		},
	}
	services := []config.Service{{Name: "EC2"}}

	got, err := Extract(doc, services)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/24", "10.0.1.0/24", "10.0.2.0/24"}, got["EC2"].IPv4)
}

func TestExtractMalformedPrefixFails(t *testing.T) {
	doc := &Document{
		Prefixes: []PrefixRecord{
			{IPPrefix: "not-a-cidr", Region: "us-east-1", Service: "EC2"},
			{IPPrefix: "10.0.0.0/24", Region: "us-east-1", Service: "EC2"},
		},
	}
	services := []config.Service{{Name: "EC2"}}

	_, err := Extract(doc, services)
	assert.Error(t, err)
}
