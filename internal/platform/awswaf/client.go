// Package awswaf wraps the WAFv2 API surface consumed by the reconciler.
//
// The wrapper flattens the SDK's pointer-heavy shapes into plain structs,
// follows pagination to completion, and keeps the lock-token contract
// explicit: the token obtained when reading a set must be passed back
// unchanged on the mutating call.
package awswaf

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/wafv2"
	"github.com/aws/aws-sdk-go-v2/service/wafv2/types"

	"iprangesync/internal/netsum"
)

// IPSet identifies an existing IP set within one scope.
type IPSet struct {
	Name        string
	ID          string
	ARN         string
	Description string
	LockToken   string
}

// Tag is a resource tag.
type Tag struct {
	Key   string
	Value string
}

// Client is the IP set capability interface consumed by the reconciler.
type Client interface {
	// ListIPSets returns every IP set in the scope, keyed by name,
	// following pagination to the end.
	ListIPSets(ctx context.Context, scope string) (map[string]IPSet, error)

	// GetAddresses returns the full current entry list of the set.
	GetAddresses(ctx context.Context, scope string, set IPSet) ([]string, error)

	// CreateIPSet creates a set with the given addresses and tags.
	CreateIPSet(ctx context.Context, scope, name string, family netsum.Family, addresses []string, description string, tags []Tag) error

	// UpdateIPSet replaces the set's entries with addresses. The set's
	// lock token is passed back unchanged; a token conflict fails hard.
	UpdateIPSet(ctx context.Context, scope string, set IPSet, addresses []string) error

	// TagResource adds or overwrites tags on the resource.
	TagResource(ctx context.Context, arn string, tags []Tag) error
}

// api is the subset of the generated WAFv2 client used here.
type api interface {
	ListIPSets(ctx context.Context, params *wafv2.ListIPSetsInput, optFns ...func(*wafv2.Options)) (*wafv2.ListIPSetsOutput, error)
	GetIPSet(ctx context.Context, params *wafv2.GetIPSetInput, optFns ...func(*wafv2.Options)) (*wafv2.GetIPSetOutput, error)
	CreateIPSet(ctx context.Context, params *wafv2.CreateIPSetInput, optFns ...func(*wafv2.Options)) (*wafv2.CreateIPSetOutput, error)
	UpdateIPSet(ctx context.Context, params *wafv2.UpdateIPSetInput, optFns ...func(*wafv2.Options)) (*wafv2.UpdateIPSetOutput, error)
	TagResource(ctx context.Context, params *wafv2.TagResourceInput, optFns ...func(*wafv2.Options)) (*wafv2.TagResourceOutput, error)
}

// RealClient implements Client against the WAFv2 service.
type RealClient struct {
	api api
}

var _ Client = (*RealClient)(nil)

// NewClient creates a WAFv2-backed client from an AWS configuration.
func NewClient(cfg aws.Config) *RealClient {
	return &RealClient{api: wafv2.NewFromConfig(cfg)}
}

// ListIPSets implements Client.
func (c *RealClient) ListIPSets(ctx context.Context, scope string) (map[string]IPSet, error) {
	sets := make(map[string]IPSet)

	var marker *string
	for {
		out, err := c.api.ListIPSets(ctx, &wafv2.ListIPSetsInput{
			Scope:      types.Scope(scope),
			NextMarker: marker,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list IP sets in scope %s: %w", scope, err)
		}

		for _, s := range out.IPSets {
			sets[aws.ToString(s.Name)] = IPSet{
				Name:        aws.ToString(s.Name),
				ID:          aws.ToString(s.Id),
				ARN:         aws.ToString(s.ARN),
				Description: aws.ToString(s.Description),
				LockToken:   aws.ToString(s.LockToken),
			}
		}

		if out.NextMarker == nil {
			return sets, nil
		}
		marker = out.NextMarker
	}
}

// GetAddresses implements Client.
func (c *RealClient) GetAddresses(ctx context.Context, scope string, set IPSet) ([]string, error) {
	out, err := c.api.GetIPSet(ctx, &wafv2.GetIPSetInput{
		Id:    aws.String(set.ID),
		Name:  aws.String(set.Name),
		Scope: types.Scope(scope),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get IP set %s: %w", set.Name, err)
	}
	if out.IPSet == nil {
		return nil, fmt.Errorf("IP set %s: empty response", set.Name)
	}
	return out.IPSet.Addresses, nil
}

// CreateIPSet implements Client.
func (c *RealClient) CreateIPSet(ctx context.Context, scope, name string, family netsum.Family, addresses []string, description string, tags []Tag) error {
	version := types.IPAddressVersionIpv4
	if family == netsum.IPv6 {
		version = types.IPAddressVersionIpv6
	}

	_, err := c.api.CreateIPSet(ctx, &wafv2.CreateIPSetInput{
		Name:             aws.String(name),
		Scope:            types.Scope(scope),
		Description:      aws.String(description),
		IPAddressVersion: version,
		Addresses:        addresses,
		Tags:             sdkTags(tags),
	})
	if err != nil {
		return fmt.Errorf("failed to create IP set %s: %w", name, err)
	}
	return nil
}

// UpdateIPSet implements Client.
func (c *RealClient) UpdateIPSet(ctx context.Context, scope string, set IPSet, addresses []string) error {
	_, err := c.api.UpdateIPSet(ctx, &wafv2.UpdateIPSetInput{
		Id:          aws.String(set.ID),
		Name:        aws.String(set.Name),
		Scope:       types.Scope(scope),
		Description: aws.String(set.Description),
		Addresses:   addresses,
		LockToken:   aws.String(set.LockToken),
	})
	if err != nil {
		if isLockConflict(err) {
			return fmt.Errorf("IP set %s was modified concurrently (lock token conflict): %w", set.Name, err)
		}
		return fmt.Errorf("failed to update IP set %s: %w", set.Name, err)
	}
	return nil
}

// TagResource implements Client.
func (c *RealClient) TagResource(ctx context.Context, arn string, tags []Tag) error {
	_, err := c.api.TagResource(ctx, &wafv2.TagResourceInput{
		ResourceARN: aws.String(arn),
		Tags:        sdkTags(tags),
	})
	if err != nil {
		return fmt.Errorf("failed to tag resource %s: %w", arn, err)
	}
	return nil
}

func sdkTags(tags []Tag) []types.Tag {
	out := make([]types.Tag, 0, len(tags))
	for _, t := range tags {
		out = append(out, types.Tag{Key: aws.String(t.Key), Value: aws.String(t.Value)})
	}
	return out
}

// isLockConflict reports whether the error is an optimistic-lock rejection,
// meaning the set changed between our read and our write.
func isLockConflict(err error) bool {
	var lockErr *types.WAFOptimisticLockException
	return errors.As(err, &lockErr)
}
