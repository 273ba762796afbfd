// Package awsec2 wraps the managed prefix list API surface consumed by the
// reconciler.
//
// Prefix list mutations are asynchronous: create and modify calls return an
// in-progress state, and a new version number once they complete. The
// wrapper exposes the raw state string and version so the reconciler can
// drive its polling state machine; it does not wait on anything itself.
package awsec2

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"

	"iprangesync/internal/netsum"
)

// ErrNotFound marks an unknown prefix list id.
var ErrNotFound = errors.New("prefix list not found")

// Prefix list lifecycle states as reported by the backend.
const (
	StateCreateInProgress = string(types.PrefixListStateCreateInProgress)
	StateCreateComplete   = string(types.PrefixListStateCreateComplete)
	StateCreateFailed     = string(types.PrefixListStateCreateFailed)
	StateModifyInProgress = string(types.PrefixListStateModifyInProgress)
	StateModifyComplete   = string(types.PrefixListStateModifyComplete)
	StateModifyFailed     = string(types.PrefixListStateModifyFailed)
)

// PrefixList is the reconciler's view of a managed prefix list.
type PrefixList struct {
	Name         string
	ID           string
	MaxEntries   int32
	Version      int64
	State        string
	StateMessage string
}

// Entry is one CIDR entry of a prefix list.
type Entry struct {
	CIDR        string
	Description string
}

// Tag is a resource tag.
type Tag struct {
	Key   string
	Value string
}

// Client is the prefix list capability interface consumed by the reconciler.
type Client interface {
	// ListPrefixLists returns every managed prefix list, keyed by name,
	// following pagination to the end.
	ListPrefixLists(ctx context.Context) (map[string]PrefixList, error)

	// GetPrefixList fetches the current view of one prefix list by id.
	GetPrefixList(ctx context.Context, id string) (PrefixList, error)

	// GetEntries returns the full entry list of the given version,
	// following pagination to the end, in backend order.
	GetEntries(ctx context.Context, id string, version int64) ([]Entry, error)

	// CreatePrefixList creates a prefix list with the given initial
	// entries and capacity ceiling.
	CreatePrefixList(ctx context.Context, name string, family netsum.Family, maxEntries int32, entries []Entry, tags []Tag) (PrefixList, error)

	// ModifyEntries applies one batch of entry additions and removals
	// against the given version.
	ModifyEntries(ctx context.Context, id string, version int64, name string, add []Entry, remove []string) (PrefixList, error)

	// Resize changes the capacity ceiling. The backend forbids resizing
	// and changing entries in the same call.
	Resize(ctx context.Context, id, name string, maxEntries int32) (PrefixList, error)

	// CreateTags adds or overwrites tags on the prefix list.
	CreateTags(ctx context.Context, id string, tags []Tag) error
}

// api is the subset of the generated EC2 client used here.
type api interface {
	DescribeManagedPrefixLists(ctx context.Context, params *ec2.DescribeManagedPrefixListsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeManagedPrefixListsOutput, error)
	GetManagedPrefixListEntries(ctx context.Context, params *ec2.GetManagedPrefixListEntriesInput, optFns ...func(*ec2.Options)) (*ec2.GetManagedPrefixListEntriesOutput, error)
	CreateManagedPrefixList(ctx context.Context, params *ec2.CreateManagedPrefixListInput, optFns ...func(*ec2.Options)) (*ec2.CreateManagedPrefixListOutput, error)
	ModifyManagedPrefixList(ctx context.Context, params *ec2.ModifyManagedPrefixListInput, optFns ...func(*ec2.Options)) (*ec2.ModifyManagedPrefixListOutput, error)
	CreateTags(ctx context.Context, params *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
}

// RealClient implements Client against the EC2 service.
type RealClient struct {
	api api
}

var _ Client = (*RealClient)(nil)

// NewClient creates an EC2-backed client from an AWS configuration.
func NewClient(cfg aws.Config) *RealClient {
	return &RealClient{api: ec2.NewFromConfig(cfg)}
}

// ListPrefixLists implements Client.
func (c *RealClient) ListPrefixLists(ctx context.Context) (map[string]PrefixList, error) {
	lists := make(map[string]PrefixList)

	var token *string
	for {
		out, err := c.api.DescribeManagedPrefixLists(ctx, &ec2.DescribeManagedPrefixListsInput{
			NextToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list prefix lists: %w", err)
		}

		for _, pl := range out.PrefixLists {
			lists[aws.ToString(pl.PrefixListName)] = fromSDK(pl)
		}

		if out.NextToken == nil {
			return lists, nil
		}
		token = out.NextToken
	}
}

// GetPrefixList implements Client.
func (c *RealClient) GetPrefixList(ctx context.Context, id string) (PrefixList, error) {
	out, err := c.api.DescribeManagedPrefixLists(ctx, &ec2.DescribeManagedPrefixListsInput{
		PrefixListIds: []string{id},
	})
	if err != nil {
		if isUnknownID(err) {
			return PrefixList{}, fmt.Errorf("prefix list %s: %w", id, ErrNotFound)
		}
		return PrefixList{}, fmt.Errorf("failed to get prefix list %s: %w", id, err)
	}
	if len(out.PrefixLists) == 0 {
		return PrefixList{}, fmt.Errorf("prefix list %s: %w", id, ErrNotFound)
	}
	return fromSDK(out.PrefixLists[0]), nil
}

// GetEntries implements Client.
func (c *RealClient) GetEntries(ctx context.Context, id string, version int64) ([]Entry, error) {
	var entries []Entry

	var token *string
	for {
		out, err := c.api.GetManagedPrefixListEntries(ctx, &ec2.GetManagedPrefixListEntriesInput{
			PrefixListId:  aws.String(id),
			TargetVersion: aws.Int64(version),
			NextToken:     token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get entries of prefix list %s: %w", id, err)
		}

		for _, e := range out.Entries {
			entries = append(entries, Entry{
				CIDR:        aws.ToString(e.Cidr),
				Description: aws.ToString(e.Description),
			})
		}

		if out.NextToken == nil {
			return entries, nil
		}
		token = out.NextToken
	}
}

// CreatePrefixList implements Client.
func (c *RealClient) CreatePrefixList(ctx context.Context, name string, family netsum.Family, maxEntries int32, entries []Entry, tags []Tag) (PrefixList, error) {
	addressFamily := "IPv4"
	if family == netsum.IPv6 {
		addressFamily = "IPv6"
	}

	out, err := c.api.CreateManagedPrefixList(ctx, &ec2.CreateManagedPrefixListInput{
		PrefixListName: aws.String(name),
		AddressFamily:  aws.String(addressFamily),
		MaxEntries:     aws.Int32(maxEntries),
		Entries:        addEntries(entries),
		TagSpecifications: []types.TagSpecification{
			{
				ResourceType: types.ResourceTypePrefixList,
				Tags:         sdkTags(tags),
			},
		},
	})
	if err != nil {
		return PrefixList{}, fmt.Errorf("failed to create prefix list %s: %w", name, err)
	}
	if out.PrefixList == nil {
		return PrefixList{}, fmt.Errorf("prefix list %s: empty create response", name)
	}
	return fromSDK(*out.PrefixList), nil
}

// ModifyEntries implements Client.
func (c *RealClient) ModifyEntries(ctx context.Context, id string, version int64, name string, add []Entry, remove []string) (PrefixList, error) {
	in := &ec2.ModifyManagedPrefixListInput{
		PrefixListId:   aws.String(id),
		CurrentVersion: aws.Int64(version),
		PrefixListName: aws.String(name),
		AddEntries:     addEntries(add),
	}
	for _, cidr := range remove {
		in.RemoveEntries = append(in.RemoveEntries, types.RemovePrefixListEntry{Cidr: aws.String(cidr)})
	}

	out, err := c.api.ModifyManagedPrefixList(ctx, in)
	if err != nil {
		return PrefixList{}, fmt.Errorf("failed to modify prefix list %s: %w", name, err)
	}
	if out.PrefixList == nil {
		return PrefixList{}, fmt.Errorf("prefix list %s: empty modify response", name)
	}
	return fromSDK(*out.PrefixList), nil
}

// Resize implements Client.
func (c *RealClient) Resize(ctx context.Context, id, name string, maxEntries int32) (PrefixList, error) {
	out, err := c.api.ModifyManagedPrefixList(ctx, &ec2.ModifyManagedPrefixListInput{
		PrefixListId:   aws.String(id),
		PrefixListName: aws.String(name),
		MaxEntries:     aws.Int32(maxEntries),
	})
	if err != nil {
		return PrefixList{}, fmt.Errorf("failed to resize prefix list %s to %d entries: %w", name, maxEntries, err)
	}
	if out.PrefixList == nil {
		return PrefixList{}, fmt.Errorf("prefix list %s: empty resize response", name)
	}
	return fromSDK(*out.PrefixList), nil
}

// CreateTags implements Client.
func (c *RealClient) CreateTags(ctx context.Context, id string, tags []Tag) error {
	_, err := c.api.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: []string{id},
		Tags:      sdkTags(tags),
	})
	if err != nil {
		return fmt.Errorf("failed to tag prefix list %s: %w", id, err)
	}
	return nil
}

func fromSDK(pl types.ManagedPrefixList) PrefixList {
	return PrefixList{
		Name:         aws.ToString(pl.PrefixListName),
		ID:           aws.ToString(pl.PrefixListId),
		MaxEntries:   aws.ToInt32(pl.MaxEntries),
		Version:      aws.ToInt64(pl.Version),
		State:        string(pl.State),
		StateMessage: aws.ToString(pl.StateMessage),
	}
}

func addEntries(entries []Entry) []types.AddPrefixListEntry {
	out := make([]types.AddPrefixListEntry, 0, len(entries))
	for _, e := range entries {
		entry := types.AddPrefixListEntry{Cidr: aws.String(e.CIDR)}
		if e.Description != "" {
			entry.Description = aws.String(e.Description)
		}
		out = append(out, entry)
	}
	return out
}

// isUnknownID reports whether the error is the backend's rejection of an
// unknown prefix list id. EC2 carries no typed error for it; the code
// string is the contract.
func isUnknownID(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidPrefixListID.NotFound"
}

func sdkTags(tags []Tag) []types.Tag {
	out := make([]types.Tag, 0, len(tags))
	for _, t := range tags {
		out = append(out, types.Tag{Key: aws.String(t.Key), Value: aws.String(t.Value)})
	}
	return out
}
