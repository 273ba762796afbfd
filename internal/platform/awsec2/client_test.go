package awsec2

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iprangesync/internal/netsum"
)

type fakeEC2 struct {
	describePages []*ec2.DescribeManagedPrefixListsOutput
	describeCalls []*ec2.DescribeManagedPrefixListsInput
	describeErr   error
	entryPages    []*ec2.GetManagedPrefixListEntriesOutput
	entryCalls    []*ec2.GetManagedPrefixListEntriesInput
	createIn      *ec2.CreateManagedPrefixListInput
	modifyIn      *ec2.ModifyManagedPrefixListInput
	tagsIn        *ec2.CreateTagsInput
	result        types.ManagedPrefixList
}

func (f *fakeEC2) DescribeManagedPrefixLists(_ context.Context, params *ec2.DescribeManagedPrefixListsInput, _ ...func(*ec2.Options)) (*ec2.DescribeManagedPrefixListsOutput, error) {
	f.describeCalls = append(f.describeCalls, params)
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	page := f.describePages[0]
	f.describePages = f.describePages[1:]
	return page, nil
}

func (f *fakeEC2) GetManagedPrefixListEntries(_ context.Context, params *ec2.GetManagedPrefixListEntriesInput, _ ...func(*ec2.Options)) (*ec2.GetManagedPrefixListEntriesOutput, error) {
	f.entryCalls = append(f.entryCalls, params)
	page := f.entryPages[0]
	f.entryPages = f.entryPages[1:]
	return page, nil
}

func (f *fakeEC2) CreateManagedPrefixList(_ context.Context, params *ec2.CreateManagedPrefixListInput, _ ...func(*ec2.Options)) (*ec2.CreateManagedPrefixListOutput, error) {
	f.createIn = params
	return &ec2.CreateManagedPrefixListOutput{PrefixList: &f.result}, nil
}

func (f *fakeEC2) ModifyManagedPrefixList(_ context.Context, params *ec2.ModifyManagedPrefixListInput, _ ...func(*ec2.Options)) (*ec2.ModifyManagedPrefixListOutput, error) {
	f.modifyIn = params
	return &ec2.ModifyManagedPrefixListOutput{PrefixList: &f.result}, nil
}

func (f *fakeEC2) CreateTags(_ context.Context, params *ec2.CreateTagsInput, _ ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error) {
	f.tagsIn = params
	return &ec2.CreateTagsOutput{}, nil
}

func sdkList(name, id string) types.ManagedPrefixList {
	return types.ManagedPrefixList{
		PrefixListName: aws.String(name),
		PrefixListId:   aws.String(id),
		MaxEntries:     aws.Int32(100),
		Version:        aws.Int64(1),
		State:          types.PrefixListStateCreateComplete,
	}
}

func TestListPrefixListsFollowsPagination(t *testing.T) {
	fake := &fakeEC2{
		describePages: []*ec2.DescribeManagedPrefixListsOutput{
			{PrefixLists: []types.ManagedPrefixList{sdkList("a", "pl-a")}, NextToken: aws.String("t1")},
			{PrefixLists: []types.ManagedPrefixList{sdkList("b", "pl-b")}},
		},
	}
	client := &RealClient{api: fake}

	lists, err := client.ListPrefixLists(context.Background())
	require.NoError(t, err)

	assert.Len(t, lists, 2)
	assert.Equal(t, "pl-b", lists["b"].ID)
	require.Len(t, fake.describeCalls, 2)
	assert.Equal(t, "t1", aws.ToString(fake.describeCalls[1].NextToken))
}

func TestGetPrefixListUnknownID(t *testing.T) {
	fake := &fakeEC2{
		describeErr: &smithy.GenericAPIError{
			Code:    "InvalidPrefixListID.NotFound",
			Message: "The prefix list ID 'pl-gone' does not exist",
		},
	}
	client := &RealClient{api: fake}

	_, err := client.GetPrefixList(context.Background(), "pl-gone")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPrefixListEmptyResult(t *testing.T) {
	fake := &fakeEC2{
		describePages: []*ec2.DescribeManagedPrefixListsOutput{{}},
	}
	client := &RealClient{api: fake}

	_, err := client.GetPrefixList(context.Background(), "pl-gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetEntriesFollowsPagination(t *testing.T) {
	fake := &fakeEC2{
		entryPages: []*ec2.GetManagedPrefixListEntriesOutput{
			{
				Entries:   []types.PrefixListEntry{{Cidr: aws.String("1.1.1.0/24"), Description: aws.String("d")}},
				NextToken: aws.String("t1"),
			},
			{
				Entries: []types.PrefixListEntry{{Cidr: aws.String("2.2.2.0/24")}},
			},
		},
	}
	client := &RealClient{api: fake}

	entries, err := client.GetEntries(context.Background(), "pl-a", 7)
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{CIDR: "1.1.1.0/24", Description: "d"},
		{CIDR: "2.2.2.0/24"},
	}, entries)

	require.Len(t, fake.entryCalls, 2)
	assert.Equal(t, int64(7), aws.ToInt64(fake.entryCalls[0].TargetVersion))
	assert.Equal(t, "t1", aws.ToString(fake.entryCalls[1].NextToken))
}

func TestCreatePrefixList(t *testing.T) {
	fake := &fakeEC2{result: sdkList("aws-ip-ranges-s3-ipv4", "pl-new")}
	client := &RealClient{api: fake}

	pl, err := client.CreatePrefixList(context.Background(), "aws-ip-ranges-s3-ipv4", netsum.IPv4, 12,
		[]Entry{{CIDR: "1.1.1.0/24", Description: "managed"}},
		[]Tag{{Key: "Name", Value: "aws-ip-ranges-s3-ipv4"}})
	require.NoError(t, err)

	assert.Equal(t, "pl-new", pl.ID)
	require.NotNil(t, fake.createIn)
	assert.Equal(t, "IPv4", aws.ToString(fake.createIn.AddressFamily))
	assert.Equal(t, int32(12), aws.ToInt32(fake.createIn.MaxEntries))
	require.Len(t, fake.createIn.TagSpecifications, 1)
	assert.Equal(t, types.ResourceTypePrefixList, fake.createIn.TagSpecifications[0].ResourceType)
}

func TestModifyEntries(t *testing.T) {
	fake := &fakeEC2{result: sdkList("x", "pl-x")}
	client := &RealClient{api: fake}

	_, err := client.ModifyEntries(context.Background(), "pl-x", 3, "x",
		[]Entry{{CIDR: "4.4.4.0/24", Description: "managed"}},
		[]string{"3.3.3.0/24"})
	require.NoError(t, err)

	require.NotNil(t, fake.modifyIn)
	assert.Equal(t, int64(3), aws.ToInt64(fake.modifyIn.CurrentVersion))
	require.Len(t, fake.modifyIn.AddEntries, 1)
	assert.Equal(t, "4.4.4.0/24", aws.ToString(fake.modifyIn.AddEntries[0].Cidr))
	require.Len(t, fake.modifyIn.RemoveEntries, 1)
	assert.Equal(t, "3.3.3.0/24", aws.ToString(fake.modifyIn.RemoveEntries[0].Cidr))
	assert.Nil(t, fake.modifyIn.MaxEntries)
}

func TestResizeDoesNotTouchEntries(t *testing.T) {
	fake := &fakeEC2{result: sdkList("x", "pl-x")}
	client := &RealClient{api: fake}

	_, err := client.Resize(context.Background(), "pl-x", "x", 250)
	require.NoError(t, err)

	require.NotNil(t, fake.modifyIn)
	assert.Equal(t, int32(250), aws.ToInt32(fake.modifyIn.MaxEntries))
	assert.Empty(t, fake.modifyIn.AddEntries)
	assert.Empty(t, fake.modifyIn.RemoveEntries)
	assert.Nil(t, fake.modifyIn.CurrentVersion)
}

func TestCreateTags(t *testing.T) {
	fake := &fakeEC2{}
	client := &RealClient{api: fake}

	err := client.CreateTags(context.Background(), "pl-x", []Tag{{Key: "UpdatedAt", Value: "now"}})
	require.NoError(t, err)

	require.NotNil(t, fake.tagsIn)
	assert.Equal(t, []string{"pl-x"}, fake.tagsIn.Resources)
}
