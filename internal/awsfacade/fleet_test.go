package awsfacade

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEC2 struct {
	pages   []*ec2.DescribeInstancesOutput
	inputs  []*ec2.DescribeInstancesInput
	current int
}

func (f *fakeEC2) DescribeInstances(_ context.Context, params *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	f.inputs = append(f.inputs, params)
	out := f.pages[f.current]
	f.current++
	return out, nil
}

func instancePage(nextToken *string, ids ...string) *ec2.DescribeInstancesOutput {
	instances := make([]ec2types.Instance, 0, len(ids))
	for _, id := range ids {
		instances = append(instances, ec2types.Instance{InstanceId: aws.String(id)})
	}
	return &ec2.DescribeInstancesOutput{
		Reservations: []ec2types.Reservation{{Instances: instances}},
		NextToken:    nextToken,
	}
}

func TestFleetRunningInstanceIDsPaginates(t *testing.T) {
	fake := &fakeEC2{pages: []*ec2.DescribeInstancesOutput{
		instancePage(aws.String("page-2"), "i-1", "i-2"),
		instancePage(nil, "i-3"),
	}}
	fleet := &Fleet{client: fake}

	ids, err := fleet.RunningInstanceIDs(context.Background(), "terraform-server-tag-key", "terraform-server-tag-value")

	require.NoError(t, err)
	assert.Equal(t, []string{"i-1", "i-2", "i-3"}, ids)
	require.Len(t, fake.inputs, 2)

	filters := fake.inputs[0].Filters
	require.Len(t, filters, 2)
	assert.Equal(t, "tag:terraform-server-tag-key", aws.ToString(filters[0].Name))
	assert.Equal(t, []string{"terraform-server-tag-value"}, filters[0].Values)
	assert.Equal(t, "instance-state-name", aws.ToString(filters[1].Name))
	assert.Equal(t, []string{"running"}, filters[1].Values)
}

func TestFleetRunningInstanceIDsEmpty(t *testing.T) {
	fake := &fakeEC2{pages: []*ec2.DescribeInstancesOutput{instancePage(nil)}}
	fleet := &Fleet{client: fake}

	ids, err := fleet.RunningInstanceIDs(context.Background(), "k", "v")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
