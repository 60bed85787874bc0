package arn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stackARN = "arn:aws:cloudformation:us-east-1:111111111111:stack/my-stack/511aae30-0f21-11e8-a87c-50a68a20ce52"

func TestAccountIDAndRegion(t *testing.T) {
	account, err := AccountID("arn:aws:iam::999999999999:role/launch-role")
	require.NoError(t, err)
	assert.Equal(t, "999999999999", account)

	region, err := Region(stackARN)
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", region)
}

func TestStackParts(t *testing.T) {
	region, account, name, id, err := StackParts(stackARN)
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", region)
	assert.Equal(t, "111111111111", account)
	assert.Equal(t, "my-stack", name)
	assert.Equal(t, "511aae30-0f21-11e8-a87c-50a68a20ce52", id)

	_, _, _, _, err = StackParts("arn:aws:cloudformation:us-east-1:111111111111:my-stack")
	assert.Error(t, err)
}

func TestS3Bucket(t *testing.T) {
	cases := []struct {
		url    string
		bucket string
	}{
		{"s3://artifact-bucket/configs/app.tar.gz", "artifact-bucket"},
		{"https://artifact-bucket.s3.amazonaws.com/configs/app.tar.gz", "artifact-bucket"},
		{"https://artifact-bucket.s3.us-west-2.amazonaws.com/configs/app.tar.gz", "artifact-bucket"},
		{"https://s3.amazonaws.com/artifact-bucket/configs/app.tar.gz", "artifact-bucket"},
		{"https://s3-eu-west-1.amazonaws.com/artifact-bucket/configs/app.tar.gz", "artifact-bucket"},
	}
	for _, tc := range cases {
		bucket, err := S3Bucket(tc.url)
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.bucket, bucket, tc.url)
	}

	_, err := S3Bucket("https://example.com/foo")
	assert.Error(t, err)
	_, err = S3Bucket("ftp://bucket/key")
	assert.Error(t, err)
}
