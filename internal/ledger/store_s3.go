package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"tfbridge/pkg/domainerrors"
)

type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps command records as small JSON objects in a bucket, one object
// per physical resource id. This is the production backend; the bucket layout
// matches what earlier deployments wrote.
type S3Store struct {
	client s3API
	bucket string
}

func NewS3Store(cfg aws.Config, bucket string) *S3Store {
	return &S3Store{client: s3.NewFromConfig(cfg), bucket: bucket}
}

func (s *S3Store) Get(ctx context.Context, physicalResourceID string) (*Record, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(RecordKey(physicalResourceID)),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal,
			"read command record for %s", physicalResourceID)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal,
			"read command record body for %s", physicalResourceID)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal,
			"decode command record for %s", physicalResourceID)
	}
	return &record, nil
}

func (s *S3Store) Put(ctx context.Context, physicalResourceID string, record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal,
			"encode command record for %s", physicalResourceID)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(RecordKey(physicalResourceID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal,
			"write command record for %s", physicalResourceID)
	}
	return nil
}
