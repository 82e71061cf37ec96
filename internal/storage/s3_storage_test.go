package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"andesgo/intake/internal/config"
)

type mockS3Client struct {
	mock.Mock
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func TestS3Storage_PutObject(t *testing.T) {
	client := new(mockS3Client)
	var body []byte
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "archive" &&
			aws.ToString(in.Key) == "requests/STG-1/01.jpg" &&
			aws.ToString(in.ContentType) == "image/jpeg" &&
			in.Metadata["request-id"] == "STG-1"
	})).Run(func(args mock.Arguments) {
		body, _ = io.ReadAll(args.Get(1).(*s3.PutObjectInput).Body)
	}).Return(&s3.PutObjectOutput{}, nil)

	s := newS3StorageWithClient("archive", client)
	err := s.PutObject(context.Background(), "requests/STG-1/01.jpg", "image/jpeg", []byte("jpeg"), map[string]string{"request-id": "STG-1"})

	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), body)
	client.AssertExpectations(t)
}

func TestS3Storage_PutObjectError(t *testing.T) {
	client := new(mockS3Client)
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	s := newS3StorageWithClient("archive", client)
	err := s.PutObject(context.Background(), "k", "image/png", nil, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://archive/k")
	assert.Contains(t, err.Error(), "access denied")
}

func TestNewS3Storage_RequiresBucket(t *testing.T) {
	_, err := NewS3Storage(context.Background(), &config.Config{})
	assert.Error(t, err)
}
