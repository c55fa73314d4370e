package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	put     *s3.PutObjectInput
	body    []byte
	deleted []string
	putErr  error
	delErr  error
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.put = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.delErr != nil {
		return nil, f.delErr
	}
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func withFakeClient(t *testing.T, fake *fakeObjects, gotOpts *s3.Options) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				return aws.Config{}, err
			}
		}
		return aws.Config{Region: lo.Region, Credentials: lo.Credentials}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		if gotOpts != nil {
			for _, fn := range optFns {
				fn(gotOpts)
			}
		}
		return fake
	}
}

func TestNewS3Uploader_EndpointSwitchesToPathStyle(t *testing.T) {
	var opts s3.Options
	withFakeClient(t, &fakeObjects{}, &opts)

	_, err := NewS3Uploader(context.Background(), S3Config{
		Bucket: "b", Region: "us-east-1", AccessKeyID: "id", SecretAccessKey: "secret",
		BaseEndpoint: "http://localhost:9000",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Uploader_LoadError(t *testing.T) {
	withFakeClient(t, &fakeObjects{}, nil)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no creds")
	}

	_, err := NewS3Uploader(context.Background(), S3Config{Bucket: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no creds")
}

func TestS3Uploader_UploadPublicPNG(t *testing.T) {
	fake := &fakeObjects{}
	withFakeClient(t, fake, nil)

	u, err := NewS3Uploader(context.Background(), S3Config{Bucket: "codeimages", Region: "eu-west-1"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "x.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o600))

	got, err := u.Upload(context.Background(), path, "Ym9iX2hlbGxv.png")
	require.NoError(t, err)
	assert.Equal(t, "https://codeimages.s3.eu-west-1.amazonaws.com/Ym9iX2hlbGxv.png", got)

	require.NotNil(t, fake.put)
	assert.Equal(t, "codeimages", aws.ToString(fake.put.Bucket))
	assert.Equal(t, "Ym9iX2hlbGxv.png", aws.ToString(fake.put.Key))
	assert.Equal(t, types.ObjectCannedACLPublicRead, fake.put.ACL)
	assert.Equal(t, "image/png", aws.ToString(fake.put.ContentType))
	assert.Equal(t, "png-bytes", string(fake.body))
}

func TestS3Uploader_UploadErrors(t *testing.T) {
	fake := &fakeObjects{putErr: errors.New("denied")}
	withFakeClient(t, fake, nil)
	u, err := NewS3Uploader(context.Background(), S3Config{Bucket: "b", Region: "r"})
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.png"), "k")
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "x.png")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	_, err = u.Upload(context.Background(), path, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestS3Uploader_Delete(t *testing.T) {
	fake := &fakeObjects{}
	withFakeClient(t, fake, nil)
	u, err := NewS3Uploader(context.Background(), S3Config{Bucket: "b", Region: "r"})
	require.NoError(t, err)

	require.NoError(t, u.Delete(context.Background(), "k.png"))
	assert.Equal(t, []string{"k.png"}, fake.deleted)

	fake.delErr = errors.New("gone")
	assert.Error(t, u.Delete(context.Background(), "k.png"))
}

func TestS3Uploader_URLRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{"aws", S3Config{Bucket: "b", Region: "us-east-1"}, "https://b.s3.us-east-1.amazonaws.com/YV9i.png"},
		{"endpoint", S3Config{Bucket: "b", BaseEndpoint: "http://minio:9000/"}, "http://minio:9000/b/YV9i.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := &S3Uploader{cfg: tc.cfg}
			got := u.PublicURL("YV9i.png")
			assert.Equal(t, tc.want, got)

			key, ok := u.KeyFromURL(got)
			assert.True(t, ok)
			assert.Equal(t, "YV9i.png", key)

			_, ok = u.KeyFromURL("https://elsewhere.example/YV9i.png")
			assert.False(t, ok)
		})
	}
}

func TestS3Uploader_PublicURLKeepsPrefixSeparator(t *testing.T) {
	u := &S3Uploader{cfg: S3Config{Bucket: "b", Region: "eu-west-1"}}

	key := "0f8c2a/YV9i Pz4=.png"
	got := u.PublicURL(key)
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/0f8c2a/YV9i%20Pz4=.png", got)

	back, ok := u.KeyFromURL(got)
	assert.True(t, ok)
	assert.Equal(t, key, back)
}
