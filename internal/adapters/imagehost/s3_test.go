package imagehost

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motelhub/directory/internal/domain/entities"
	appconfig "github.com/motelhub/directory/internal/infrastructure/config"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

type fakeObjects struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
	headErr error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, _ := io.ReadAll(in.Body)
	f.objects[*in.Key] = data
	f.types[*in.Key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "Not Found"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func newTestHost(client objectAPI) *S3Host {
	return &S3Host{client: client, bucket: "motels-bucket", baseURL: "https://cdn.example.com", logger: logger.NewNop()}
}

func TestUploadStoresUnderFolder(t *testing.T) {
	objects := newFakeObjects()
	host := newTestHost(objects)

	img, err := host.Upload(context.Background(), ports.ImageUpload{
		Folder: "motels/rooms", Filename: "Suite.JPG", ContentType: "image/jpeg", Data: []byte("jpeg"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(img.PublicID, "motels/rooms/"))
	assert.True(t, strings.HasSuffix(img.PublicID, ".jpg"))
	assert.Equal(t, "https://cdn.example.com/"+img.PublicID, img.URL)
	assert.Equal(t, []byte("jpeg"), objects.objects[img.PublicID])
	assert.Equal(t, "image/jpeg", objects.types[img.PublicID])
}

func TestUploadWrapsUpstreamErrors(t *testing.T) {
	objects := newFakeObjects()
	objects.putErr = errors.New("connection reset")

	_, err := newTestHost(objects).Upload(context.Background(), ports.ImageUpload{Folder: "motels", Filename: "a.png"})
	assert.ErrorIs(t, err, entities.ErrUpstream)
}

func TestDelete(t *testing.T) {
	objects := newFakeObjects()
	host := newTestHost(objects)
	ctx := context.Background()

	img, err := host.Upload(ctx, ports.ImageUpload{Folder: "motels", Filename: "logo.png", Data: []byte("png")})
	require.NoError(t, err)

	require.NoError(t, host.Delete(ctx, img.PublicID))
	assert.Empty(t, objects.objects)
	assert.ErrorIs(t, host.Delete(ctx, img.PublicID), entities.ErrImageNotFound)

	objects.headErr = errors.New("timeout")
	assert.ErrorIs(t, host.Delete(ctx, "motels/x.png"), entities.ErrUpstream)
}

func TestNewS3HostAppliesConfig(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew
	})

	var region string
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		region = lo.Region
		return aws.Config{}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		for _, fn := range optFns {
			fn(&opts)
		}
		return newFakeObjects()
	}

	host, err := NewS3Host(context.Background(), appconfig.ImagesConfig{
		Account: "pics", APIKey: "key", APISecret: "secret", Endpoint: "http://127.0.0.1:9000/",
	}, logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", region)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000/", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "http://127.0.0.1:9000/pics", host.baseURL)

	_, err = NewS3Host(context.Background(), appconfig.ImagesConfig{Account: "pics"}, logger.NewNop())
	assert.Error(t, err)
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com", publicBaseURL(appconfig.ImagesConfig{PublicBaseURL: "https://cdn.example.com/"}, "eu-west-1"))
	assert.Equal(t, "https://pics.s3.eu-west-1.amazonaws.com", publicBaseURL(appconfig.ImagesConfig{Account: "pics"}, "eu-west-1"))
}
