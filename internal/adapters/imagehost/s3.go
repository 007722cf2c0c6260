// Package imagehost stores uploaded pictures in an S3 compatible bucket.
package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/motelhub/directory/internal/domain/entities"
	appconfig "github.com/motelhub/directory/internal/infrastructure/config"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// objectAPI is the part of the S3 client the host uses
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Host implements ports.ImageHost on top of a bucket. The bucket name comes
// from images.account, the access key pair from images.api_key and
// images.api_secret.
type S3Host struct {
	client  objectAPI
	bucket  string
	baseURL string
	logger  *logger.Logger
}

// NewS3Host builds the client from configuration
func NewS3Host(ctx context.Context, cfg appconfig.ImagesConfig, log *logger.Logger) (*S3Host, error) {
	if !cfg.Configured() {
		return nil, errors.New("image host credentials are not configured")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.APIKey, cfg.APISecret, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Host{
		client:  client,
		bucket:  cfg.Account,
		baseURL: publicBaseURL(cfg, region),
		logger:  log.WithComponent("image_host"),
	}, nil
}

// publicBaseURL is where objects are served from: the configured CDN or
// bucket website, the custom endpoint in path style, or the regional AWS host.
func publicBaseURL(cfg appconfig.ImagesConfig, region string) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Account
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Account, region)
	}
}

// Upload stores the image under folder/<uuid><ext> and returns its public URL
func (h *S3Host) Upload(ctx context.Context, upload ports.ImageUpload) (*entities.Image, error) {
	key := objectKey(upload.Folder, upload.Filename)

	_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(h.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(upload.Data),
		ContentLength: aws.Int64(int64(len(upload.Data))),
		ContentType:   aws.String(upload.ContentType),
	})
	if err != nil {
		h.logger.WithError(err).Errorw("PutObject failed", "bucket", h.bucket, "key", key)
		return nil, fmt.Errorf("put %s: %v: %w", key, err, entities.ErrUpstream)
	}

	return &entities.Image{URL: h.objectURL(key), PublicID: key}, nil
}

// Delete removes the object, failing with ErrImageNotFound when it is absent
func (h *S3Host) Delete(ctx context.Context, publicID string) error {
	_, err := h.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		if isNotFound(err) {
			return entities.ErrImageNotFound
		}
		return fmt.Errorf("head %s: %v: %w", publicID, err, entities.ErrUpstream)
	}

	if _, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(publicID),
	}); err != nil {
		h.logger.WithError(err).Errorw("DeleteObject failed", "bucket", h.bucket, "key", publicID)
		return fmt.Errorf("delete %s: %v: %w", publicID, err, entities.ErrUpstream)
	}
	return nil
}

func (h *S3Host) objectURL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return h.baseURL + "/" + strings.Join(parts, "/")
}

func objectKey(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 8 || strings.ContainsAny(ext, " /\\") {
		ext = ""
	}
	return path.Join(strings.Trim(folder, "/"), uuid.NewString()+ext)
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
