// Package media stores vehicle images and videos in object storage.
package media

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/motorlot/inventory/pkg/config"
)

// Kind distinguishes the two media types a vehicle can carry.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// File is an in-memory upload payload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadResult identifies a stored object and its public URL.
type UploadResult struct {
	StorageID string
	URL       string
}

// Uploader stores and removes media objects for vehicles.
type Uploader interface {
	Upload(ctx context.Context, dealerID, vehicleID string, kind Kind, file File) (UploadResult, error)
	Delete(ctx context.Context, storageID string) error
}

// s3API is the subset of the S3 client the uploader needs.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Uploader stores media in an S3-compatible bucket.
type S3Uploader struct {
	client        s3API
	bucket        string
	publicBaseURL string
}

// NewS3Uploader builds an uploader from storage configuration.
func NewS3Uploader(ctx context.Context, cfg config.StorageConfig) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Uploader{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// NewS3UploaderWithClient injects a prebuilt client, used by tests.
func NewS3UploaderWithClient(client s3API, bucket, publicBaseURL string) *S3Uploader {
	return &S3Uploader{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

// Upload writes the file under a dealer- and vehicle-scoped key and returns its identity.
func (u *S3Uploader) Upload(ctx context.Context, dealerID, vehicleID string, kind Kind, file File) (UploadResult, error) {
	if len(file.Data) == 0 {
		return UploadResult{}, fmt.Errorf("upload %s for vehicle %s: empty file", kind, vehicleID)
	}

	key := objectKey(dealerID, vehicleID, kind, file.Name)
	contentType := file.ContentType
	if contentType == "" {
		contentType = guessContentType(file.Name, kind)
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file.Data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("put object %s: %w", key, err)
	}

	return UploadResult{
		StorageID: key,
		URL:       fmt.Sprintf("%s/%s", u.publicBaseURL, key),
	}, nil
}

// Delete removes the object identified by storageID.
func (u *S3Uploader) Delete(ctx context.Context, storageID string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(storageID),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", storageID, err)
	}
	return nil
}

// objectKey namespaces objects by dealer and vehicle so removal of a
// vehicle can never touch another tenant's media.
func objectKey(dealerID, vehicleID string, kind Kind, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("vehicles/%s/%s/%ss/%s%s", dealerID, vehicleID, kind, uuid.New().String(), ext)
}

func guessContentType(filename string, kind Kind) string {
	if ct := mime.TypeByExtension(path.Ext(filename)); ct != "" {
		return ct
	}
	if kind == KindVideo {
		return "video/mp4"
	}
	return "image/jpeg"
}
