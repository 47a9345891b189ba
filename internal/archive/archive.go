// Package archive keeps a copy of every received resume file in an
// S3-compatible bucket (AWS S3 or Cloudflare R2).
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Archiver stores an attachment and returns the key it was stored under.
type Archiver interface {
	Archive(ctx context.Context, f File) (string, error)
}

// File is one attachment to archive.
type File struct {
	SubmissionID uuid.UUID
	Received     time.Time
	Extension    string
	ContentType  string
	Data         []byte
}

// Options configures the bucket connection.
type Options struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PathStyle addresses the bucket in the URL path, needed by most
	// S3-compatible endpoints and local test servers.
	PathStyle bool
}

// S3Archiver writes attachments with PutObject.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Archiver builds a client from opts. Static credentials are used when
// both keys are set; otherwise the default AWS credential chain applies.
func NewS3Archiver(ctx context.Context, opts Options) (*S3Archiver, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	region := opts.Region
	if region == "" {
		region = "auto"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("error creating aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})
	return &S3Archiver{client: client, bucket: opts.Bucket, prefix: opts.Prefix}, nil
}

// ObjectKey places a file under prefix/YYYY/MM/DD/<submission id><ext>.
func ObjectKey(prefix string, f File) string {
	ext := f.Extension
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	received := f.Received
	if received.IsZero() {
		received = time.Now()
	}
	return path.Join(prefix, received.UTC().Format("2006/01/02"), f.SubmissionID.String()+ext)
}

func (a *S3Archiver) Archive(ctx context.Context, f File) (string, error) {
	key := ObjectKey(a.prefix, f)
	input := &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(f.Data),
	}
	if f.ContentType != "" {
		input.ContentType = aws.String(f.ContentType)
	}
	if _, err := a.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	log.Printf("[archive] stored %s (%d bytes)", key, len(f.Data))
	return key, nil
}
