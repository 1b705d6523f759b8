// Package storage keeps uploaded letterhead logos in object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/albertcolmenero/invoicehub/apperr"
)

// MaxLogoBytes bounds a single upload.
const MaxLogoBytes = 5 << 20

// Uploader stores one owner's file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, ownerID, filename string, data []byte) (string, error)
}

// Config selects the bucket logos are written to.
type Config struct {
	Bucket        string
	Region        string
	Prefix        string
	PublicBaseURL string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader writes logos to <prefix>/<owner>/<uuid><ext>.
type S3Uploader struct {
	client putObjectAPI
	cfg    Config
	newKey func() string
}

// NewS3Uploader loads AWS credentials from the environment.
func NewS3Uploader(ctx context.Context, cfg Config) (*S3Uploader, error) {
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, apperr.Wrap(err).WithHint("failed to load aws config").Mark(apperr.ErrStorage)
	}
	return newS3Uploader(s3.NewFromConfig(awsCfg), cfg), nil
}

func newS3Uploader(client putObjectAPI, cfg Config) *S3Uploader {
	return &S3Uploader{client: client, cfg: cfg, newKey: uuid.NewString}
}

func (u *S3Uploader) Upload(ctx context.Context, ownerID, filename string, data []byte) (string, error) {
	ext, contentType, err := DetectImage(data)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s%s", ownerID, u.newKey(), ext)
	if p := strings.Trim(u.cfg.Prefix, "/"); p != "" {
		key = p + "/" + key
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{"original-filename": filename},
	})
	if err != nil {
		return "", apperr.Wrap(err).WithHint("failed to upload file").
			WithMessagef("bucket:%s, key:%s", u.cfg.Bucket, key).
			Mark(apperr.ErrStorage)
	}
	return u.objectURL(key), nil
}

func (u *S3Uploader) objectURL(key string) string {
	return u.cfg.BaseURL() + key
}

// BaseURL is the prefix, ending in a slash, of every URL Upload returns.
func (c Config) BaseURL() string {
	if base := strings.TrimRight(c.PublicBaseURL, "/"); base != "" {
		return base + "/"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", c.Bucket, c.Region)
}

// DetectImage sniffs data and returns its extension and MIME type. Anything
// that is not an image, or is larger than MaxLogoBytes, is rejected.
func DetectImage(data []byte) (ext, contentType string, err error) {
	if len(data) == 0 {
		return "", "", apperr.New("empty upload").WithHint("file is empty").Mark(apperr.ErrValidation)
	}
	if len(data) > MaxLogoBytes {
		return "", "", apperr.Newf("upload of %d bytes", len(data)).
			WithHint("file must be at most 5 MB").
			Mark(apperr.ErrValidation)
	}
	kind, err := filetype.Match(data)
	if err != nil || !filetype.IsImage(data) {
		return "", "", apperr.New("upload is not an image").
			WithHint("only image files are accepted").
			Mark(apperr.ErrValidation)
	}
	return "." + kind.Extension, kind.MIME.Value, nil
}

// Disabled rejects every upload. It stands in when no bucket is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, string, []byte) (string, error) {
	return "", apperr.New("uploads disabled").
		WithHint("file uploads are not configured").
		Mark(apperr.ErrInvalidOperation)
}
