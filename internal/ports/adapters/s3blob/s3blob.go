// Package s3blob is the durable BlobStore backed by S3 or an S3-compatible
// service.
package s3blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/forPelevin/reelcut/internal/types"
)

// Config holds bucket settings. Credentials come from the standard AWS chain.
type Config struct {
	Bucket string
	Region string
	// Prefix is prepended to every key.
	Prefix string
	// PublicURL, when set, is the base for returned URLs. Otherwise refs use
	// s3://bucket/key.
	PublicURL    string
	UsePathStyle bool
}

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Store struct {
	api       objectAPI
	bucket    string
	prefix    string
	publicURL string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newStore(client, cfg), nil
}

func newStore(api objectAPI, cfg Config) *Store {
	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Store{
		api:       api,
		bucket:    cfg.Bucket,
		prefix:    prefix,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}
}

func (s *Store) objectKey(key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: bad blob key %q", types.ErrInvalidInput, key)
	}
	return s.prefix + key, nil
}

func (s *Store) Ref(key string) types.BlobRef {
	obj := s.prefix + strings.TrimLeft(key, "/")
	if s.publicURL != "" {
		return types.BlobRef{Key: key, URL: s.publicURL + "/" + obj}
	}
	return types.BlobRef{Key: key, URL: "s3://" + s.bucket + "/" + obj}
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (types.BlobRef, error) {
	obj, err := s.objectKey(key)
	if err != nil {
		return types.BlobRef{}, err
	}
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(obj),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.api.PutObject(ctx, in); err != nil {
		return types.BlobRef{}, fmt.Errorf("s3 put %s: %w", obj, err)
	}
	return s.Ref(key), nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(obj),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3 get %s: %w", obj, os.ErrNotExist)
		}
		return nil, fmt.Errorf("s3 get %s: %w", obj, err)
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", obj, err)
	}
	return b, nil
}

// Delete is idempotent; S3 itself reports success for missing keys.
func (s *Store) Delete(ctx context.Context, key string) error {
	obj, err := s.objectKey(key)
	if err != nil {
		return err
	}
	_, err = s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(obj),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("s3 delete %s: %w", obj, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
