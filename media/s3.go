package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"catalog-service/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// s3API is the subset of the S3 client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Store keeps catalog images in an S3 bucket. Object keys play the role of
// asset identifiers and folders are plain key prefixes.
type S3Store struct {
	client    s3API
	bucket    string
	endpoint  string
	cdnDomain string
}

func NewS3Store(client *s3.Client, bucket, endpoint, cdnDomain string) *S3Store {
	return &S3Store{
		client:    client,
		bucket:    bucket,
		endpoint:  endpoint,
		cdnDomain: cdnDomain,
	}
}

func (s *S3Store) Upload(ctx context.Context, file io.Reader, folder, publicID string) (models.Asset, error) {
	if publicID == "" {
		publicID = uuid.NewString()
	}
	key := strings.TrimSuffix(folder, "/") + "/" + publicID

	data, err := io.ReadAll(file)
	if err != nil {
		return models.Asset{}, fmt.Errorf("read upload body: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(http.DetectContentType(data)),
	})
	if err != nil {
		return models.Asset{}, fmt.Errorf("s3 put %q: %w", key, err)
	}

	return models.Asset{URL: s.objectURL(key), AssetID: key}, nil
}

func (s *S3Store) DeletePrefix(ctx context.Context, prefix string) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("s3 list %q: %w", prefix, err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		objects := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects},
		})
		if err != nil {
			return fmt.Errorf("s3 delete %q: %w", prefix, err)
		}
		if len(out.Errors) > 0 {
			return fmt.Errorf("s3 delete %q: %d objects not deleted, first: %s",
				prefix, len(out.Errors), aws.ToString(out.Errors[0].Key))
		}
	}
	return nil
}

// DeleteFolder is a no-op: S3 prefixes disappear with their last object.
func (s *S3Store) DeleteFolder(context.Context, string) error {
	return nil
}

func (s *S3Store) objectURL(key string) string {
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, key)
	}
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.endpoint, "/"), s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}
