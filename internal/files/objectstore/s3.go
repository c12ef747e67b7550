package objectstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the part of the S3 client the backend uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3 struct {
	client       PutObjectAPI
	bucket       string
	publicBase   string
	cacheControl string
}

func NewS3(client PutObjectAPI, bucket, region, publicBase, cacheControl string) *S3 {
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3{client: client, bucket: bucket, publicBase: publicBase, cacheControl: cacheControl}
}

func (s *S3) Upload(ctx context.Context, obj Object) (string, error) {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(obj.Key),
		Body:        obj.Body,
		ContentType: aws.String(obj.ContentType),
	}
	if cc := firstNonEmpty(obj.CacheControl, s.cacheControl); cc != "" {
		in.CacheControl = aws.String(cc)
	}
	if obj.Size > 0 {
		in.ContentLength = aws.Int64(obj.Size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("s3 put %s: %w", obj.Key, err)
	}
	return joinURL(s.publicBase, obj.Key), nil
}
