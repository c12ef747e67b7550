// Package objectstore uploads user files to a public bucket.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	firebase "firebase.google.com/go/v4"
	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cnpie-acelerador/cnpie-backend/config"
)

// Object is one upload.
type Object struct {
	Key          string
	ContentType  string
	CacheControl string
	Size         int64
	Body         io.Reader
}

// Store writes objects and returns the URL they are served from.
type Store interface {
	Upload(ctx context.Context, obj Object) (string, error)
}

// New builds the backend selected by cfg.Driver. app is only used by the
// gcs driver and may be nil for s3.
func New(ctx context.Context, cfg config.StorageConfig, app *firebase.App) (Store, error) {
	switch cfg.Driver {
	case "gcs":
		if app == nil {
			return nil, fmt.Errorf("gcs storage needs a firebase app")
		}
		client, err := app.Storage(ctx)
		if err != nil {
			return nil, fmt.Errorf("firebase storage: %w", err)
		}
		bucket, err := client.Bucket(cfg.Bucket)
		if err != nil {
			return nil, fmt.Errorf("open bucket %q: %w", cfg.Bucket, err)
		}
		return NewGCS(bucket, cfg.Bucket, cfg.PublicBaseURL, cfg.CacheControl), nil
	case "s3":
		awsConf, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("aws config load: %w", err)
		}
		client := s3.NewFromConfig(awsConf, func(o *s3.Options) {
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		})
		return NewS3(client, cfg.Bucket, cfg.Region, cfg.PublicBaseURL, cfg.CacheControl), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
