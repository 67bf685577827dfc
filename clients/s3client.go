package clients

import (
	"context"

	s3Config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/emzola/bookshelf/config"
)

// NewS3Client configures a new AWS S3 object storage client for the cover store.
// Static credentials are used when configured, otherwise the default AWS
// credential chain applies.
func NewS3Client(ctx context.Context, cfg config.Config) (*s3.Client, error) {
	opts := []func(*s3Config.LoadOptions) error{s3Config.WithRegion(cfg.S3.Region)}
	if cfg.S3.AccessKeyID != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, "")
		opts = append(opts, s3Config.WithCredentialsProvider(creds))
	}
	awsCfg, err := s3Config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg), nil
}
