package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// S3Signer issues presigned PUT URLs for an S3-compatible bucket.
type S3Signer struct {
	presign   *s3.PresignClient
	bucket    string
	publicURL string
	ttl       time.Duration
	now       func() time.Time
}

// NewS3Signer loads AWS configuration and creates a presign client. Static
// credentials are used when RF_S3_ACCESS_KEY is set, otherwise the default
// AWS credential chain.
func NewS3Signer(ctx context.Context, cfg Config) (*S3Signer, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 requires RF_S3_BUCKET")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &S3Signer{
		presign:   s3.NewPresignClient(client),
		bucket:    cfg.S3Bucket,
		publicURL: strings.TrimRight(cfg.S3PublicURL, "/"),
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// Sign implements Signer.
func (s *S3Signer) Sign(ctx context.Context, req Request) (*Credential, error) {
	now := s.now()
	key := storageKey(now, req.FileName)

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if req.ContentType != "" {
		in.ContentType = aws.String(req.ContentType)
	}

	signed, err := presignPutObject(s.presign, ctx, in, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("presigning upload: %w", err)
	}

	headers := make(map[string]string)
	for name, values := range signed.SignedHeader {
		if strings.EqualFold(name, "host") || len(values) == 0 {
			continue
		}
		headers[name] = values[0]
	}

	publicURL := signed.URL
	if i := strings.IndexByte(publicURL, '?'); i >= 0 {
		publicURL = publicURL[:i]
	}
	if s.publicURL != "" {
		publicURL = s.publicURL + "/" + key
	}

	return &Credential{
		Method:    MethodPut,
		Endpoint:  signed.URL,
		Expire:    now.Add(s.ttl).Unix(),
		Key:       key,
		Headers:   headers,
		PublicURL: publicURL,
	}, nil
}
