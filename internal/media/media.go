// Package media issues short-lived credentials that let a client upload an
// image straight to the image store. The server never handles the file.
package media

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Upload methods.
const (
	MethodPost = "POST" // multipart form, ImageKit style
	MethodPut  = "PUT"  // raw body, S3 presigned URL
)

// Credential authorizes one direct upload.
type Credential struct {
	Method    string            `json:"method"`
	Endpoint  string            `json:"endpoint"`
	Token     string            `json:"token,omitempty"`
	Signature string            `json:"signature,omitempty"`
	Expire    int64             `json:"expire"`
	PublicKey string            `json:"public_key,omitempty"`
	Key       string            `json:"key,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	// PublicURL is where the file will be served from, when known ahead of
	// the upload.
	PublicURL string `json:"public_url,omitempty"`
}

// Request describes the file about to be uploaded.
type Request struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// Signer issues upload credentials.
type Signer interface {
	Sign(ctx context.Context, req Request) (*Credential, error)
}

// DefaultTTL is how long a credential stays valid.
const DefaultTTL = 30 * time.Minute

// Config selects and configures a signer.
type Config struct {
	Provider string // "imagekit" or "s3"; empty disables uploads
	TTL      time.Duration

	ImageKitPublicKey  string
	ImageKitPrivateKey string
	ImageKitEndpoint   string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

// ConfigFromEnv reads RF_MEDIA_*, RF_IMAGEKIT_* and RF_S3_* variables.
func ConfigFromEnv() Config {
	ttl, err := time.ParseDuration(os.Getenv("RF_MEDIA_TTL"))
	if err != nil || ttl <= 0 {
		ttl = DefaultTTL
	}
	return Config{
		Provider:           strings.ToLower(os.Getenv("RF_MEDIA_PROVIDER")),
		TTL:                ttl,
		ImageKitPublicKey:  os.Getenv("RF_IMAGEKIT_PUBLIC_KEY"),
		ImageKitPrivateKey: os.Getenv("RF_IMAGEKIT_PRIVATE_KEY"),
		ImageKitEndpoint:   os.Getenv("RF_IMAGEKIT_ENDPOINT"),
		S3Bucket:           os.Getenv("RF_S3_BUCKET"),
		S3Region:           envOrDefault("RF_S3_REGION", "us-east-1"),
		S3Endpoint:         os.Getenv("RF_S3_ENDPOINT"),
		S3AccessKey:        os.Getenv("RF_S3_ACCESS_KEY"),
		S3SecretKey:        os.Getenv("RF_S3_SECRET_KEY"),
		S3PublicURL:        os.Getenv("RF_S3_PUBLIC_URL"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewSigner builds the signer named by cfg.Provider. It returns nil and no
// error when uploads are disabled.
func NewSigner(ctx context.Context, cfg Config) (Signer, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "imagekit":
		if cfg.ImageKitPrivateKey == "" || cfg.ImageKitPublicKey == "" {
			return nil, fmt.Errorf("imagekit requires RF_IMAGEKIT_PUBLIC_KEY and RF_IMAGEKIT_PRIVATE_KEY")
		}
		return NewHMACSigner(cfg.ImageKitPublicKey, cfg.ImageKitPrivateKey, cfg.ImageKitEndpoint, cfg.TTL), nil
	case "s3":
		return NewS3Signer(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown media provider %q", cfg.Provider)
}

// storageKey returns listings/YYYY/MM/DD/<uuid><ext>.
func storageKey(now time.Time, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("listings/%04d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), uuid.NewString(), ext)
}
