package media

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// DefaultImageKitEndpoint is ImageKit's upload API.
const DefaultImageKitEndpoint = "https://upload.imagekit.io/api/v1/files/upload"

// HMACSigner issues ImageKit-style credentials: a random token, an expiry
// and hex(HMAC-SHA1(privateKey, token+expire)).
type HMACSigner struct {
	publicKey  string
	privateKey []byte
	endpoint   string
	ttl        time.Duration
	now        func() time.Time
}

// NewHMACSigner creates a signer. Empty endpoint and zero ttl use defaults.
func NewHMACSigner(publicKey, privateKey, endpoint string, ttl time.Duration) *HMACSigner {
	if endpoint == "" {
		endpoint = DefaultImageKitEndpoint
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &HMACSigner{publicKey: publicKey, privateKey: []byte(privateKey), endpoint: endpoint, ttl: ttl, now: time.Now}
}

// Sign implements Signer.
func (s *HMACSigner) Sign(_ context.Context, req Request) (*Credential, error) {
	token := uuid.NewString()
	expire := s.now().Add(s.ttl).Unix()
	return &Credential{
		Method:    MethodPost,
		Endpoint:  s.endpoint,
		Token:     token,
		Expire:    expire,
		Signature: Signature(s.privateKey, token, expire),
		PublicKey: s.publicKey,
		Key:       storageKey(s.now(), req.FileName),
	}, nil
}

// Signature computes the upload signature for token and expire.
func Signature(privateKey []byte, token string, expire int64) string {
	mac := hmac.New(sha1.New, privateKey)
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
