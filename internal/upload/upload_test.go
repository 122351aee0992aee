package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/evcraddock/rent-finder/internal/apperr"
	"github.com/evcraddock/rent-finder/internal/media"
)

type fakeCreds struct {
	cred *media.Credential
	err  error
	got  media.Request
}

func (f *fakeCreds) UploadCredential(_ context.Context, req media.Request) (*media.Credential, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	c := *f.cred
	return &c, nil
}

func jpeg(size int) File {
	return File{
		Name:        "kitchen.jpg",
		ContentType: "image/jpeg",
		Size:        int64(size),
		Body:        bytes.NewReader(bytes.Repeat([]byte{0xff}, size)),
	}
}

func TestValidate(t *testing.T) {
	c := New(&fakeCreds{}, WithMaxBytes(100))

	tests := []struct {
		name string
		file File
		kind apperr.ValidationKind
	}{
		{"too large", File{Name: "a.jpg", ContentType: "image/jpeg", Size: 101}, apperr.KindFileSize},
		{"wrong type", File{Name: "a.pdf", ContentType: "application/pdf", Size: 10}, apperr.KindFileType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ve *apperr.ValidationError
			if err := c.Validate(tt.file); !errors.As(err, &ve) || ve.Kind != tt.kind {
				t.Errorf("Validate = %v, want kind %s", err, tt.kind)
			}
		})
	}

	if err := c.Validate(File{Name: "a.webp", ContentType: "image/webp", Size: 100}); err != nil {
		t.Errorf("Validate = %v", err)
	}
}

func TestUploadMultipart(t *testing.T) {
	var form map[string]string
	var fileBytes int
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b, _ := io.ReadAll(f)
		fileBytes = len(b)
		_, _ = w.Write([]byte(`{"url":"https://cdn.example.com/listings/kitchen.jpg","fileId":"f1"}`))
	}))
	defer cdn.Close()

	creds := &fakeCreds{cred: &media.Credential{
		Method:    media.MethodPost,
		Endpoint:  cdn.URL,
		Token:     "tok",
		Signature: "sig",
		Expire:    1700000000,
		PublicKey: "pub",
		Key:       "listings/2026/03/07/abc.jpg",
	}}

	var mu sync.Mutex
	var last Progress
	c := New(creds, WithProgress(func(p Progress) {
		mu.Lock()
		last = p
		mu.Unlock()
	}))

	res, err := c.Upload(context.Background(), jpeg(4096))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.URL != "https://cdn.example.com/listings/kitchen.jpg" {
		t.Errorf("URL = %q", res.URL)
	}
	if creds.got.FileName != "kitchen.jpg" || creds.got.ContentType != "image/jpeg" {
		t.Errorf("credential request = %+v", creds.got)
	}
	if form["token"] != "tok" || form["signature"] != "sig" || form["expire"] != "1700000000" ||
		form["publicKey"] != "pub" || form["fileName"] != "kitchen.jpg" {
		t.Errorf("form = %v", form)
	}
	if form["folder"] != "/listings/2026/03/07" {
		t.Errorf("folder = %q", form["folder"])
	}
	if fileBytes != 4096 {
		t.Errorf("file bytes = %d", fileBytes)
	}

	mu.Lock()
	defer mu.Unlock()
	if last.Sent != 4096 || last.Percent() != 100 {
		t.Errorf("last progress = %+v", last)
	}
	if c.Uploading() || c.Progress() != (Progress{}) {
		t.Errorf("state not reset: uploading=%v progress=%+v", c.Uploading(), c.Progress())
	}
}

func TestUploadPut(t *testing.T) {
	var gotBody []byte
	var gotType string
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s", r.Method)
		}
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer cdn.Close()

	creds := &fakeCreds{cred: &media.Credential{
		Method:    media.MethodPut,
		Endpoint:  cdn.URL + "/bucket/listings/a.jpg?X-Amz-Signature=x",
		Headers:   map[string]string{"Content-Type": "image/jpeg"},
		Key:       "listings/a.jpg",
		PublicURL: "https://bucket.example.com/listings/a.jpg",
	}}

	res, err := New(creds).Upload(context.Background(), jpeg(512))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.URL != "https://bucket.example.com/listings/a.jpg" || res.Key != "listings/a.jpg" {
		t.Errorf("result = %+v", res)
	}
	if len(gotBody) != 512 || gotType != "image/jpeg" {
		t.Errorf("body = %d bytes, type %q", len(gotBody), gotType)
	}
}

func TestUploadValidationSkipsNetwork(t *testing.T) {
	creds := &fakeCreds{err: errors.New("should not be called")}
	c := New(creds)

	_, err := c.Upload(context.Background(), File{Name: "a.txt", ContentType: "text/plain", Size: 3, Body: strings.NewReader("abc")})
	if !apperr.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if creds.got.FileName != "" {
		t.Error("credential requested for invalid file")
	}
}

func TestUploadCredentialFailure(t *testing.T) {
	remote := &apperr.RemoteError{Status: http.StatusServiceUnavailable, Message: "Image uploads are not configured"}
	c := New(&fakeCreds{err: remote})

	_, err := c.Upload(context.Background(), jpeg(10))
	if !errors.Is(err, ErrCredential) {
		t.Fatalf("err = %v, want ErrCredential", err)
	}
	if !errors.Is(err, remote) {
		t.Errorf("cause lost: %v", err)
	}
	if c.Uploading() {
		t.Error("still uploading")
	}
}

func TestUploadRejected(t *testing.T) {
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Your request contains expired signature"}`))
	}))
	defer cdn.Close()

	c := New(&fakeCreds{cred: &media.Credential{Method: media.MethodPost, Endpoint: cdn.URL}})
	_, err := c.Upload(context.Background(), jpeg(10))
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Status != http.StatusForbidden || rej.Message != "Your request contains expired signature" {
		t.Errorf("rejection = %+v", rej)
	}
}

func TestUploadTransportFailure(t *testing.T) {
	cdn := httptest.NewServer(http.NotFoundHandler())
	endpoint := cdn.URL
	cdn.Close()

	c := New(&fakeCreds{cred: &media.Credential{Method: media.MethodPut, Endpoint: endpoint}})
	_, err := c.Upload(context.Background(), jpeg(10))
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestAbort(t *testing.T) {
	started := make(chan struct{})
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer cdn.Close()

	c := New(&fakeCreds{cred: &media.Credential{Method: media.MethodPut, Endpoint: cdn.URL}})

	done := make(chan error, 1)
	go func() {
		_, err := c.Upload(context.Background(), jpeg(10))
		done <- err
	}()

	<-started
	if !c.Uploading() {
		t.Error("Uploading = false during upload")
	}
	c.Abort()

	err := <-done
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if c.Uploading() || c.Progress() != (Progress{}) {
		t.Error("state not reset after abort")
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		p    Progress
		want int
	}{
		{Progress{}, 0},
		{Progress{Sent: 1, Total: 4}, 25},
		{Progress{Sent: 9, Total: 4}, 100},
	}
	for _, tt := range tests {
		if got := tt.p.Percent(); got != tt.want {
			t.Errorf("%+v.Percent() = %d, want %d", tt.p, got, tt.want)
		}
	}
}

func TestCDNMessage(t *testing.T) {
	long := strings.Repeat("é", 250)
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"message field", `{"message":"Your account cannot be authenticated."}`, "Your account cannot be authenticated."},
		{"error field", `{"error":"bad signature"}`, "bad signature"},
		{"plain text", "  upstream timeout \n", "upstream timeout"},
		{"long multibyte body", long, strings.Repeat("é", 200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cdnMessage([]byte(tt.raw))
			if got != tt.want {
				t.Errorf("cdnMessage = %q, want %q", got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Error("message is not valid UTF-8")
			}
		})
	}
}
