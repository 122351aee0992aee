// Package upload sends listing images to the image CDN in two phases: a
// signed credential is fetched from the API, then the file goes straight to
// the CDN with that credential.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/evcraddock/rent-finder/internal/media"
	"github.com/evcraddock/rent-finder/internal/validate"
)

// Error kinds. Use errors.Is against an *Error.
var (
	ErrCredential = errors.New("could not get upload credential")
	ErrTransport  = errors.New("upload failed")
	ErrAborted    = errors.New("upload aborted")
	ErrRejected   = errors.New("upload rejected by image service")
	ErrBusy       = errors.New("an upload is already in progress")
)

// Error is an upload failure. Kind is one of the Err values above.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// RejectedError carries the CDN's answer to a failed upload.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// CredentialSource issues upload credentials. *client.Client implements it.
type CredentialSource interface {
	UploadCredential(ctx context.Context, req media.Request) (*media.Credential, error)
}

// File is an image to upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Result is a stored image.
type Result struct {
	URL string `json:"url"`
	Key string `json:"key,omitempty"`
}

// Progress is how far the current upload has got.
type Progress struct {
	Sent  int64
	Total int64
}

// Percent returns Sent as a whole percentage of Total.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	pct := int(p.Sent * 100 / p.Total)
	return min(pct, 100)
}

// Coordinator runs one upload at a time.
type Coordinator struct {
	creds      CredentialSource
	maxBytes   int64
	httpClient *http.Client
	onProgress func(Progress)

	mu        sync.Mutex
	uploading bool
	progress  Progress
	cancel    context.CancelFunc
	aborted   bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMaxBytes sets the size ceiling. Zero or less keeps the default.
func WithMaxBytes(n int64) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithHTTPClient replaces the client used to talk to the CDN.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Coordinator) { c.httpClient = hc }
}

// WithProgress calls fn as bytes are sent.
func WithProgress(fn func(Progress)) Option {
	return func(c *Coordinator) { c.onProgress = fn }
}

// New creates a Coordinator.
func New(creds CredentialSource, opts ...Option) *Coordinator {
	c := &Coordinator{
		creds:      creds,
		maxBytes:   validate.DefaultMaxUploadBytes,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxBytes returns the size ceiling.
func (c *Coordinator) MaxBytes() int64 {
	return c.maxBytes
}

// Validate checks size and type without touching the network.
func (c *Coordinator) Validate(f File) error {
	return validate.File(f.Size, f.ContentType, c.maxBytes)
}

// Uploading reports whether an upload is in flight.
func (c *Coordinator) Uploading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploading
}

// Progress returns the progress of the current upload.
func (c *Coordinator) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// Abort cancels the in-flight upload, if any.
func (c *Coordinator) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.aborted = true
		c.cancel()
	}
}

// Upload validates f, fetches a credential and sends the file to the CDN.
// A validation failure is returned as-is; everything else is an *Error.
func (c *Coordinator) Upload(ctx context.Context, f File) (*Result, error) {
	if err := c.Validate(f); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := c.begin(f.Size, cancel); err != nil {
		return nil, err
	}
	defer c.finish()

	cred, err := c.creds.UploadCredential(ctx, media.Request{FileName: f.Name, ContentType: f.ContentType})
	if err != nil {
		return nil, c.classify(ErrCredential, err)
	}

	body := &countingReader{r: f.Body, report: c.advance}
	var res *Result
	if strings.EqualFold(cred.Method, media.MethodPut) {
		res, err = c.put(ctx, cred, f, body)
	} else {
		res, err = c.post(ctx, cred, f, body)
	}
	if err != nil {
		var rej *RejectedError
		if errors.As(err, &rej) {
			return nil, &Error{Kind: ErrRejected, Err: err}
		}
		return nil, c.classify(ErrTransport, err)
	}
	return res, nil
}

func (c *Coordinator) begin(total int64, cancel context.CancelFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uploading {
		return &Error{Kind: ErrBusy}
	}
	c.uploading = true
	c.aborted = false
	c.cancel = cancel
	c.progress = Progress{Total: total}
	return nil
}

func (c *Coordinator) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploading = false
	c.cancel = nil
	c.progress = Progress{}
}

func (c *Coordinator) advance(n int64) {
	c.mu.Lock()
	c.progress.Sent += n
	p := c.progress
	c.mu.Unlock()
	if c.onProgress != nil {
		c.onProgress(p)
	}
}

// classify turns err into kind unless the upload was aborted.
func (c *Coordinator) classify(kind, err error) error {
	c.mu.Lock()
	aborted := c.aborted
	c.mu.Unlock()
	if aborted {
		return &Error{Kind: ErrAborted}
	}
	return &Error{Kind: kind, Err: err}
}

// post sends an ImageKit style multipart form.
func (c *Coordinator) post(ctx context.Context, cred *media.Credential, f File, body io.Reader) (*Result, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeForm(mw, cred, f, body))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cred.Endpoint, pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		URL      string `json:"url"`
		FilePath string `json:"filePath"`
	}
	if err := c.send(req, &out); err != nil {
		_ = pr.Close()
		return nil, err
	}

	res := &Result{URL: out.URL, Key: cred.Key}
	if res.URL == "" {
		res.URL = cred.PublicURL
	}
	return res, nil
}

func writeForm(mw *multipart.Writer, cred *media.Credential, f File, body io.Reader) error {
	fields := [][2]string{
		{"fileName", f.Name},
		{"publicKey", cred.PublicKey},
		{"signature", cred.Signature},
		{"expire", strconv.FormatInt(cred.Expire, 10)},
		{"token", cred.Token},
	}
	if cred.Key != "" {
		fields = append(fields, [2]string{"folder", folderOf(cred.Key)})
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return err
		}
	}

	part, err := mw.CreateFormFile("file", f.Name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, body); err != nil {
		return err
	}
	return mw.Close()
}

func folderOf(key string) string {
	i := strings.LastIndex(key, "/")
	if i <= 0 {
		return "/"
	}
	return "/" + key[:i]
}

// put sends the raw bytes to a presigned URL.
func (c *Coordinator) put(ctx context.Context, cred *media.Credential, f File, body io.Reader) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, cred.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.ContentLength = f.Size
	for k, v := range cred.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", f.ContentType)
	}

	if err := c.send(req, nil); err != nil {
		return nil, err
	}
	return &Result{URL: cred.PublicURL, Key: cred.Key}, nil
}

// send performs req. A non-2xx answer is a *RejectedError.
func (c *Coordinator) send(req *http.Request, result any) (err error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing body: %w", closeErr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RejectedError{Status: resp.StatusCode, Message: cdnMessage(raw)}
	}
	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// cdnMessage pulls a human message out of a CDN error body.
func cdnMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return truncateRunes(strings.TrimSpace(string(raw)), maxMessageRunes)
}

const maxMessageRunes = 200

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

type countingReader struct {
	r      io.Reader
	report func(int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.report(int64(n))
	}
	return n, err
}
