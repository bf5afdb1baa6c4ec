// Package http reads remote Umod archives through HTTP range requests.
//
// A Source satisfies umod.ByteSource, so an archive can be listed and
// individual entries pulled without downloading the whole file. Wrap it in
// a cache.BlockCache to avoid one request per small read.
package http //nolint:revive // intentional naming for domain clarity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"
)

// ErrRangeUnsupported is returned when the server ignores Range headers.
var ErrRangeUnsupported = errors.New("http: range requests not supported")

// Source implements random access reads via HTTP range requests.
type Source struct {
	ctx                   context.Context
	url                   string
	client                *nethttp.Client
	headers               nethttp.Header
	size                  int64
	etag                  string
	lastModified          string
	useConditionalHeaders bool
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(s *Source) {
		if headers == nil {
			return
		}
		s.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		if s.headers == nil {
			s.headers = make(nethttp.Header)
		}
		s.headers.Set(key, value)
	}
}

// WithConditionalHeaders sends If-Match / If-Unmodified-Since on range reads
// so a file replaced on the server is detected mid-read. Servers that answer
// 412 are retried once without them.
func WithConditionalHeaders() Option {
	return func(s *Source) {
		s.useConditionalHeaders = true
	}
}

// NewSource probes url and returns a Source for it.
//
// ctx bounds the probe and every later request made by the Source.
func NewSource(ctx context.Context, url string, opts ...Option) (*Source, error) {
	s := &Source{
		ctx:    ctx,
		url:    url,
		client: nethttp.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = nethttp.DefaultClient
	}

	if err := s.fetchMetadata(); err != nil {
		return nil, fmt.Errorf("probe %s: %w", url, err)
	}
	return s, nil
}

// Size returns the total size of the remote content.
func (s *Source) Size() int64 {
	return s.size
}

// SourceID identifies the remote content for caching. It changes when the
// server reports a different ETag, modification time or size.
func (s *Source) SourceID() string {
	switch {
	case s.etag != "":
		return fmt.Sprintf("url:%s|etag:%s", s.url, s.etag)
	case s.lastModified != "":
		return fmt.Sprintf("url:%s|mod:%s|size:%d", s.url, s.lastModified, s.size)
	default:
		return fmt.Sprintf("url:%s|size:%d", s.url, s.size)
	}
}

// ReadAt implements io.ReaderAt. A read crossing the end of the content
// returns the available bytes and io.EOF.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}
	want := min(int64(len(p)), s.size-off)

	body, err := s.fetchRange(off, want)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	n, err := io.ReadFull(body, p[:want])
	if err != nil {
		return n, err
	}
	if want < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}

// ReadRange returns the body of a single range request for
// [off, off+length), clamped to the content size. The caller closes it.
func (s *Source) ReadRange(off, length int64) (io.ReadCloser, error) {
	if length < 0 {
		return nil, fmt.Errorf("read range length %d: negative length", length)
	}
	if off < 0 {
		return nil, fmt.Errorf("read range %d: negative offset", off)
	}
	if length == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	if off >= s.size {
		return io.NopCloser(bytes.NewReader(nil)), io.EOF
	}
	return s.fetchRange(off, min(length, s.size-off))
}

// fetchRange issues the range request, retrying once without conditional
// headers on 412. The returned body is limited to length bytes.
func (s *Source) fetchRange(off, length int64) (io.ReadCloser, error) {
	end := off + length - 1
	resp, err := s.rangeRequest(off, end, true)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == nethttp.StatusPreconditionFailed && s.hasConditionalHeaders() {
		drain(resp)
		resp, err = s.rangeRequest(off, end, false)
		if err != nil {
			return nil, err
		}
	}

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
		return &rangeBody{body: resp.Body, r: io.LimitReader(resp.Body, length)}, nil
	case nethttp.StatusRequestedRangeNotSatisfiable:
		drain(resp)
		return nil, io.EOF
	case nethttp.StatusOK:
		drain(resp)
		return nil, ErrRangeUnsupported
	default:
		drain(resp)
		return nil, fmt.Errorf("range request bytes=%d-%d: %s", off, end, resp.Status)
	}
}

// fetchMetadata sets size and validators. HEAD is advisory; the range probe
// is authoritative and must agree with a positive HEAD length.
func (s *Source) fetchMetadata() error {
	headSize := int64(-1)
	if resp, err := s.do(nethttp.MethodHead, "", false); err == nil {
		headSize = resp.ContentLength
		s.etag = resp.Header.Get("ETag")
		s.lastModified = resp.Header.Get("Last-Modified")
		drain(resp)
	}

	resp, err := s.do(nethttp.MethodGet, "bytes=0-0", false)
	if err != nil {
		return err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
	case nethttp.StatusOK:
		return ErrRangeUnsupported
	default:
		return fmt.Errorf("range probe failed: %s", resp.Status)
	}

	crange := resp.Header.Get("Content-Range")
	if crange == "" {
		return errors.New("range probe missing Content-Range")
	}
	size, err := parseContentRange(crange)
	if err != nil {
		return err
	}
	if headSize > 0 && headSize != size {
		return fmt.Errorf("content size mismatch: head=%d range=%d", headSize, size)
	}
	s.size = size
	if s.etag == "" {
		s.etag = resp.Header.Get("ETag")
	}
	if s.lastModified == "" {
		s.lastModified = resp.Header.Get("Last-Modified")
	}
	return nil
}

func (s *Source) rangeRequest(off, end int64, withConditions bool) (*nethttp.Response, error) {
	return s.do(nethttp.MethodGet, fmt.Sprintf("bytes=%d-%d", off, end), withConditions)
}

// do sends one request with the configured headers.
func (s *Source) do(method, byteRange string, withConditions bool) (*nethttp.Response, error) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := nethttp.NewRequestWithContext(ctx, method, s.url, nethttp.NoBody)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	if byteRange != "" {
		req.Header.Set("Range", byteRange)
	}
	if withConditions && s.useConditionalHeaders {
		if s.etag != "" && req.Header.Get("If-Match") == "" {
			req.Header.Set("If-Match", s.etag)
		}
		if s.lastModified != "" && req.Header.Get("If-Unmodified-Since") == "" {
			req.Header.Set("If-Unmodified-Since", s.lastModified)
		}
	}
	return s.client.Do(req)
}

func (s *Source) hasConditionalHeaders() bool {
	return s.useConditionalHeaders && (s.etag != "" || s.lastModified != "")
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *nethttp.Response) {
	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best-effort drain for connection reuse
	_ = resp.Body.Close()
}

type rangeBody struct {
	body io.ReadCloser
	r    io.Reader
}

func (b *rangeBody) Read(p []byte) (int, error) {
	return b.r.Read(p)
}

func (b *rangeBody) Close() error {
	_, _ = io.Copy(io.Discard, b.body) //nolint:errcheck // best-effort drain for connection reuse
	return b.body.Close()
}

// parseContentRange returns the complete length from "bytes start-end/size".
func parseContentRange(value string) (int64, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(value), "bytes ")
	if !ok {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	_, total, ok := strings.Cut(rest, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	return size, nil
}
