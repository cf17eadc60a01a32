// Package client is the sheet's typed HTTP client for the character API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/louisbranch/swnsheet/internal/platform/httpx"
	"github.com/louisbranch/swnsheet/internal/platform/timeouts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultDownloadFilename is used when the service sends no filename.
const DefaultDownloadFilename = "character.json"

const (
	tracerName       = "swnsheet/sheet/client"
	maxResponseBytes = 1 << 20
)

// StatusError reports a non-2xx response. Message holds the service's
// "error" field when the body carried one.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("character api status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("character api status %d", e.StatusCode)
}

// ServerMessage returns the service-supplied error text carried by err.
func ServerMessage(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Message
	}
	return ""
}

// Download is an exported character file.
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Client calls the character API. Each Client owns a cookie jar, so it
// holds exactly one service session.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A client without a jar
// gets a fresh one.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New builds a client rooted at baseURL (scheme and host of the service).
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base url %q must include scheme and host", baseURL)
	}
	c := &Client{baseURL: parsed, httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		copied := *c.httpClient
		copied.Jar = jar
		c.httpClient = &copied
	}
	return c, nil
}

// GetCharacter fetches the session character.
func (c *Client) GetCharacter(ctx context.Context) (Record, error) {
	return c.record(ctx, http.MethodGet, "/api/character", nil, "")
}

// NewCharacter replaces the session character with defaults.
func (c *Client) NewCharacter(ctx context.Context) (Record, error) {
	return c.record(ctx, http.MethodGet, "/api/new-character", nil, "")
}

// RollAttributes rolls fresh scores.
func (c *Client) RollAttributes(ctx context.Context) (Record, error) {
	return c.record(ctx, http.MethodGet, "/api/roll-attributes", nil, "")
}

// ChangeAttribute pins attr to 14.
func (c *Client) ChangeAttribute(ctx context.Context, attr Attribute) (Record, error) {
	body, err := json.Marshal(map[string]string{"attribute": string(attr)})
	if err != nil {
		return Record{}, err
	}
	return c.record(ctx, http.MethodPost, "/api/change-attribute", body, "application/json")
}

// SetDetail writes one detail value.
func (c *Client) SetDetail(ctx context.Context, detail Detail, value string) (Record, error) {
	body, err := json.Marshal(map[string]string{"detail": string(detail), "value": value})
	if err != nil {
		return Record{}, err
	}
	return c.record(ctx, http.MethodPost, "/api/set-detail", body, "application/json")
}

// UploadCharacter sends a JSON document as the multipart "file" part.
func (c *Client) UploadCharacter(ctx context.Context, filename string, content io.Reader) (Record, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return Record{}, fmt.Errorf("create form file: %w", err)
	}
	if content != nil {
		if _, err := io.Copy(part, content); err != nil {
			return Record{}, fmt.Errorf("copy upload: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return Record{}, fmt.Errorf("close multipart: %w", err)
	}
	return c.record(ctx, http.MethodPost, "/api/upload-character", body.Bytes(), writer.FormDataContentType())
}

// DownloadCharacter fetches the export file.
func (c *Client) DownloadCharacter(ctx context.Context) (Download, error) {
	var download Download
	err := c.do(ctx, http.MethodGet, "/api/download-character", nil, "", func(resp *http.Response) error {
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read download: %w", err)
		}
		download = Download{
			Filename:    FilenameFromDisposition(resp.Header.Get("Content-Disposition")),
			ContentType: resp.Header.Get("Content-Type"),
			Body:        data,
		}
		return nil
	})
	if err != nil {
		return Download{}, err
	}
	return download, nil
}

// FilenameFromDisposition extracts filename= from a Content-Disposition
// header, falling back to DefaultDownloadFilename.
func FilenameFromDisposition(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return DefaultDownloadFilename
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := strings.TrimSpace(params["filename"]); name != "" {
			return name
		}
		return DefaultDownloadFilename
	}
	idx := strings.Index(strings.ToLower(header), "filename=")
	if idx == -1 {
		return DefaultDownloadFilename
	}
	name := header[idx+len("filename="):]
	if semi := strings.IndexByte(name, ';'); semi != -1 {
		name = name[:semi]
	}
	name = strings.Trim(strings.TrimSpace(name), `"'`)
	if name == "" {
		return DefaultDownloadFilename
	}
	return name
}

func (c *Client) record(ctx context.Context, method, path string, body []byte, contentType string) (Record, error) {
	var rec Record
	err := c.do(ctx, method, path, body, contentType, func(resp *http.Response) error {
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&rec); err != nil {
			return fmt.Errorf("decode character: %w", err)
		}
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string, onOK func(*http.Response) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeouts.APIRequest)
		defer cancel()
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.request.method", method), attribute.String("url.path", path)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	httpx.InjectTrace(ctx, req.Header)
	httpx.InjectRequestID(ctx, req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	return onOK(resp)
}

func statusError(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode}
	var payload struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err := json.Unmarshal(data, &payload); err == nil {
		statusErr.Message = strings.TrimSpace(payload.Error)
	}
	return statusErr
}
