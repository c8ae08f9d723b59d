package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/html/charset"
)

// Response is a completed exchange. The body is read once and buffered,
// so every projection may be called any number of times.
type Response struct {
	raw *http.Response

	once    sync.Once
	body    []byte
	readErr error
}

// NewResponse wraps an *http.Response. The body is read on first use.
func NewResponse(raw *http.Response) *Response {
	return &Response{raw: raw}
}

// Status returns the HTTP status code.
func (r *Response) Status() int {
	return r.raw.StatusCode
}

// Reason returns the status text, e.g. "Not Found".
func (r *Response) Reason() string {
	if _, reason, ok := strings.Cut(r.raw.Status, " "); ok && reason != "" {
		return reason
	}
	return http.StatusText(r.raw.StatusCode)
}

// Header returns the response headers.
func (r *Response) Header() http.Header {
	return r.raw.Header
}

// URL returns the final request URL, after redirects.
func (r *Response) URL() *url.URL {
	if r.raw.Request == nil {
		return nil
	}
	return r.raw.Request.URL
}

// Method returns the request method.
func (r *Response) Method() string {
	if r.raw.Request == nil {
		return ""
	}
	return r.raw.Request.Method
}

// Unwrap returns the underlying *http.Response. Its body has already been
// consumed once Read has run; it is replaced by a reader over the buffer.
func (r *Response) Unwrap() *http.Response {
	return r.raw
}

// Read returns the response body, reading and closing it on first call.
func (r *Response) Read() ([]byte, error) {
	r.once.Do(func() {
		if r.raw.Body == nil || r.raw.Body == http.NoBody {
			return
		}
		r.body, r.readErr = io.ReadAll(r.raw.Body)
		_ = r.raw.Body.Close()
		r.raw.Body = io.NopCloser(bytes.NewReader(r.body))
		if r.readErr != nil {
			r.readErr = NewConnectionError(fmt.Errorf("read response body: %w", r.readErr))
		}
	})
	return r.body, r.readErr
}

// Text decodes the body using the charset from Content-Type, falling back
// to content sniffing.
func (r *Response) Text() (string, error) {
	body, err := r.Read()
	if err != nil || len(body) == 0 {
		return "", err
	}
	reader, err := charset.NewReader(bytes.NewReader(body), r.raw.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("transport: decoding body: %w", err)
	}
	text, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("transport: decoding body: %w", err)
	}
	return string(text), nil
}

// JSON decodes the body into v. An empty body leaves v untouched.
func (r *Response) JSON(v any) error {
	body, err := r.Read()
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("transport: decoding json: %w", err)
	}
	return nil
}

// RaiseForStatus returns a classified *Error when the status is >= 400.
func (r *Response) RaiseForStatus() error {
	if r.raw.StatusCode < http.StatusBadRequest {
		return nil
	}
	body, _ := r.Read()
	e := ClassifyStatus(r.raw.StatusCode, body)
	if u := r.URL(); u != nil {
		e.URL = u.String()
		e.Message = fmt.Sprintf("%d %s, url=%s", r.raw.StatusCode, r.Reason(), e.URL)
	}
	return e
}

// Close releases the body if it was never read.
func (r *Response) Close() error {
	var err error
	r.once.Do(func() {
		if r.raw.Body != nil {
			err = r.raw.Body.Close()
		}
		r.raw.Body = http.NoBody
	})
	return err
}
