package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/kbukum/deferhttp/transport"
)

// TestURL is the request URL of responses built by NewResponse.
const TestURL = "http://deferhttp.test/"

// NewResponse builds a transport response to a GET of TestURL with a
// plain-text body.
func NewResponse(status int, body string) *transport.Response {
	return newResponse(status, "text/plain; charset=utf-8", body)
}

// NewJSONResponse builds a transport response whose body is v encoded as
// JSON. It panics if v cannot be encoded.
func NewJSONResponse(status int, v any) *transport.Response {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: encoding response body: %v", err))
	}
	return newResponse(status, "application/json", string(data))
}

func newResponse(status int, contentType, body string) *transport.Response {
	return transport.NewResponse(&http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": {contentType}},
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       httptest.NewRequest(http.MethodGet, TestURL, nil),
	})
}
