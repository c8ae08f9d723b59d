package session

import (
	"net/http"

	apperrors "github.com/kbukum/deferhttp/errors"
)

// PrepareRequest is not supported.
func (s *Session) PrepareRequest(*http.Request) (*http.Request, error) {
	return nil, apperrors.NotSupported("PrepareRequest")
}

// Send is not supported; use Request.
func (s *Session) Send(*http.Request) (*http.Response, error) {
	return nil, apperrors.NotSupported("Send")
}

// ResolveRedirects is not supported. Redirects are followed by the transport.
func (s *Session) ResolveRedirects(*http.Response, *http.Request) ([]*http.Response, error) {
	return nil, apperrors.NotSupported("ResolveRedirects")
}

// GetRedirectTarget is not supported.
func (s *Session) GetRedirectTarget(*http.Response) (string, error) {
	return "", apperrors.NotSupported("GetRedirectTarget")
}

// RebuildAuth is not supported.
func (s *Session) RebuildAuth(*http.Request, *http.Response) error {
	return apperrors.NotSupported("RebuildAuth")
}

// RebuildMethod is not supported.
func (s *Session) RebuildMethod(*http.Request, *http.Response) error {
	return apperrors.NotSupported("RebuildMethod")
}

// RebuildProxies is not supported.
func (s *Session) RebuildProxies(*http.Request, map[string]string) (map[string]string, error) {
	return nil, apperrors.NotSupported("RebuildProxies")
}

// MergeEnvironmentSettings is not supported.
func (s *Session) MergeEnvironmentSettings(string, map[string]any) (map[string]any, error) {
	return nil, apperrors.NotSupported("MergeEnvironmentSettings")
}

// Mount is not supported.
func (s *Session) Mount(string, http.RoundTripper) error {
	return apperrors.NotSupported("Mount")
}

// GetAdapter is not supported.
func (s *Session) GetAdapter(string) (http.RoundTripper, error) {
	return nil, apperrors.NotSupported("GetAdapter")
}

// Enter is not supported; call Close when done.
func (s *Session) Enter() (*Session, error) {
	return nil, apperrors.NotSupported("Enter")
}

// Exit is not supported; call Close when done.
func (s *Session) Exit() error {
	return apperrors.NotSupported("Exit")
}

// MarshalJSON always fails: session state is not serializable.
func (s *Session) MarshalJSON() ([]byte, error) {
	return nil, apperrors.NotSupported("MarshalJSON")
}

// UnmarshalJSON always fails: session state is not serializable.
func (s *Session) UnmarshalJSON([]byte) error {
	return apperrors.NotSupported("UnmarshalJSON")
}

// GobEncode always fails: session state is not serializable.
func (s *Session) GobEncode() ([]byte, error) {
	return nil, apperrors.NotSupported("GobEncode")
}

// GobDecode always fails: session state is not serializable.
func (s *Session) GobDecode([]byte) error {
	return apperrors.NotSupported("GobDecode")
}
