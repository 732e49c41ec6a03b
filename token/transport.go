package token

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// FormContentType is the content type of token endpoint requests.
const FormContentType = "application/x-www-form-urlencoded;charset=UTF-8"

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 1 << 20
)

// Transport issues the POST to the token endpoint.
// A non-nil error means no response was obtained; any HTTP status is returned with its body.
type Transport interface {
	PostForm(ctx context.Context, url, body string) (status int, respBody []byte, err error)
}

var _ Transport = (*HTTPTransport)(nil)

// HTTPTransport is a Transport backed by net/http.
type HTTPTransport struct {
	client *http.Client
}

type HTTPTransportOption func(*HTTPTransport)

// WithHTTPClient replaces the underlying http client.
func WithHTTPClient(client *http.Client) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.client = client
	}
}

// WithTimeout sets the overall request timeout of the underlying http client.
func WithTimeout(timeout time.Duration) HTTPTransportOption {
	return func(t *HTTPTransport) {
		c := *t.client
		c.Timeout = timeout
		t.client = &c
	}
}

func NewHTTPTransport(options ...HTTPTransportOption) *HTTPTransport {
	t := &HTTPTransport{client: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (t *HTTPTransport) PostForm(ctx context.Context, url, body string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return 0, nil, errors.Wrap(err, "[HTTPTransport.PostForm] new request")
	}
	req.Header.Set("Content-Type", FormContentType)
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, errors.Wrap(err, "[HTTPTransport.PostForm] do")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "[HTTPTransport.PostForm] read body")
	}
	return resp.StatusCode, respBody, nil
}
