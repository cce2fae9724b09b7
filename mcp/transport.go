package mcp

import (
	"context"
	"net/http"
	"net/url"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrUnsupportedTarget is returned when the target is neither a server script nor a URL.
var ErrUnsupportedTarget = errors.New("server script must be a .py or .js file")

// NewTransport returns the transport for the target:
// a .py or .js script launched over stdio, or a streamable HTTP endpoint.
func NewTransport(ctx context.Context, target string, opts ...Option) (mcpsdk.Transport, error) {
	return newTransport(ctx, target, newOptions(opts...))
}

func newTransport(ctx context.Context, target string, o *options) (mcpsdk.Transport, error) {
	target = strings.TrimSpace(target)
	lowered := strings.ToLower(target)

	if strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://") {
		u, err := url.Parse(target)
		if err != nil || u.Host == "" {
			return nil, errors.Wrapf(ErrUnsupportedTarget, "invalid URL %q", target)
		}
		return &mcpsdk.StreamableClientTransport{
			Endpoint:   u.String(),
			HTTPClient: o.client(),
			// no reconnects
			MaxRetries: -1,
		}, nil
	}

	command, ok := o.commands[strings.ToLower(filepath.Ext(target))]
	if !ok {
		return nil, errors.WithStack(ErrUnsupportedTarget)
	}

	// #nosec G204 -- the script is provided by the user who runs the client
	cmd := exec.CommandContext(ctx, command, target)
	cmd.Stderr = o.stderr
	return &mcpsdk.CommandTransport{Command: cmd}, nil
}

func (o *options) client() *http.Client {
	client := o.httpClient
	if client == nil {
		client = &http.Client{}
	}
	if len(o.headers) == 0 {
		return client
	}

	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	cp := *client
	cp.Transport = &headerTransport{base: base, headers: o.headers}
	return &cp
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	return t.base.RoundTrip(r)
}
