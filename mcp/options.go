package mcp

import (
	"io"
	"net/http"
	"os"
)

const (
	// DefaultClientName is the implementation name reported to servers
	DefaultClientName = "mcpclient"
	// DefaultClientVersion is the implementation version reported to servers
	DefaultClientVersion = "1.0.0"
)

// Option configures the Client.
type Option func(*options)

type options struct {
	name       string
	version    string
	commands   map[string]string
	headers    map[string]string
	httpClient *http.Client
	stderr     io.Writer
}

func newOptions(opts ...Option) *options {
	o := &options{
		name:    DefaultClientName,
		version: DefaultClientVersion,
		commands: map[string]string{
			".py": "python",
			".js": "node",
		},
		headers: map[string]string{},
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithCommand overrides the interpreter used to launch
// server scripts with the extension, ".py" or ".js".
func WithCommand(ext, command string) Option {
	return func(o *options) {
		if command != "" {
			o.commands[ext] = command
		}
	}
}

// WithImplementation sets the client name and version reported to the server.
func WithImplementation(name, version string) Option {
	return func(o *options) {
		o.name = name
		o.version = version
	}
}

// WithHeader adds a header to the HTTP requests.
func WithHeader(key, value string) Option {
	return func(o *options) {
		o.headers[key] = value
	}
}

// WithHTTPClient sets the HTTP client for the streamable HTTP transport.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithStderr sets the writer for the stderr of the server process.
func WithStderr(w io.Writer) Option {
	return func(o *options) {
		o.stderr = w
	}
}
