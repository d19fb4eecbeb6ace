package crx

import (
	"log/slog"
	"net/http"
)

const (
	// DefaultEndpoint is the extension update service serving packaged extensions.
	DefaultEndpoint = "https://clients2.google.com/service/update2/crx"

	// DefaultUserAgent is the desktop browser identity sent with downloads.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 6.1; WOW64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/38.0.2125.111 Safari/537.36"

	// DefaultReferer is sent with every download request.
	DefaultReferer = "https://chrome.google.com"

	// DefaultProdVersion is the browser version reported to the update service.
	DefaultProdVersion = "49.0"
)

// options holds configuration shared by Fetcher and Unpacker.
type options struct {
	logger    *slog.Logger
	client    *http.Client
	endpoint  string
	userAgent string
	referer   string
	preserve  []string
}

// Option is a functional option for configuring a Fetcher or an Unpacker.
type Option func(*options)

// WithLogger configures a custom logger.
// If logger is nil, logging will be disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithHTTPClient sets the client used for downloads.
// Redirects are followed according to the client's CheckRedirect policy.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *options) {
		if client != nil {
			opts.client = client
		}
	}
}

// WithEndpoint overrides the update service URL.
func WithEndpoint(endpoint string) Option {
	return func(opts *options) {
		if endpoint != "" {
			opts.endpoint = endpoint
		}
	}
}

// WithUserAgent overrides the User-Agent header of download requests.
func WithUserAgent(ua string) Option {
	return func(opts *options) {
		opts.userAgent = ua
	}
}

// WithReferer overrides the Referer header of download requests.
func WithReferer(referer string) Option {
	return func(opts *options) {
		opts.referer = referer
	}
}

// WithPreserve names top-level entries of the target directory that Unpack
// keeps in place, such as a ".git" directory. Archive entries below a
// preserved name are skipped.
func WithPreserve(names ...string) Option {
	return func(opts *options) {
		opts.preserve = append(opts.preserve, names...)
	}
}

// defaultOptions returns the default configuration options.
func defaultOptions() *options {
	return &options{
		logger:    nil, // No default logger
		client:    http.DefaultClient,
		endpoint:  DefaultEndpoint,
		userAgent: DefaultUserAgent,
		referer:   DefaultReferer,
	}
}

// applyOptions applies the given options to the configuration.
func applyOptions(opts *options, list []Option) {
	for _, option := range list {
		option(opts)
	}
}
