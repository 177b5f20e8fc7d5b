package main

import (
	tls_client "github.com/bogdanfinn/tls-client"
)

// requestTimeoutSeconds is the fixed overall timeout for every request. A
// timeout surfaces as a transient failure; the transport never retries.
const requestTimeoutSeconds = 20

// NewClient builds the one reusable HTTP client behind a session: Chrome 142
// Android TLS profile, HTTP/2 with HTTP/1.1 fallback, no automatic redirects.
// Redirect following is decided per request by the session.
func NewClient(logger tls_client.Logger, proxyURL string) (tls_client.HttpClient, error) {
	if logger == nil {
		logger = tls_client.NewNoopLogger()
	}

	jar := tls_client.NewCookieJar()
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(requestTimeoutSeconds),
		tls_client.WithClientProfile(chrome142AndroidProfile),
		tls_client.WithRandomTLSExtensionOrder(),
		tls_client.WithNotFollowRedirects(),
		tls_client.WithCookieJar(jar),
	}

	if proxyURL != "" {
		options = append(options, tls_client.WithProxyUrl(proxyURL))
	}

	return tls_client.NewHttpClient(logger, options...)
}
