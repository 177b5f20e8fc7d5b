package main

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Sentinel errors for the handshake and resolution steps. Each step either
// produces its documented success shape or one of these; nothing is swallowed
// into a generic catch-all.
var (
	// ErrCaptchaExtraction means the login page no longer carries the three
	// captcha challenge fields where we expect them.
	ErrCaptchaExtraction = errors.New("could not extract captcha challenge from the login page, try again")

	// ErrAuthRequired is returned when an operation needs a stored
	// authenticated account and the config has none.
	ErrAuthRequired = errors.New("authentication required, log in first")

	// ErrAttachmentNotFound means the download page had no attachment anchor.
	// The page shape is unexpected; retrying won't help.
	ErrAttachmentNotFound = errors.New("could not find the attachment link on the download page")

	// ErrDirectLinkNotFound means both negotiation stages completed without
	// the server handing out a direct link. The whole resolution may be
	// retried later.
	ErrDirectLinkNotFound = errors.New("server did not return a direct link, try again")

	// ErrFileInaccessible is the handled outcome for a 404 on the download
	// page: the file is gone or the account has no access to it.
	ErrFileInaccessible = errors.New("file not found or you have no access to it")

	// ErrSessionClosed is returned when the session is used or closed after
	// it has already been closed.
	ErrSessionClosed = errors.New("session already closed")
)

// UnexpectedStatusError reports a status code that violates the server
// contract for a step where only one code is acceptable.
type UnexpectedStatusError struct {
	StatusCode int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status code from server: %d", e.StatusCode)
}

// BlockedError means Cloudflare refused the request with a challenge before
// it reached the forum. Hint carries the remediation text shown to the user.
type BlockedError struct {
	Hint string
}

func (e *BlockedError) Error() string {
	return "blocked by Cloudflare: " + e.Hint
}

// MalformedURLError reports an input URL that does not match the download
// page grammar. Raised before any network call.
type MalformedURLError struct {
	URL string
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("not a forum download URL: %s", e.URL)
}

// retryableErrorPatterns contains error message substrings that indicate
// transient network failures.
var retryableErrorPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"i/o timeout",
	"context deadline exceeded",
	"TLS handshake timeout",
	"EOF",
	"malformed HTTP response",
	"transport connection broken",
	"use of closed network connection",
}

// IsRetryableError reports whether the error is transient and the whole
// operation is worth running again. Blocks and contract violations are not.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var blocked *BlockedError
	if errors.As(err, &blocked) {
		return false
	}

	if isNetworkTimeout(err) {
		return true
	}

	return containsRetryablePattern(err.Error())
}

func isNetworkTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func containsRetryablePattern(errStr string) bool {
	for _, pattern := range retryableErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
