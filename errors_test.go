package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.True(t, IsRetryableError(errors.New("dial tcp: i/o timeout")))
	assert.True(t, IsRetryableError(errors.New("read: connection reset by peer")))
	assert.False(t, IsRetryableError(errors.New("something else entirely")))

	// Blocks are never transient; retrying without a fresh clearance token
	// just burns requests.
	assert.False(t, IsRetryableError(&BlockedError{Hint: "context deadline exceeded"}))
	assert.False(t, IsRetryableError(ErrDirectLinkNotFound))
}

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, (&UnexpectedStatusError{StatusCode: 503}).Error(), "503")
	assert.Contains(t, (&MalformedURLError{URL: "x"}).Error(), "x")
	assert.Contains(t, (&BlockedError{Hint: "get a token"}).Error(), "Cloudflare")
}
