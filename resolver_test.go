package main

import (
	"testing"

	http "github.com/bogdanfinn/fhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDownloadURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain filename",
			raw:  "https://4pda.to/forum/dl/post/42/firmware.zip",
			want: "https://4pda.to/forum/dl/post/42/firmware.zip",
		},
		{
			name: "spaces become plus",
			raw:  "https://4pda.to/forum/dl/post/42/My File.zip",
			want: "https://4pda.to/forum/dl/post/42/My+File.zip",
		},
		{
			name: "percent-encoded space normalizes to plus",
			raw:  "https://4pda.to/forum/dl/post/42/My%20File.zip",
			want: "https://4pda.to/forum/dl/post/42/My+File.zip",
		},
		{
			name: "host is replaced by the canonical origin",
			raw:  "http://mirror.example/forum/dl/post/7/a.bin",
			want: "https://4pda.to/forum/dl/post/7/a.bin",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDownloadURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDownloadURLRejectsOtherPaths(t *testing.T) {
	for _, raw := range []string{
		"https://4pda.to/forum/index.php?act=attach&id=1",
		"https://4pda.to/forum/dl/post/abc/file.zip",
		"https://4pda.to/forum/dl/post/42/",
		"https://4pda.to/dl/post/42/file.zip",
	} {
		_, err := ParseDownloadURL(raw)
		var malformed *MalformedURLError
		assert.ErrorAs(t, err, &malformed, "url %s", raw)
	}
}

func resolverConfig(t *testing.T) *Config {
	t.Helper()
	cfg := newTestConfig(t)
	cfg.Username = "anatoly"
	cfg.SetCookie("member_id", "100")
	cfg.SetCookie("pass_hash", "deadbeef")
	cfg.SetCookie("__cf_bm", "internal")
	return cfg
}

func TestResolveStageOneLocationShortCircuits(t *testing.T) {
	cfg := resolverConfig(t)

	tr := &stubTransport{handler: func(method, url string, opts RequestOptions) (*Response, error) {
		assert.Equal(t, "https://4pda.to/forum/dl/post/42/My+File.zip", url)
		assert.False(t, opts.FollowRedirects)
		assert.Contains(t, opts.Cookies, "modtids")
		assert.Contains(t, opts.Cookies, "modpids")
		assert.NotContains(t, opts.Cookies, "__cf_bm")
		return &Response{
			StatusCode: 307,
			Headers:    http.Header{"Location": {"https://4pda.ws/file.bin"}},
		}, nil
	}}

	link, err := ResolveDirectLink(tr, cfg, nopLogger{}, "https://4pda.to/forum/dl/post/42/My File.zip")
	require.NoError(t, err)
	assert.Equal(t, "https://4pda.ws/file.bin", link)
	assert.Len(t, tr.calls, 1, "stage two must be skipped when stage one redirects")
}

func TestResolveMalformedURLBeforeNetwork(t *testing.T) {
	tr := &stubTransport{handler: func(method, url string, opts RequestOptions) (*Response, error) {
		t.Fatal("malformed input must not reach the network")
		return nil, nil
	}}

	_, err := ResolveDirectLink(tr, resolverConfig(t), nopLogger{}, "https://4pda.to/news/whatever")
	var malformed *MalformedURLError
	assert.ErrorAs(t, err, &malformed)
}

func TestResolveNotFound(t *testing.T) {
	tr := &stubTransport{handler: func(method, url string, opts RequestOptions) (*Response, error) {
		return &Response{StatusCode: 404}, nil
	}}

	_, err := ResolveDirectLink(tr, resolverConfig(t), nopLogger{}, "https://4pda.to/forum/dl/post/42/gone.zip")
	assert.ErrorIs(t, err, ErrFileInaccessible)
}

const attachPageHTML = `<html><body>
<a href="https://4pda.to/forum/index.php?showtopic=1">Topic</a>
<a href="https://4pda.to/forum/index.php?act=attach&id=900">Скачать файл</a>
</body></html>`

func TestResolveStageTwoAttachment(t *testing.T) {
	cfg := resolverConfig(t)

	tr := &stubTransport{handler: func(method, url string, opts RequestOptions) (*Response, error) {
		switch url {
		case "https://4pda.to/forum/dl/post/42/firmware.zip":
			return &Response{StatusCode: 200, Body: []byte(attachPageHTML)}, nil
		case "https://4pda.to/forum/index.php?act=attach&id=900":
			assert.False(t, opts.FollowRedirects)
			assert.Contains(t, opts.Cookies, "modtids")
			return &Response{
				StatusCode: 307,
				Headers:    http.Header{"Location": {"https://4pda.ws/900/firmware.zip"}},
			}, nil
		}
		t.Fatalf("unexpected request: %s", url)
		return nil, nil
	}}

	link, err := ResolveDirectLink(tr, cfg, nopLogger{}, "https://4pda.to/forum/dl/post/42/firmware.zip")
	require.NoError(t, err)
	assert.Equal(t, "https://4pda.ws/900/firmware.zip", link)
	require.Len(t, tr.calls, 2)
}

func TestResolveMissingAttachmentAnchor(t *testing.T) {
	tr := &stubTransport{handler: func(method, url string, opts RequestOptions) (*Response, error) {
		return &Response{StatusCode: 200, Body: []byte("<html><body>no anchors here</body></html>")}, nil
	}}

	_, err := ResolveDirectLink(tr, resolverConfig(t), nopLogger{}, "https://4pda.to/forum/dl/post/42/x.zip")
	assert.ErrorIs(t, err, ErrAttachmentNotFound)
}

func TestResolveExhaustedNegotiation(t *testing.T) {
	tr := &stubTransport{handler: func(method, url string, opts RequestOptions) (*Response, error) {
		if url == "https://4pda.to/forum/index.php?act=attach&id=900" {
			return &Response{StatusCode: 200, Headers: http.Header{}}, nil
		}
		return &Response{StatusCode: 200, Body: []byte(attachPageHTML)}, nil
	}}

	_, err := ResolveDirectLink(tr, resolverConfig(t), nopLogger{}, "https://4pda.to/forum/dl/post/42/x.zip")
	assert.ErrorIs(t, err, ErrDirectLinkNotFound)
}

func TestResolveLeavesStoreUntouched(t *testing.T) {
	cfg := resolverConfig(t)

	tr := &stubTransport{handler: func(method, url string, opts RequestOptions) (*Response, error) {
		return &Response{StatusCode: 404}, nil
	}}

	_, err := ResolveDirectLink(tr, cfg, nopLogger{}, "https://4pda.to/forum/dl/post/42/x.zip")
	require.Error(t, err)
	assert.True(t, cfg.IsAuthenticated(), "resolution failures never clear credentials")
}

func TestDirectLinkIgnoresForeignHosts(t *testing.T) {
	resp := &Response{
		StatusCode: 307,
		Headers:    http.Header{"Location": {"https://cdn.example.com/file.bin"}},
	}
	assert.Empty(t, directLink(resp))
}
