package main

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	http "github.com/bogdanfinn/fhttp"
)

const (
	// directLinkHost marks a resolved link: the forum's file CDN.
	directLinkHost = "4pda.ws"

	attachURLPrefix = fourpdaBaseURL + "/forum/index.php?act=attach"

	// downloadAnchorLabel is the visible text of the attachment anchor
	// ("Download" in Russian).
	downloadAnchorLabel = "Скачать"
)

// downloadPathRe is the download page grammar: post id and file name.
var downloadPathRe = regexp.MustCompile(`^/forum/dl/post/(\d+)/(.+)$`)

// ParseDownloadURL validates rawURL against the download page grammar and
// returns the normalized URL: post id kept as-is, file name percent-encoded
// with spaces rendered as "+" the way the forum expects.
func ParseDownloadURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &MalformedURLError{URL: rawURL}
	}

	m := downloadPathRe.FindStringSubmatch(u.Path)
	if m == nil {
		return "", &MalformedURLError{URL: rawURL}
	}

	postID, filename := m[1], m[2]
	return fmt.Sprintf("%s/forum/dl/post/%s/%s", fourpdaBaseURL, postID, url.QueryEscape(filename)), nil
}

// ResolveDirectLink turns a forum post download-page URL into a direct
// download URL via the two-stage negotiation: the page itself may redirect to
// the file host, otherwise its attachment anchor is fetched and must redirect
// there. First match wins. The credential store is never mutated here.
func ResolveDirectLink(tr transport, cfg *Config, logger Logger, rawURL string) (string, error) {
	pageURL, err := ParseDownloadURL(rawURL)
	if err != nil {
		return "", err
	}

	logger.Infof("opening download page...")

	cookies := cfg.StrippedCookies()
	// The forum loops redirects back to the page unless these moderator
	// bookkeeping cookies are present, even empty.
	cookies["modtids"] = ""
	cookies["modpids"] = ""

	resp, err := tr.Request(http.MethodGet, pageURL, RequestOptions{Cookies: cookies})
	if err != nil {
		return "", err
	}

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrFileInaccessible
	}

	if link := directLink(resp); link != "" {
		logger.Infof("direct link received")
		return link, nil
	}

	logger.Debugf("no direct link on the first response, trying the attachment...")

	attachURL := findAttachmentURL(resp.Body)
	if attachURL == "" {
		return "", ErrAttachmentNotFound
	}

	logger.Infof("requesting attachment...")

	resp, err = tr.Request(http.MethodGet, attachURL, RequestOptions{Cookies: cookies})
	if err != nil {
		return "", err
	}

	if link := directLink(resp); link != "" {
		logger.Infof("direct link received")
		return link, nil
	}

	return "", ErrDirectLinkNotFound
}

// directLink returns the Location header value when it points at the file
// host, or "".
func directLink(resp *Response) string {
	location := resp.Headers.Get("Location")
	if location != "" && strings.Contains(location, directLinkHost) {
		return location
	}
	return ""
}

// findAttachmentURL locates the attachment anchor labeled as a download
// action in the page body.
func findAttachmentURL(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}

	var attachURL string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if strings.HasPrefix(href, attachURLPrefix) && strings.Contains(sel.Text(), downloadAnchorLabel) {
			attachURL = href
			return false
		}
		return true
	})
	return attachURL
}
