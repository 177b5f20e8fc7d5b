package main

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	http "github.com/bogdanfinn/fhttp"
)

const (
	authURL = fourpdaBaseURL + "/forum/index.php?act=auth"

	// captchaFilename is the well-known temporary path for the challenge
	// image, shown to the operator and removed after one submission.
	captchaFilename = "captcha.gif"
)

var forumTitleRe = regexp.MustCompile(`(?s)<title>(.*) - 4PDA</title>`)

// captchaChallenge binds one captcha image to one login submission. Never
// reused: a fresh login page fetch issues fresh tokens.
type captchaChallenge struct {
	issuedAt  string
	signature string
	imageURL  string
}

// extractCaptchaChallenge pulls the three challenge fields out of the login
// page. All three must be present.
func extractCaptchaChallenge(body []byte) (*captchaChallenge, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, ErrCaptchaExtraction
	}

	issuedAt, _ := doc.Find(`input[name="captcha-time"]`).First().Attr("value")
	signature, _ := doc.Find(`input[name="captcha-sig"]`).First().Attr("value")
	imageURL, _ := doc.Find(`img[data-captcha="renew-login"]`).First().Attr("src")

	if issuedAt == "" || signature == "" || imageURL == "" {
		return nil, ErrCaptchaExtraction
	}

	return &captchaChallenge{
		issuedAt:  issuedAt,
		signature: signature,
		imageURL:  imageURL,
	}, nil
}

// Login runs the captcha login handshake: fetch the challenge, collect the
// solution from the prompter, submit credentials, capture the session
// cookies. Returns whether the forum accepted the login; a rejection clears
// the stored credentials so the record never looks authenticated when it
// isn't.
func Login(tr transport, cfg *Config, prompt Prompter, logger Logger, username, password string, skipReauthConfirm bool) (bool, error) {
	if cfg.IsAuthenticated() && !skipReauthConfirm {
		logger.Infof("config already holds an authenticated account (use `verify` to check it)")
		relogin, err := prompt.Confirm("Continue and log in again?", false)
		if err != nil {
			return false, err
		}
		if !relogin {
			return false, nil
		}
	}

	logger.Infof("starting login...")

	resp, err := tr.Request(http.MethodGet, authURL, RequestOptions{FollowRedirects: true})
	if err != nil {
		return false, err
	}
	if resp.StatusCode != http.StatusOK {
		return false, &UnexpectedStatusError{StatusCode: resp.StatusCode}
	}

	challenge, err := extractCaptchaChallenge(resp.Body)
	if err != nil {
		return false, err
	}
	logger.Debugf("captcha issued at: %s", challenge.issuedAt)
	logger.Debugf("captcha signature: %s", challenge.signature)
	logger.Debugf("captcha image: %s", challenge.imageURL)

	image, err := tr.Request(http.MethodGet, challenge.imageURL, RequestOptions{})
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(captchaFilename, image.Body, 0o644); err != nil {
		return false, fmt.Errorf("save captcha image: %w", err)
	}
	logger.Infof("captcha saved to: %s", captchaFilename)

	solution, err := prompt.ReadCaptcha(captchaFilename)
	if err != nil {
		os.Remove(captchaFilename)
		return false, err
	}

	resp, err = tr.Request(http.MethodPost, authURL, RequestOptions{
		Form: url.Values{
			"return":       {fourpdaBaseURL + "/"},
			"login":        {username},
			"password":     {password},
			"remember":     {"1"},
			"captcha":      {solution},
			"captcha-time": {challenge.issuedAt},
			"captcha-sig":  {challenge.signature},
		},
	})

	// One challenge, one submission: the image is useless after the
	// round-trip whatever the outcome.
	if rmErr := os.Remove(captchaFilename); rmErr == nil {
		logger.Debugf("removed %s", captchaFilename)
	}

	if err != nil {
		return false, err
	}

	if resp.Cookies["member_id"] != "" && resp.Cookies["pass_hash"] != "" {
		logger.Infof("logged in as: %s", username)
		if resp.Cookies[clearanceCookie] != "" {
			logger.Infof("the forum issued a %s token", clearanceCookie)
		}
		cfg.UpdateFromSession(resp.Cookies)
		cfg.Username = username
		if err := cfg.Save(); err != nil {
			return false, fmt.Errorf("persist credentials: %w", err)
		}
		return true, nil
	}

	if msg := firstLoginError(resp.Body); msg != "" {
		logger.Errorf("%s", msg)
	} else {
		logger.Errorf("login failed")
	}
	if err := cfg.Clear(); err != nil {
		return false, err
	}
	return false, nil
}

// firstLoginError extracts the first server-side error from the login
// response's error container, or "" when the page carries none.
func firstLoginError(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("div.error-content ul.errors-list li").First().Text())
}

// Verify checks that the stored session is still valid by fetching the
// member's own profile page. An invalid session clears the store.
func Verify(tr transport, cfg *Config, logger Logger) (bool, error) {
	if !cfg.IsAuthenticated() {
		return false, ErrAuthRequired
	}

	logger.Infof("verifying stored authentication...")

	memberID := cfg.GetCookie("member_id", "")
	profileURL := fmt.Sprintf("%s/forum/index.php?showuser=%s", fourpdaBaseURL, memberID)

	resp, err := tr.Request(http.MethodGet, profileURL, RequestOptions{
		Cookies:         cfg.StrippedCookies(),
		FollowRedirects: true,
	})
	if err != nil {
		return false, err
	}

	html := string(resp.Body)
	editProfile := fmt.Sprintf("showuser=%s&action=edit", memberID)
	changePassword := "act=auth&action=chpass"

	if resp.StatusCode == http.StatusOK &&
		strings.Contains(html, editProfile) &&
		strings.Contains(html, changePassword) {
		logger.Infof("authentication is valid")

		if m := forumTitleRe.FindStringSubmatch(html); m != nil && m[1] != cfg.Username {
			logger.Debugf("stored username differs from the forum, syncing: %s", m[1])
			cfg.Username = m[1]
			if err := cfg.Save(); err != nil {
				return false, err
			}
		}
		return true, nil
	}

	logger.Errorf("authentication is no longer valid")
	if err := cfg.Clear(); err != nil {
		return false, err
	}
	logger.Infof("config cleared, log in again")
	return false, nil
}

// Logout drops the stored credentials.
func Logout(cfg *Config, logger Logger) error {
	logger.Infof("logging out...")
	return cfg.Clear()
}
