package main

// stubTransport scripts the transport surface so handshake logic can be
// exercised without any network.
type stubTransport struct {
	handler func(method, url string, opts RequestOptions) (*Response, error)
	calls   []stubCall
}

type stubCall struct {
	method string
	url    string
	opts   RequestOptions
}

func (s *stubTransport) Request(method, url string, opts RequestOptions) (*Response, error) {
	s.calls = append(s.calls, stubCall{method: method, url: url, opts: opts})
	return s.handler(method, url, opts)
}

type stubPrompter struct {
	captcha    string
	confirm    bool
	confirmed  int
	captchaFor string
}

func (p *stubPrompter) ReadCaptcha(path string) (string, error) {
	p.captchaFor = path
	return p.captcha, nil
}

func (p *stubPrompter) Confirm(prompt string, defaultYes bool) (bool, error) {
	p.confirmed++
	return p.confirm, nil
}
