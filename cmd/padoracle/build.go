package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/nullbyte-labs/padoracle/internal/calibrate"
	"github.com/nullbyte-labs/padoracle/internal/cache"
	"github.com/nullbyte-labs/padoracle/internal/oracle"
	"github.com/nullbyte-labs/padoracle/internal/poenc"
)

// target bundles the ambient Config + Profile fields a CLI command needs to
// build an oracle, independent of which subcommand is running.
type target struct {
	oracleKind string
	scriptPath string
	blockSize  int
	hasIV      bool
	encoding   poenc.Encoding
	web        oracle.WebConfig
}

func resolveTarget(c *cli.Context) (target, error) {
	var profile *Profile
	if path := c.String(FlagConfig); path != "" {
		p, err := LoadProfile(path)
		if err != nil {
			return target{}, err
		}
		profile = p
	}

	t := target{
		oracleKind: c.String(FlagOracleKind),
		scriptPath: c.String(FlagScriptPath),
		blockSize:  c.Int(FlagBlockSize),
		hasIV:      !c.Bool(FlagNoIV),
	}

	encodingLabel := c.String(FlagEncoding)
	if profile != nil && !c.IsSet(FlagEncoding) && profile.Encoding != "" {
		encodingLabel = profile.Encoding
	}
	encoding, err := poenc.Parse(strings.ToLower(encodingLabel))
	if err != nil {
		return target{}, err
	}
	t.encoding = encoding

	t.web = oracle.WebConfig{
		URL:             c.String(FlagURL),
		Body:            c.String(FlagBody),
		Keyword:         c.String(FlagKeyword),
		Encoding:        encoding,
		NoURLEncode:     c.Bool(FlagNoURLEncode),
		FollowRedirects: c.Bool(FlagFollowRedirects),
		InsecureTLS:     c.Bool(FlagInsecureTLS),
		Delay:           c.Duration(FlagDelay),
		Timeout:         c.Duration(FlagTimeout),
		ProxyURL:        c.String(FlagProxyURL),
		ProxyUser:       c.String(FlagProxyUser),
		ProxyPass:       c.String(FlagProxyPass),
		UserAgent:       c.String(FlagUserAgent),
		ConsiderBody:    c.Bool(FlagConsiderBody),
	}
	t.web.Headers = map[string]string{}
	for _, h := range c.StringSlice(FlagHeader) {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return target{}, fmt.Errorf("malformed --header %q, expected 'Name: value'", h)
		}
		t.web.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	if profile != nil {
		t.applyProfile(profile, c)
	}

	return t, nil
}

// applyProfile fills in any field the CLI flags left at their zero value
// from a loaded Profile. Explicit flags always win.
func (t *target) applyProfile(p *Profile, c *cli.Context) {
	if !c.IsSet(FlagOracleKind) && p.Oracle != "" {
		t.oracleKind = p.Oracle
	}
	if !c.IsSet(FlagScriptPath) && p.Script != "" {
		t.scriptPath = p.Script
	}
	if !c.IsSet(FlagBlockSize) && p.BlockSize != 0 {
		t.blockSize = p.BlockSize
	}
	if !c.IsSet(FlagNoIV) && p.NoIV {
		t.hasIV = false
	}
	if !c.IsSet(FlagURL) && p.URL != "" {
		t.web.URL = p.URL
	}
	if !c.IsSet(FlagBody) && p.Body != "" {
		t.web.Body = p.Body
	}
	if !c.IsSet(FlagKeyword) && p.Keyword != "" {
		t.web.Keyword = p.Keyword
	}
	if len(t.web.Headers) == 0 && len(p.Headers) > 0 {
		t.web.Headers = p.Headers
	}
	if !c.IsSet(FlagDelay) && p.Delay != 0 {
		t.web.Delay = p.Delay
	}
	if !c.IsSet(FlagTimeout) && p.Timeout != 0 {
		t.web.Timeout = p.Timeout
	}
	if !c.IsSet(FlagProxyURL) && p.ProxyURL != "" {
		t.web.ProxyURL = p.ProxyURL
	}
	if !c.IsSet(FlagProxyUser) && p.ProxyUser != "" {
		t.web.ProxyUser = p.ProxyUser
	}
	if !c.IsSet(FlagProxyPass) && p.ProxyPass != "" {
		t.web.ProxyPass = p.ProxyPass
	}
	if !c.IsSet(FlagUserAgent) && p.UserAgent != "" {
		t.web.UserAgent = p.UserAgent
	}
	if !c.IsSet(FlagConsiderBody) && p.ConsiderBody {
		t.web.ConsiderBody = true
	}
}

// buildOracle constructs the Web or Script oracle this run targets.
func (t target) buildOracle() (oracle.Oracle, error) {
	switch t.oracleKind {
	case "web":
		return oracle.NewWeb(t.web)
	case "script":
		if t.scriptPath == "" {
			return nil, fmt.Errorf("--script is required when --oracle=script")
		}
		return oracle.NewScript(t.scriptPath, t.encoding, t.web.Delay, t.blockSize)
	default:
		return nil, fmt.Errorf("unknown oracle kind %q (want web or script)", t.oracleKind)
	}
}

// calibrateWeb runs §4.2's calibration against a Web oracle, against a
// fixed target block borrowed from the ciphertext under attack.
func calibrateWeb(ctx context.Context, w *oracle.Web, ciphertext []byte, blockSize, sampleSize int, considerBody bool, logger *zap.Logger) error {
	target := ciphertext[len(ciphertext)-blockSize:]
	w.SetCalibrationTarget(target)

	predicate, err := calibrate.Calibrate(ctx, w, considerBody, sampleSize)
	if err != nil {
		return err
	}
	w.SetPredicate(predicate)
	logger.Info("calibration complete", zap.Int("sample_size", sampleSize), zap.Bool("consider_body", considerBody))
	return nil
}

func buildCache(c *cli.Context) (*cache.Cache, error) {
	if c.Bool(FlagNoCache) {
		return cache.NewNoop(), nil
	}
	path := c.String(FlagCachePath)
	if path == "" {
		p, err := cache.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return cache.Open(path)
}

func decodeCiphertext(c *cli.Context, encoding poenc.Encoding) ([]byte, error) {
	raw := c.String(FlagCiphertext)
	if raw == "" {
		return nil, fmt.Errorf("--%s is required", FlagCiphertext)
	}
	decoded, err := encoding.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding --%s: %w", FlagCiphertext, err)
	}
	return decoded, nil
}
