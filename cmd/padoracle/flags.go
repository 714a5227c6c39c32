package main

import "github.com/urfave/cli/v2"

// Flag names, exported as constants so tests and other commands can check
// for their presence without repeating string literals (mirrors
// nspcc-dev/neo-go/cli/options's RPCEndpointFlag convention).
const (
	FlagCiphertext = "ciphertext"
	FlagEncoding   = "encoding"
	FlagBlockSize  = "block-size"
	FlagNoIV       = "no-iv"
	FlagThreads    = "threads"
	FlagNoCache    = "no-cache"
	FlagCachePath  = "cache-path"
	FlagLogFile    = "log-file"
	FlagVerbose    = "verbose"
	FlagConfig     = "config"
	FlagDryRun     = "dry-run"
	FlagSkipSelf   = "skip-self-test"
	FlagSampleSize = "calibration-sample-size"

	FlagOracleKind = "oracle"
	FlagScriptPath = "script"

	FlagURL             = "url"
	FlagHeader          = "header"
	FlagBody            = "body"
	FlagKeyword         = "keyword"
	FlagFollowRedirects = "follow-redirects"
	FlagInsecureTLS     = "insecure-tls"
	FlagDelay           = "delay"
	FlagTimeout         = "timeout"
	FlagProxyURL        = "proxy-url"
	FlagProxyUser       = "proxy-user"
	FlagProxyPass       = "proxy-pass"
	FlagUserAgent       = "user-agent"
	FlagConsiderBody    = "consider-body"
	FlagNoURLEncode     = "no-url-encode"

	FlagPlaintext = "plaintext"
	FlagCLast     = "c-last"
)

// commonFlags are shared by decrypt and encrypt: how to reach the target
// and how to run the engine. Oracle-specific flags are appended per
// subcommand in decrypt.go/encrypt.go.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: FlagCiphertext, Usage: "ciphertext, encoded per --encoding (required, except for encrypt with --c-last)"},
		&cli.StringFlag{Name: FlagEncoding, Value: "hex", Usage: "ciphertext wire encoding: hex, base64, or base64url"},
		&cli.IntFlag{Name: FlagBlockSize, Value: 16, Usage: "cipher block size in bytes: 8 or 16"},
		&cli.BoolFlag{Name: FlagNoIV, Usage: "treat the ciphertext as lacking a leading IV block"},
		&cli.IntFlag{Name: FlagThreads, Value: 64, Usage: "bounded thread pool size for oracle questions"},
		&cli.BoolFlag{Name: FlagNoCache, Usage: "disable the block cache"},
		&cli.StringFlag{Name: FlagCachePath, Usage: "override the default per-user cache file path"},
		&cli.StringFlag{Name: FlagLogFile, Usage: "also write structured JSON logs to this file"},
		&cli.BoolFlag{Name: FlagVerbose, Usage: "enable debug-level logging"},
		&cli.StringFlag{Name: FlagConfig, Usage: "load an oracle profile from this YAML file"},
		&cli.BoolFlag{Name: FlagDryRun, Usage: "report which blocks would hit the cache, without calling the oracle"},
		&cli.BoolFlag{Name: FlagSkipSelf, Usage: "skip the oracle self-test (useful for already-calibrated repeat runs)"},
		&cli.IntFlag{Name: FlagSampleSize, Value: 256, Usage: "calibration sample size (256 default, 64 minimum for slow oracles)"},
		&cli.StringFlag{Name: FlagOracleKind, Value: "web", Usage: "oracle variant: web or script"},
		&cli.StringFlag{Name: FlagScriptPath, Usage: "executable path for --oracle=script"},
	}
}

// webFlags are the Web-oracle-specific knobs of spec.md §4.1/§6.
func webFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: FlagURL, Usage: "request URL containing the substitution keyword"},
		&cli.StringSliceFlag{Name: FlagHeader, Usage: "HTTP header as 'Name: value', may repeat"},
		&cli.StringFlag{Name: FlagBody, Usage: "POST body containing the substitution keyword; presence implies POST"},
		&cli.StringFlag{Name: FlagKeyword, Value: "CTEXT", Usage: "substitution placeholder in URL, headers, or body"},
		&cli.BoolFlag{Name: FlagFollowRedirects, Usage: "follow HTTP redirects"},
		&cli.BoolFlag{Name: FlagInsecureTLS, Usage: "skip TLS certificate validation"},
		&cli.DurationFlag{Name: FlagDelay, Usage: "per-worker pre-question delay"},
		&cli.DurationFlag{Name: FlagTimeout, Value: 0, Usage: "per-request timeout (default 10s)"},
		&cli.StringFlag{Name: FlagProxyURL, Usage: "HTTP/SOCKS proxy URL"},
		&cli.StringFlag{Name: FlagProxyUser, Usage: "proxy username"},
		&cli.StringFlag{Name: FlagProxyPass, Usage: "proxy password"},
		&cli.StringFlag{Name: FlagUserAgent, Usage: "User-Agent header value"},
		&cli.BoolFlag{Name: FlagConsiderBody, Usage: "include the body hash in the calibration fingerprint (status and content-length are always included)"},
		&cli.BoolFlag{Name: FlagNoURLEncode, Usage: "submit the raw encoded ciphertext without URL-percent-encoding it"},
	}
}
