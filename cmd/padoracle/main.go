// Command padoracle mounts a padding-oracle attack against a CBC-mode
// encryption service: given a ciphertext and a way to ask whether a forged
// ciphertext decrypts to validly-padded plaintext, it recovers the original
// plaintext (decrypt) or forges a ciphertext that decrypts to chosen
// plaintext (encrypt) — without ever learning the key.
//
// This binary is CLI glue only: flag parsing, oracle-profile loading, and
// a plain-text progress renderer on stderr. The attack math lives in
// internal/engine; this file and its siblings contain none of it.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "padoracle",
		Usage: "multi-threaded padding-oracle attack tool",
		Commands: []*cli.Command{
			decryptCommand(),
			encryptCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "padoracle: %s\n", err)
		os.Exit(1)
	}
}
