package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/nullbyte-labs/padoracle/internal/engine"
	"github.com/nullbyte-labs/padoracle/internal/oracle"
	"github.com/nullbyte-labs/padoracle/internal/poenc"
	"github.com/nullbyte-labs/padoracle/internal/polog"
	"github.com/nullbyte-labs/padoracle/internal/progress"
)

func encryptCommand() *cli.Command {
	return &cli.Command{
		Name:  "encrypt",
		Usage: "forge a ciphertext that decrypts to chosen plaintext via a padding oracle",
		Flags: append(append(commonFlags(), webFlags()...),
			&cli.StringFlag{Name: FlagPlaintext, Usage: "plaintext to forge a ciphertext for (required)"},
			&cli.StringFlag{Name: FlagCLast, Usage: "final block of a reference ciphertext to reuse as the terminator, encoded per --encoding (defaults to --ciphertext's last block)"},
		),
		Action: runEncrypt,
	}
}

func runEncrypt(c *cli.Context) error {
	logger, err := polog.New(c.String(FlagLogFile), c.Bool(FlagVerbose))
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	plaintext := c.String(FlagPlaintext)
	if plaintext == "" {
		return fmt.Errorf("--%s is required", FlagPlaintext)
	}

	t, err := resolveTarget(c)
	if err != nil {
		return err
	}

	cLastRaw := c.String(FlagCLast)
	var referenceCiphertext []byte
	if cLastRaw != "" {
		referenceCiphertext, err = t.encoding.Decode(cLastRaw)
	} else {
		referenceCiphertext, err = decodeCiphertext(c, t.encoding)
	}
	if err != nil {
		return err
	}
	if len(referenceCiphertext) < t.blockSize {
		return fmt.Errorf("reference ciphertext shorter than one block")
	}
	cLast := referenceCiphertext[len(referenceCiphertext)-t.blockSize:]

	o, err := t.buildOracle()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if web, ok := o.(*oracle.Web); ok {
		considerBody := c.Bool(FlagConsiderBody)
		if err := calibrateWeb(ctx, web, referenceCiphertext, t.blockSize, c.Int(FlagSampleSize), considerBody, logger); err != nil {
			return err
		}
	}

	blockCache, err := buildCache(c)
	if err != nil {
		return err
	}

	cfg := engine.NewConfig(t.blockSize, t.hasIV)
	cfg.ThreadCount = c.Int(FlagThreads)
	cfg.Logger = logger

	progCtl := progress.New(256)
	e, err := engine.New(cfg, o, blockCache, progCtl)
	if err != nil {
		return err
	}

	go renderEvents(progCtl, 0)
	go func() {
		<-ctx.Done()
		progCtl.Cancel()
	}()

	result, err := e.Forge(ctx, []byte(plaintext), cLast)
	progCtl.Close()
	if err != nil {
		logger.Error("encrypt failed", zap.Error(err))
		return err
	}

	fmt.Printf("%s\n", poenc.Hex.Encode(result.Ciphertext))
	return nil
}
