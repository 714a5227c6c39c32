package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/nullbyte-labs/padoracle/internal/cache"
	"github.com/nullbyte-labs/padoracle/internal/engine"
	"github.com/nullbyte-labs/padoracle/internal/oracle"
	"github.com/nullbyte-labs/padoracle/internal/poenc"
	"github.com/nullbyte-labs/padoracle/internal/polog"
	"github.com/nullbyte-labs/padoracle/internal/progress"
)

func decryptCommand() *cli.Command {
	return &cli.Command{
		Name:  "decrypt",
		Usage: "recover plaintext from a ciphertext via a padding oracle",
		Flags: append(commonFlags(), webFlags()...),
		Action: runDecrypt,
	}
}

func runDecrypt(c *cli.Context) error {
	logger, err := polog.New(c.String(FlagLogFile), c.Bool(FlagVerbose))
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	t, err := resolveTarget(c)
	if err != nil {
		return err
	}
	ciphertext, err := decodeCiphertext(c, t.encoding)
	if err != nil {
		return err
	}

	o, err := t.buildOracle()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if web, ok := o.(*oracle.Web); ok && !c.Bool(FlagDryRun) {
		considerBody := c.Bool(FlagConsiderBody)
		if err := calibrateWeb(ctx, web, ciphertext, t.blockSize, c.Int(FlagSampleSize), considerBody, logger); err != nil {
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

	go renderEvents(progCtl, len(ciphertext)/t.blockSize)
	go func() {
		<-ctx.Done()
		progCtl.Cancel()
	}()

	if c.Bool(FlagDryRun) {
		return runDryRun(o, blockCache, ciphertext, t.blockSize)
	}

	if !c.Bool(FlagSkipSelf) {
		if err := e.SelfTest(ctx, ciphertext); err != nil {
			return fmt.Errorf("self-test: %w", err)
		}
	}

	result, err := e.Decrypt(ctx, ciphertext)
	progCtl.Close()
	if err != nil {
		logger.Error("decrypt failed", zap.Error(err))
		return err
	}

	fmt.Printf("%s\n", poenc.Hex.Encode(result.Plaintext))
	return nil
}

func runDryRun(o oracle.Oracle, blockCache *cache.Cache, ciphertext []byte, blockSize int) error {
	nBlocks := len(ciphertext) / blockSize
	for i := 1; i < nBlocks; i++ {
		block := ciphertext[i*blockSize : (i+1)*blockSize]
		_, hit := blockCache.Lookup(o.Identity(), blockSize, block)
		status := "would query oracle"
		if hit {
			status = "cache hit"
		}
		fmt.Printf("block %d: %s\n", i, status)
	}
	return nil
}
