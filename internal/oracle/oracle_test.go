package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/nullbyte-labs/padoracle/internal/calibrate"
	"github.com/nullbyte-labs/padoracle/internal/poenc"
)

func TestNewWebRejectsMissingKeyword(t *testing.T) {
	_, err := NewWeb(WebConfig{URL: "http://example.test/decrypt?ct=nope", Keyword: "CTEXT"})
	if err == nil {
		t.Fatal("expected KeywordMissing when the keyword never appears")
	}
}

func TestWebAskClassifiesByStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.URL.Query().Get("ct")
		if ct == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		// Toy server: "good" padding whenever byte 15 of the submitted
		// ciphertext (the last byte of the forged predecessor block) is
		// 0x10, i.e. hex digits 30-31 of the encoded value are "10".
		if len(ct) >= 32 && ct[30:32] == "10" {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	web, err := NewWeb(WebConfig{
		URL:      srv.URL + "/decrypt?ct=CTEXT",
		Keyword:  "CTEXT",
		Encoding: poenc.Hex,
	})
	if err != nil {
		t.Fatalf("NewWeb: %s", err)
	}

	web.SetCalibrationTarget(make([]byte, 16))
	pred, err := calibrate.Calibrate(context.Background(), web, false, 256)
	if err != nil {
		t.Fatalf("Calibrate: %s", err)
	}
	web.SetPredicate(pred)

	good := make([]byte, 16)
	good[15] = 0x10 // byte 15 encodes as hex "10"
	verdict, err := web.Ask(context.Background(), good)
	if err != nil {
		t.Fatalf("Ask(good): %s", err)
	}
	if verdict != Correct {
		t.Fatalf("Ask(good) = %s, want correct", verdict)
	}

	bad := make([]byte, 16)
	bad[15] = 0x11
	verdict, err = web.Ask(context.Background(), bad)
	if err != nil {
		t.Fatalf("Ask(bad): %s", err)
	}
	if verdict != Incorrect {
		t.Fatalf("Ask(bad) = %s, want incorrect", verdict)
	}
}

func TestNewScriptAndAsk(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture requires a POSIX shell")
	}

	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "oracle.sh")
	// Exits 0 (Correct) only when the argument ends in "ff".
	script := "#!/bin/sh\ncase \"$1\" in\n  *ff) exit 0 ;;\n  *) exit 1 ;;\nesac\n"
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		t.Fatalf("writing script fixture: %s", err)
	}

	s, err := NewScript(scriptPath, poenc.Hex, 0, 16)
	if err != nil {
		t.Fatalf("NewScript: %s", err)
	}

	good := make([]byte, 16)
	good[15] = 0xff
	verdict, err := s.Ask(context.Background(), good)
	if err != nil {
		t.Fatalf("Ask(good): %s", err)
	}
	if verdict != Correct {
		t.Fatalf("Ask(good) = %s, want correct", verdict)
	}

	bad := make([]byte, 16)
	verdict, err = s.Ask(context.Background(), bad)
	if err != nil {
		t.Fatalf("Ask(bad): %s", err)
	}
	if verdict != Incorrect {
		t.Fatalf("Ask(bad) = %s, want incorrect", verdict)
	}
}

func TestNewScriptSpawnFailureIsTransient(t *testing.T) {
	s, err := NewScript(filepath.Join(t.TempDir(), "does-not-exist"), poenc.Hex, 0, 16)
	if err != nil {
		t.Fatalf("NewScript: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	verdict, err := s.Ask(ctx, make([]byte, 16))
	if err == nil {
		t.Fatal("expected a spawn error")
	}
	if verdict != Transient {
		t.Fatalf("verdict = %s, want transient", verdict)
	}
}
