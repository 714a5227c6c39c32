package calibrate

import (
	"context"
	"testing"
)

// fixedSampler reproduces the exactly-one-minority-class shape spec.md §4.2
// expects: one lastByte value ("goodByte") reports a distinct status code
// from every other value.
type fixedSampler struct {
	sampleSize int
	goodByte   byte
}

func (f fixedSampler) Sample(_ context.Context, lastByte byte) (Sample, error) {
	if lastByte == f.goodByte {
		return Sample{Status: 200, ContentLength: 10}, nil
	}
	return Sample{Status: 500, ContentLength: 20}, nil
}

func TestCalibrateFindsMinorityClass(t *testing.T) {
	pred, err := Calibrate(context.Background(), fixedSampler{goodByte: 0x42}, false, 256)
	if err != nil {
		t.Fatalf("Calibrate: %s", err)
	}
	if !pred(Sample{Status: 200, ContentLength: 10}) {
		t.Fatal("predicate must classify the minority fingerprint as Correct")
	}
	if pred(Sample{Status: 500, ContentLength: 20}) {
		t.Fatal("predicate must classify the majority fingerprint as Incorrect")
	}
}

// allSameSampler always returns the identical response regardless of byte.
type allSameSampler struct{}

func (allSameSampler) Sample(context.Context, byte) (Sample, error) {
	return Sample{Status: 200, ContentLength: 10}, nil
}

func TestCalibrateOracleAlwaysRespondsSame(t *testing.T) {
	_, err := Calibrate(context.Background(), allSameSampler{}, false, 256)
	if err == nil {
		t.Fatal("expected OracleAlwaysRespondsSame")
	}
}

// tiedSampler produces exactly two equally-sized classes (a 128/128 split),
// which is genuinely ambiguous per spec.md §4.2.
type tiedSampler struct{}

func (tiedSampler) Sample(_ context.Context, lastByte byte) (Sample, error) {
	if lastByte < 128 {
		return Sample{Status: 200, ContentLength: 10}, nil
	}
	return Sample{Status: 500, ContentLength: 20}, nil
}

func TestCalibrateTiedClassesIsAmbiguous(t *testing.T) {
	_, err := Calibrate(context.Background(), tiedSampler{}, false, 256)
	if err == nil {
		t.Fatal("expected CalibrationAmbiguous for a tied split")
	}
}

// bodySensitiveSampler only distinguishes on body hash, so without
// considerBody every sample reports the same (status, content-length) pair
// — scenario 4 of spec.md §8.
type bodySensitiveSampler struct {
	goodByte byte
}

func (b bodySensitiveSampler) Sample(_ context.Context, lastByte byte) (Sample, error) {
	s := Sample{Status: 200, ContentLength: 10}
	if lastByte == b.goodByte {
		s.BodyHash = [32]byte{0x01}
	} else {
		s.BodyHash = [32]byte{0x02}
	}
	return s, nil
}

func TestCalibrateRequiresConsiderBodyForBodySensitiveOracle(t *testing.T) {
	sampler := bodySensitiveSampler{goodByte: 0x10}

	_, err := Calibrate(context.Background(), sampler, false, 256)
	if err == nil {
		t.Fatal("expected OracleAlwaysRespondsSame without consider-body: status/content-length alone don't distinguish")
	}

	pred, err := Calibrate(context.Background(), sampler, true, 256)
	if err != nil {
		t.Fatalf("Calibrate with consider-body: %s", err)
	}
	good, _ := sampler.Sample(context.Background(), 0x10)
	bad, _ := sampler.Sample(context.Background(), 0x11)
	if !pred(good) {
		t.Fatal("expected the goodByte sample to classify as Correct")
	}
	if pred(bad) {
		t.Fatal("expected a non-goodByte sample to classify as Incorrect")
	}
}

func TestCalibratePredicateStableAcrossWholeSample(t *testing.T) {
	// Calibration-stability invariant (spec.md §8): classifying all 256
	// calibration responses with the learned predicate reproduces the
	// minority/majority partition exactly.
	sampler := fixedSampler{goodByte: 0x07}
	pred, err := Calibrate(context.Background(), sampler, false, 256)
	if err != nil {
		t.Fatalf("Calibrate: %s", err)
	}

	minorityCount := 0
	for i := 0; i < 256; i++ {
		s, _ := sampler.Sample(context.Background(), byte(i))
		if pred(s) {
			minorityCount++
		}
	}
	if minorityCount != 1 {
		t.Fatalf("expected exactly 1 sample classified Correct, got %d", minorityCount)
	}
}
