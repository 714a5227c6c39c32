// Package calibrate implements the response-calibration algorithm from
// spec.md §4.2: given a Web oracle, it learns which attributes of an HTTP
// response distinguish "padding OK" from "padding bad" without the caller
// ever having to hardcode a magic status code or string.
package calibrate

import (
	"context"
	"fmt"

	"github.com/nullbyte-labs/padoracle/internal/poerr"
)

// DefaultSampleSize is the number of forged ciphertexts calibration submits
// before it has a reliable partition: it exactly covers one byte's candidate
// space against one fixed target block (spec.md §9).
const DefaultSampleSize = 256

// MinSampleSize is the smallest sample size this repo allows when the
// default would be too costly against a slow or rate-limited oracle
// (spec.md §9: "the spec permits reducing to 64 ... but the default must be
// 256").
const MinSampleSize = 64

// Sample is the subset of a Web oracle response's attributes that can
// distinguish the two verdict classes (spec.md §3 "Calibration
// fingerprint").
type Sample struct {
	Status        int
	ContentLength int64
	BodyHash      [32]byte
	ConsiderBody  bool
}

// fingerprint is the hashable key used to bucket samples into classes.
type fingerprint struct {
	status        int
	contentLength int64
	bodyHash      [32]byte
	considerBody  bool
}

func (s Sample) fingerprint(considerBody bool) fingerprint {
	fp := fingerprint{status: s.Status, contentLength: s.ContentLength, considerBody: considerBody}
	if considerBody {
		fp.bodyHash = s.BodyHash
	}
	return fp
}

// Predicate classifies a Sample as Correct-Padding (true) or
// Incorrect-Padding (false). It is produced once by Calibrate and is
// immutable for the remainder of the run.
type Predicate func(Sample) bool

// Sampler issues one calibration question: a forged predecessor block whose
// final byte is lastByte, followed by whatever target block the caller
// configured it with. The Web oracle implements this by exposing its raw
// HTTP-response sampling path, so calibration and steady-state questioning
// share one transport implementation.
type Sampler interface {
	Sample(ctx context.Context, lastByte byte) (Sample, error)
}

// Calibrate submits sampleSize forged ciphertexts (the last byte of the
// forged predecessor cycling through candidate values) and classifies the
// responses by fingerprint. It returns a Predicate that recognizes the
// minority class as Correct-Padding, per spec.md §4.2's edge policy:
//   - a tie between two classes is CalibrationAmbiguous.
//   - a single dominant class covering the whole sample is
//     OracleAlwaysRespondsSame.
//   - three or more classes is CalibrationAmbiguous.
//
// When considerBody is set and the first pass fails for any of these
// reasons, the samples are merged by (status, content-length) alone and
// classified once more; if that also fails, the first pass's error is
// returned. A sampleSize of zero or less selects DefaultSampleSize; a
// positive sampleSize below MinSampleSize is rejected.
func Calibrate(
	ctx context.Context,
	sampler Sampler,
	considerBody bool,
	sampleSize int,
) (Predicate, error) {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	if sampleSize < MinSampleSize {
		return nil, fmt.Errorf("calibrate: sample size %d is below the minimum %d", sampleSize, MinSampleSize)
	}

	samples, err := collectSamples(ctx, sampler, sampleSize)
	if err != nil {
		return nil, err
	}

	pred, err := classify(samples, considerBody)
	if err == nil {
		return pred, nil
	}

	// The body hash split the samples in a way that didn't resolve: merge
	// by (status, content-length) alone and retry once. Without
	// considerBody the first pass already ignored the body, so a retry
	// would see the same classes.
	if considerBody {
		pred, retryErr := classify(samples, false)
		if retryErr == nil {
			return pred, nil
		}
	}

	return nil, err
}

func collectSamples(ctx context.Context, sampler Sampler, sampleSize int) ([]Sample, error) {
	samples := make([]Sample, sampleSize)
	for i := 0; i < sampleSize; i++ {
		s, err := sampler.Sample(ctx, byte(i%256))
		if err != nil {
			return nil, fmt.Errorf("calibrate: sampling byte %d: %w", i, err)
		}
		samples[i] = s
	}
	return samples, nil
}

// classify buckets samples by fingerprint and decides which bucket
// represents Correct-Padding. It returns an error (CalibrationAmbiguous or
// OracleAlwaysRespondsSame) when the buckets don't resolve to exactly one
// minority and one majority class.
func classify(samples []Sample, considerBody bool) (Predicate, error) {
	buckets := map[fingerprint][]Sample{}
	order := []fingerprint{}
	for _, s := range samples {
		fp := s.fingerprint(considerBody)
		if _, ok := buckets[fp]; !ok {
			order = append(order, fp)
		}
		buckets[fp] = append(buckets[fp], s)
	}

	if len(buckets) == 1 {
		return nil, &poerr.OracleAlwaysRespondsSame{SampleSize: len(samples)}
	}

	if len(buckets) > 2 {
		return nil, &poerr.CalibrationAmbiguous{ClassSizes: classSizes(buckets, order)}
	}

	// Exactly two classes: the smaller one is Correct-Padding (it occurs
	// roughly once per 256 candidates). A tie is genuinely ambiguous.
	var minorityFP fingerprint
	var minoritySize, majoritySize int
	first := true
	for _, fp := range order {
		n := len(buckets[fp])
		if first || n < minoritySize {
			if !first {
				majoritySize = minoritySize
			}
			minorityFP = fp
			minoritySize = n
			first = false
		} else {
			majoritySize = n
		}
	}
	if minoritySize == majoritySize {
		return nil, &poerr.CalibrationAmbiguous{ClassSizes: classSizes(buckets, order)}
	}

	return func(s Sample) bool {
		return s.fingerprint(considerBody) == minorityFP
	}, nil
}

func classSizes(buckets map[fingerprint][]Sample, order []fingerprint) []int {
	sizes := make([]int, len(order))
	for i, fp := range order {
		sizes[i] = len(buckets[fp])
	}
	return sizes
}
