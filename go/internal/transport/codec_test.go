package transport

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClockSampleRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 7.5, 123.456789, -3.0} {
		got, err := DecodeClockSample(EncodeClockSample(v))
		if err != nil {
			t.Fatalf("decode %v: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %v: got %v", v, got)
		}
	}
}

func TestDecodeClockSampleRejectsGarbage(t *testing.T) {
	for _, payload := range []string{"", "abc", "1.2.3", "NaN", "+Inf", "-Inf"} {
		if _, err := DecodeClockSample([]byte(payload)); err == nil {
			t.Errorf("expected error for payload %q", payload)
		}
	}
}

func TestDecodeClockSampleAcceptsNegative(t *testing.T) {
	// Negative times are a controller concern, not a transport one; the
	// wire layer only guards against non-finite values.
	v, err := DecodeClockSample([]byte("-12.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != -12.5 {
		t.Errorf("expected -12.5, got %v", v)
	}
}

func TestOrientationRoundTrip(t *testing.T) {
	want := Orientation{X: 0.1, Y: -1.5, Z: math.Pi}
	data, err := EncodeOrientation(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeOrientation(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("orientation mismatch (-want +got):\n%s", diff)
	}
}
