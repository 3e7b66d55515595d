package spectrum

import (
	"testing"

	"github.com/fraimondo/pactools/internal/testutil"
)

func BenchmarkPeriodogram(b *testing.B) {
	s, err := New(WithBlockLen(1024), WithSampleRate(1000))
	if err != nil {
		b.Fatal(err)
	}

	sig := testutil.DeterministicNoise(1, 1.0, 65536)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := s.Periodogram(sig, false); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPower(b *testing.B) {
	in := make([]complex128, 4096)
	for i := range in {
		in[i] = complex(float64(i%17), float64(i%5))
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Power(in)
	}
}
