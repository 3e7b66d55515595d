package window

import "testing"

func BenchmarkGenerate(b *testing.B) {
	sizes := []int{256, 2048, 16384}
	for _, n := range sizes {
		b.Run("hamming/"+itoa(n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Generate(TypeHamming, n)
			}
		})
		b.Run("kaiser/"+itoa(n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Generate(TypeKaiser, n, WithAlpha(8))
			}
		})
	}
}

func BenchmarkOverlapAddNormalize(b *testing.B) {
	w := Generate(TypeHamming, 2048)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf := append([]float64(nil), w...)
		_ = OverlapAddNormalize(buf)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	buf := [20]byte{}
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
