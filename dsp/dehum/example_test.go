package dehum_test

import (
	"fmt"

	"github.com/fraimondo/pactools/dsp/dehum"
)

func ExampleProcess() {
	// On silence there is nothing to remove and every block reports the
	// nominal network frequency.
	sig := make([]float64, 4096)

	res, err := dehum.Process(sig, 1000)
	if err != nil {
		panic(err)
	}
	fmt.Printf("blocks %d\n", len(res.FreqTrack))
	fmt.Printf("first estimate %.1f Hz\n", res.FreqTrack[0])
	// Output:
	// blocks 5
	// first estimate 50.0 Hz
}
