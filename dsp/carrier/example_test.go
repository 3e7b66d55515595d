package carrier_test

import (
	"fmt"
	"math/cmplx"

	"github.com/fraimondo/pactools/dsp/carrier"
)

func ExampleDesign() {
	fir, err := carrier.Design(1000, 100)
	if err != nil {
		panic(err)
	}
	fmt.Printf("taps %d\n", len(fir.Taps()))
	fmt.Printf("gain at center %.2f\n", cmplx.Abs(fir.Response(100)))
	// Output:
	// taps 71
	// gain at center 1.00
}
