//go:build resonantdebug

package resonant

import "fmt"

const debugAssertions = true

func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("resonant: "+format, args...))
	}
}
