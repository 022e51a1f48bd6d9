//go:build !resonantdebug

package resonant

const debugAssertions = false

func assertf(bool, string, ...any) {}
