//go:build debug

package pool

var defaultPolicy = Strict
