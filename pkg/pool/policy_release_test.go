//go:build !debug

package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicyIsRelaxed(t *testing.T) {
	assert.Equal(t, Relaxed, DefaultPolicy())
}
