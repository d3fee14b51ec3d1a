package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecoder_CarriesSplitCharacter(t *testing.T) {
	d := NewDecoder()
	euro := []byte("€") // three bytes

	assert.Equal(t, "a", d.Decode([]byte{'a', euro[0]}))
	assert.Equal(t, 1, d.Pending())
	assert.Equal(t, "", d.Decode(euro[1:2]))
	assert.Equal(t, "€b", d.Decode(append(euro[2:3:3], 'b')))
	assert.Equal(t, 0, d.Pending())
}

func TestDecoder_InvalidBytesBecomeReplacement(t *testing.T) {
	d := NewDecoder()

	assert.Equal(t, "x�y", d.Decode([]byte{'x', 0xff, 'y'}))
}

func TestDecoder_FlushEmitsDanglingBytes(t *testing.T) {
	d := NewDecoder()

	assert.Equal(t, "ok", d.Decode([]byte{'o', 'k', 0xe2, 0x82}))
	assert.Equal(t, "\uFFFD", d.Flush())
	assert.Equal(t, 0, d.Pending())
}

func TestDecoder_LargeChunk(t *testing.T) {
	d := NewDecoder()
	big := make([]byte, 10000)
	for i := range big {
		big[i] = 'z'
	}

	assert.Len(t, d.Decode(big), 10000)
}
