package zxid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/muzammilar/zookeeper/zxid"
)

func Test_MakeAndSplit(t *testing.T) {
	z := zxid.Make(0xf, 9)
	assert.Equal(t, uint32(0xf), zxid.EpochOf(z))
	assert.Equal(t, uint32(9), zxid.CounterOf(z))
}

func Test_Less_IsUnsigned(t *testing.T) {
	// epoch 0xf0000000 in the high bits makes the raw int64 negative;
	// comparisons must still treat it as "greater than" a low epoch.
	low := zxid.Make(0x1, 0)
	high := zxid.Make(0xf0000000, 0)
	assert.True(t, zxid.Less(low, high))
	assert.False(t, zxid.Less(high, low))
	assert.Equal(t, -1, zxid.Compare(low, high))
	assert.Equal(t, 1, zxid.Compare(high, low))
	assert.Equal(t, 0, zxid.Compare(low, low))
}

func Test_Max(t *testing.T) {
	a := zxid.Make(1, 5)
	b := zxid.Make(1, 9)
	assert.Equal(t, b, zxid.Max(a, b))
	assert.Equal(t, b, zxid.Max(b, a))
}

func Test_String_IsHex(t *testing.T) {
	assert.Equal(t, "0x0000000000000001", zxid.Make(0, 1).String())
}
