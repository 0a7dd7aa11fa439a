package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsClose(t *testing.T) {
	assert.True(t, IsClose(1, 1+1e-6))
	assert.True(t, IsClose(0, 1e-5))
	assert.False(t, IsClose(0, 2e-5))
	// 大数按相对误差
	assert.True(t, IsClose(1e6, 1e6+5))
	assert.False(t, IsClose(1e6, 1e6+20))
	// 无穷大表示没有待处理事件
	inf := math.Inf(1)
	assert.False(t, IsClose(0.01, inf))
	assert.False(t, IsClose(10, inf))
	assert.False(t, IsClose(inf, -1e300))
	assert.False(t, IsClose(inf, math.Inf(-1)))
	assert.True(t, IsClose(inf, inf))
}

func TestMaxStatus(t *testing.T) {
	if MaxStatus(StatusOK, StatusWarning) != StatusWarning {
		t.Fatalf("严重程度比较错误")
	}
	if MaxStatus(StatusFatal, StatusError) != StatusFatal {
		t.Fatalf("严重程度比较错误")
	}
	if StatusDiscard.String() != "Discard" {
		t.Errorf("状态名称错误: %s", StatusDiscard)
	}
}

func TestParseValues(t *testing.T) {
	v, err := ParseValues(FMIMajorVersion3, TypeFloat64, "1 2.5 -3e2")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, -300}, v)

	v, err = ParseValues(FMIMajorVersion3, TypeUInt8, "7 255")
	require.NoError(t, err)
	assert.Equal(t, []uint8{7, 255}, v)

	_, err = ParseValues(FMIMajorVersion3, TypeInt8, "300")
	assert.Error(t, err)

	v, err = ParseValues(FMIMajorVersion2, TypeBoolean, "true 0")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, v)

	v, err = ParseValues(FMIMajorVersion3, TypeString, "a b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a b"}, v)

	v, err = ParseValues(FMIMajorVersion3, TypeBinary, "0aff")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x0a, 0xff}}, v)

	_, err = ParseValues(FMIMajorVersion3, TypeBinary, "zz")
	assert.Error(t, err)
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, ValuesEqual([]float64{1, 2}, []float64{1, 2}))
	assert.False(t, ValuesEqual([]float64{1}, []float64{1, 2}))
	// 按位比较: NaN 与自身相等, +0 与 -0 不等
	nan := math.NaN()
	assert.True(t, ValuesEqual([]float64{nan}, []float64{nan}))
	assert.False(t, ValuesEqual([]float64{0}, []float64{math.Copysign(0, -1)}))
	assert.False(t, ValuesEqual([]int32{1}, []int64{1}))
	assert.True(t, ValuesEqual([][]byte{{1, 2}}, [][]byte{{1, 2}}))
	assert.False(t, ValuesEqual([][]byte{{1, 2}}, [][]byte{{1}}))
}

func TestInterpolate(t *testing.T) {
	v := Interpolate(0.5, 0, 1, []float64{0, 10}, []float64{2, 20})
	assert.Equal(t, []float64{1, 15}, v)
	// 整型不插值
	i := Interpolate(0.5, 0, 1, []int32{1}, []int32{3})
	assert.Equal(t, []int32{1}, i)
}

func TestCheckValues(t *testing.T) {
	assert.NoError(t, CheckValues(TypeClock, []bool{true}))
	assert.Error(t, CheckValues(TypeFloat32, []float64{1}))
}
