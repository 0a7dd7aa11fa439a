package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// 变量值以对应元素类型的切片传递：
// Float32 []float32, Float64 []float64, Int8..UInt64 对应整型切片,
// Boolean/Clock []bool, String []string, Binary [][]byte

// MakeValues 创建指定类型和长度的零值切片
func MakeValues(t VariableType, n int) any {
	switch t {
	case TypeFloat32:
		return make([]float32, n)
	case TypeFloat64:
		return make([]float64, n)
	case TypeInt8:
		return make([]int8, n)
	case TypeUInt8:
		return make([]uint8, n)
	case TypeInt16:
		return make([]int16, n)
	case TypeUInt16:
		return make([]uint16, n)
	case TypeInt32:
		return make([]int32, n)
	case TypeUInt32:
		return make([]uint32, n)
	case TypeInt64:
		return make([]int64, n)
	case TypeUInt64:
		return make([]uint64, n)
	case TypeBoolean, TypeClock:
		return make([]bool, n)
	case TypeString:
		return make([]string, n)
	case TypeBinary:
		return make([][]byte, n)
	}
	return nil
}

// NumValues 值切片长度
func NumValues(values any) int {
	switch v := values.(type) {
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	case []int8:
		return len(v)
	case []uint8:
		return len(v)
	case []int16:
		return len(v)
	case []uint16:
		return len(v)
	case []int32:
		return len(v)
	case []uint32:
		return len(v)
	case []int64:
		return len(v)
	case []uint64:
		return len(v)
	case []bool:
		return len(v)
	case []string:
		return len(v)
	case [][]byte:
		return len(v)
	}
	return 0
}

// CheckValues 校验值切片与变量类型匹配
func CheckValues(t VariableType, values any) error {
	want := MakeValues(t, 0)
	if want == nil {
		return fmt.Errorf("未知变量类型: %v", t)
	}
	if fmt.Sprintf("%T", want) != fmt.Sprintf("%T", values) {
		return fmt.Errorf("变量类型 %v 需要 %T，得到 %T", t, want, values)
	}
	return nil
}

// ParseValues 解析起始值字面量，多个元素以空白分隔
// String 类型整体作为一个值，Binary 类型为十六进制
func ParseValues(version MajorVersion, t VariableType, literal string) (any, error) {
	if t == TypeString {
		return []string{literal}, nil
	}
	fields := strings.Fields(literal)
	if len(fields) == 0 {
		return nil, fmt.Errorf("空字面量不能解析为 %v", t)
	}
	switch t {
	case TypeFloat32:
		return parseFloats[float32](fields, 32)
	case TypeFloat64:
		return parseFloats[float64](fields, 64)
	case TypeInt8:
		return parseInts[int8](fields, 8)
	case TypeInt16:
		return parseInts[int16](fields, 16)
	case TypeInt32:
		return parseInts[int32](fields, 32)
	case TypeInt64:
		return parseInts[int64](fields, 64)
	case TypeUInt8:
		return parseUints[uint8](fields, 8)
	case TypeUInt16:
		return parseUints[uint16](fields, 16)
	case TypeUInt32:
		return parseUints[uint32](fields, 32)
	case TypeUInt64:
		return parseUints[uint64](fields, 64)
	case TypeBoolean, TypeClock:
		values := make([]bool, len(fields))
		for i, f := range fields {
			switch f {
			case "true", "1":
				values[i] = true
			case "false", "0":
				values[i] = false
			default:
				return nil, fmt.Errorf("%v 不能解析为 %v 布尔值", f, version)
			}
		}
		return values, nil
	case TypeBinary:
		values := make([][]byte, len(fields))
		for i, f := range fields {
			b, err := hex.DecodeString(f)
			if err != nil {
				return nil, fmt.Errorf("二进制字面量解析错误: %w", err)
			}
			values[i] = b
		}
		return values, nil
	}
	return nil, fmt.Errorf("未知变量类型: %v", t)
}

func parseFloats[T float32 | float64](fields []string, bits int) (any, error) {
	values := make([]T, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, bits)
		if err != nil {
			return nil, err
		}
		values[i] = T(v)
	}
	return values, nil
}

func parseInts[T int8 | int16 | int32 | int64](fields []string, bits int) (any, error) {
	values := make([]T, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, bits)
		if err != nil {
			return nil, err
		}
		values[i] = T(v)
	}
	return values, nil
}

func parseUints[T uint8 | uint16 | uint32 | uint64](fields []string, bits int) (any, error) {
	values := make([]T, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, bits)
		if err != nil {
			return nil, err
		}
		values[i] = T(v)
	}
	return values, nil
}

// ValuesEqual 按原始位比较两组值
func ValuesEqual(a, b any) bool {
	switch x := a.(type) {
	case []float32:
		y, ok := b.([]float32)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if math.Float32bits(x[i]) != math.Float32bits(y[i]) {
				return false
			}
		}
		return true
	case []float64:
		y, ok := b.([]float64)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if math.Float64bits(x[i]) != math.Float64bits(y[i]) {
				return false
			}
		}
		return true
	case []int8:
		return equal(x, b)
	case []uint8:
		return equal(x, b)
	case []int16:
		return equal(x, b)
	case []uint16:
		return equal(x, b)
	case []int32:
		return equal(x, b)
	case []uint32:
		return equal(x, b)
	case []int64:
		return equal(x, b)
	case []uint64:
		return equal(x, b)
	case []bool:
		return equal(x, b)
	case []string:
		return equal(x, b)
	case [][]byte:
		y, ok := b.([][]byte)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !bytes.Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func equal[T comparable](x []T, b any) bool {
	y, ok := b.([]T)
	if !ok || len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// Interpolate 浮点值线性插值 x0 + (t-t0)*(x1-x0)/(t1-t0)
// 非浮点类型返回 v0
func Interpolate(t, t0, t1 float64, v0, v1 any) any {
	switch x0 := v0.(type) {
	case []float64:
		x1 := v1.([]float64)
		out := make([]float64, len(x0))
		for i := range x0 {
			out[i] = x0[i] + (t-t0)*(x1[i]-x0[i])/(t1-t0)
		}
		return out
	case []float32:
		x1 := v1.([]float32)
		out := make([]float32, len(x0))
		for i := range x0 {
			out[i] = x0[i] + float32(t-t0)*(x1[i]-x0[i])/float32(t1-t0)
		}
		return out
	}
	return v0
}

// FormatValue 格式化第 i 个元素，用于 CSV 输出
func FormatValue(values any, i int) string {
	switch v := values.(type) {
	case []float32:
		return strconv.FormatFloat(float64(v[i]), 'g', 7, 32)
	case []float64:
		return strconv.FormatFloat(v[i], 'g', 16, 64)
	case []int8:
		return strconv.FormatInt(int64(v[i]), 10)
	case []uint8:
		return strconv.FormatUint(uint64(v[i]), 10)
	case []int16:
		return strconv.FormatInt(int64(v[i]), 10)
	case []uint16:
		return strconv.FormatUint(uint64(v[i]), 10)
	case []int32:
		return strconv.FormatInt(int64(v[i]), 10)
	case []uint32:
		return strconv.FormatUint(uint64(v[i]), 10)
	case []int64:
		return strconv.FormatInt(v[i], 10)
	case []uint64:
		return strconv.FormatUint(v[i], 10)
	case []bool:
		if v[i] {
			return "1"
		}
		return "0"
	case []string:
		return strconv.Quote(v[i])
	case [][]byte:
		return hex.EncodeToString(v[i])
	}
	return ""
}

// Float64At 第 i 个元素转换为 float64，非数值类型返回 false
func Float64At(values any, i int) (float64, bool) {
	switch v := values.(type) {
	case []float32:
		return float64(v[i]), true
	case []float64:
		return v[i], true
	case []int8:
		return float64(v[i]), true
	case []uint8:
		return float64(v[i]), true
	case []int16:
		return float64(v[i]), true
	case []uint16:
		return float64(v[i]), true
	case []int32:
		return float64(v[i]), true
	case []uint32:
		return float64(v[i]), true
	case []int64:
		return float64(v[i]), true
	case []uint64:
		return float64(v[i]), true
	case []bool:
		if v[i] {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
