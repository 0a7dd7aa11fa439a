package types

import "math"

// 默认参数常量定义
var (
	Epsilon             = 1e-5 // 时间比较容差（绝对/相对）
	DefaultRelTolerance = 1e-4 // 求解器默认相对容差
	DefaultTimeStep     = 1e-2 // 默认输出间隔
	DefaultStopTime     = 1.0  // 默认停止时间
)

// IsClose 判断两个时间点在 Epsilon 范围内相等
// 先比较绝对误差，再比较相对误差，无穷大只与自身相等
func IsClose(a, b float64) bool {
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	if math.Abs(a-b) <= Epsilon {
		return true
	}
	return math.Abs(a-b) <= Epsilon*math.Max(math.Abs(a), math.Abs(b))
}
