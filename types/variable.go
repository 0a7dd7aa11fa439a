package types

import "fmt"

// ValueReference 变量引用
type ValueReference uint32

// VariableType 变量数据类型
type VariableType int

// 类型定义
const (
	TypeFloat32 VariableType = iota
	TypeFloat64
	TypeInt8
	TypeUInt8
	TypeInt16
	TypeUInt16
	TypeInt32
	TypeUInt32
	TypeInt64
	TypeUInt64
	TypeBoolean
	TypeString
	TypeBinary
	TypeClock
)

// FMI1/FMI2 类型别名
const (
	TypeReal    = TypeFloat64
	TypeInteger = TypeInt32
)

var variableTypeNames = [...]string{
	"Float32", "Float64", "Int8", "UInt8", "Int16", "UInt16", "Int32", "UInt32",
	"Int64", "UInt64", "Boolean", "String", "Binary", "Clock",
}

func (t VariableType) String() string {
	if int(t) < len(variableTypeNames) {
		return variableTypeNames[t]
	}
	return fmt.Sprintf("VariableType(%d)", int(t))
}

// IsFloat 是否为浮点类型
func (t VariableType) IsFloat() bool { return t == TypeFloat32 || t == TypeFloat64 }

// Causality 因果性
type Causality int

// 因果性定义
const (
	CausalityLocal Causality = iota
	CausalityParameter
	CausalityCalculatedParameter
	CausalityStructuralParameter
	CausalityInput
	CausalityOutput
	CausalityIndependent
)

// Variability 可变性
type Variability int

// 可变性定义
const (
	VariabilityContinuous Variability = iota
	VariabilityConstant
	VariabilityFixed
	VariabilityTunable
	VariabilityDiscrete
)

// Dimension 数组维度，Start 与 Variable 二选一
type Dimension struct {
	Start    uint64         // 固定长度
	Variable *ModelVariable // 引用的结构参数
}

// ModelVariable 模型变量
type ModelVariable struct {
	Name           string         // 名称
	ValueReference ValueReference // 引用
	Type           VariableType   // 数据类型
	Causality      Causality      // 因果性
	Variability    Variability    // 可变性
	Description    string         // 描述
	Start          string         // 起始值字面量
	Dimensions     []Dimension    // 数组维度
	Derivative     *ModelVariable // 为导数时指向对应状态
}

// IsTime 是否为独立时间变量
func (v *ModelVariable) IsTime() bool {
	return v.Causality == CausalityIndependent && v.Variability == VariabilityContinuous
}

// IsArray 是否为数组变量
func (v *ModelVariable) IsArray() bool { return len(v.Dimensions) > 0 }

func (v *ModelVariable) String() string { return v.Name }
