package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"fmusim/ctxlog"
)

// HCLLoader HCL 格式读取器
//
//	model    = "BouncingBall"
//	stop_time = 3
//	start_values {
//	  h = 2
//	}
type HCLLoader struct{}

// NewHCLLoader 创建 HCL 读取器
func NewHCLLoader() *HCLLoader { return &HCLLoader{} }

var startValuesSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{{Type: "start_values"}},
}

// Load 解析文件，start_values 块之外的属性解码到 Experiment
func (l *HCLLoader) Load(ctx context.Context, path string) (*Experiment, error) {
	logger := ctxlog.FromContext(ctx)
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("解析 HCL 文件 %s 失败: %w", path, diags)
	}
	return decodeHCL(file.Body, path, logger.With("format", "hcl"))
}

// ParseHCL 从内存解析，filename 只用于诊断信息
func ParseHCL(src []byte, filename string) (*Experiment, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("解析 HCL 文件 %s 失败: %w", filename, diags)
	}
	exp, err := decodeHCL(file.Body, filename, slog.Default())
	if err != nil {
		return nil, err
	}
	return exp, exp.Validate()
}

func decodeHCL(body hcl.Body, filename string, logger *slog.Logger) (*Experiment, error) {
	content, rest, diags := body.PartialContent(startValuesSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("解码 HCL 文件 %s 失败: %w", filename, diags)
	}
	exp := &Experiment{}
	if diags := gohcl.DecodeBody(rest, nil, exp); diags.HasErrors() {
		return nil, fmt.Errorf("解码 HCL 文件 %s 失败: %w", filename, diags)
	}
	for _, block := range content.Blocks {
		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("解码 start_values 失败: %w", diags)
		}
		if exp.StartValues == nil {
			exp.StartValues = make(map[string]string, len(attrs))
		}
		for name, attr := range attrs {
			value, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("起始值 %s: %w", name, diags)
			}
			literal, err := ctyLiteral(value)
			if err != nil {
				return nil, fmt.Errorf("起始值 %s: %w", name, err)
			}
			exp.StartValues[name] = literal
			logger.Debug("起始值", "variable", name, "literal", literal)
		}
	}
	return exp, nil
}

// ctyLiteral 把 HCL 值转为起始值字面量，列表元素以空格分隔
func ctyLiteral(v cty.Value) (string, error) {
	if v.IsNull() || !v.IsKnown() {
		return "", fmt.Errorf("值为空")
	}
	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString(), nil
	case t == cty.Number:
		return v.AsBigFloat().Text('g', -1), nil
	case t == cty.Bool:
		if v.True() {
			return "true", nil
		}
		return "false", nil
	case t.IsListType() || t.IsTupleType() || t.IsSetType():
		fields := make([]string, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, e := it.Element()
			if e.Type().IsListType() || e.Type().IsTupleType() {
				return "", fmt.Errorf("不支持嵌套列表")
			}
			s, err := ctyLiteral(e)
			if err != nil {
				return "", err
			}
			fields = append(fields, s)
		}
		return strings.Join(fields, " "), nil
	}
	return "", fmt.Errorf("不支持的类型 %s", t.FriendlyName())
}
