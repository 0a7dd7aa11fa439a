package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"fmusim/ctxlog"
)

// TOMLLoader TOML 格式读取器，起始值写在 [start_values] 表中
type TOMLLoader struct{}

// NewTOMLLoader 创建 TOML 读取器
func NewTOMLLoader() *TOMLLoader { return &TOMLLoader{} }

type tomlFile struct {
	Experiment
	StartValues map[string]any `toml:"start_values"`
}

// Load 解析文件
func (l *TOMLLoader) Load(ctx context.Context, path string) (*Experiment, error) {
	var f tomlFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("解析 TOML 文件 %s 失败: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		ctxlog.FromContext(ctx).Warn("忽略未知配置项", "path", path, "keys", fmt.Sprint(undecoded))
	}
	return f.experiment()
}

// ParseTOML 从内存解析
func ParseTOML(src string) (*Experiment, error) {
	var f tomlFile
	if _, err := toml.Decode(src, &f); err != nil {
		return nil, fmt.Errorf("解析 TOML 失败: %w", err)
	}
	exp, err := f.experiment()
	if err != nil {
		return nil, err
	}
	return exp, exp.Validate()
}

func (f *tomlFile) experiment() (*Experiment, error) {
	exp := f.Experiment
	if len(f.StartValues) > 0 {
		exp.StartValues = make(map[string]string, len(f.StartValues))
	}
	for name, value := range f.StartValues {
		literal, err := tomlLiteral(value)
		if err != nil {
			return nil, fmt.Errorf("起始值 %s: %w", name, err)
		}
		exp.StartValues[name] = literal
	}
	return &exp, nil
}

// tomlLiteral 把 TOML 值转为起始值字面量，数组元素以空格分隔
func tomlLiteral(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case []any:
		fields := make([]string, len(v))
		for i, e := range v {
			if _, nested := e.([]any); nested {
				return "", fmt.Errorf("不支持嵌套数组")
			}
			s, err := tomlLiteral(e)
			if err != nil {
				return "", err
			}
			fields[i] = s
		}
		return strings.Join(fields, " "), nil
	}
	return "", fmt.Errorf("不支持的类型 %T", v)
}
