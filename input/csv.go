package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fmusim/types"
)

// ErrNotInput 列名不是可设置的输入
var ErrNotInput = errors.New("变量不能作为输入")

// ReadCSV 读取输入文件，首列为 time，其余列为变量名
func ReadCSV(r io.Reader, md *types.ModelDescription) (*Input, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取输入表头失败: %w", err)
	}
	if len(header) == 0 || strings.TrimSpace(header[0]) != "time" {
		return nil, errors.New("输入文件首列必须为 time")
	}
	variables := make([]*types.ModelVariable, 0, len(header)-1)
	for _, name := range header[1:] {
		name = strings.TrimSpace(name)
		v := md.Variable(name)
		if v == nil {
			return nil, fmt.Errorf("未知输入变量: %s", name)
		}
		if !settable(v) {
			return nil, fmt.Errorf("%w: %s", ErrNotInput, name)
		}
		variables = append(variables, v)
	}
	var (
		times  []float64
		values [][]any
	)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("输入文件第 %d 行: %w", line, err)
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("输入文件第 %d 行时间: %w", line, err)
		}
		row := make([]any, len(variables))
		for j, v := range variables {
			row[j], err = types.ParseValues(md.MajorVersion, v.Type, record[j+1])
			if err != nil {
				return nil, fmt.Errorf("输入文件第 %d 行变量 %s: %w", line, v.Name, err)
			}
		}
		times = append(times, t)
		values = append(values, row)
	}
	return New(variables, times, values)
}

// settable 输入变量或可调参数
func settable(v *types.ModelVariable) bool {
	if v.Causality == types.CausalityInput {
		return true
	}
	return v.Causality == types.CausalityParameter && v.Variability == types.VariabilityTunable
}
