package recorder

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"fmusim/types"
)

// WriteCSV 写出 CSV，表头带引号，数组元素以空格分隔
func (r *Recorder) WriteCSV(w io.Writer) error {
	writer := bufio.NewWriter(w)
	writer.WriteString(`"time"`)
	for _, v := range r.Variables {
		writer.WriteString(",")
		writer.WriteString(strconv.Quote(v.Name))
	}
	writer.WriteString("\n")
	var sb strings.Builder
	for _, row := range r.rows {
		sb.Reset()
		sb.WriteString(strconv.FormatFloat(row.Time, 'g', 16, 64))
		for _, values := range row.Values {
			sb.WriteByte(',')
			for k := 0; k < types.NumValues(values); k++ {
				if k > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(types.FormatValue(values, k))
			}
		}
		sb.WriteByte('\n')
		if _, err := writer.WriteString(sb.String()); err != nil {
			return err
		}
	}
	return writer.Flush()
}
