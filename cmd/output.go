package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"fmusim"
	"fmusim/ctxlog"
	"fmusim/recorder"
	"fmusim/utils"
)

// writeOutput 按扩展名输出采样结果
// .csv 表格，.html 曲线页面，.png/.svg/.pdf 图片，.db/.sqlite 数据库，为空时 CSV 写到 out
func writeOutput(ctx context.Context, out io.Writer, path string, r *fmusim.Run) error {
	logger := ctxlog.FromContext(ctx).With("run", r.Name, "output", path)
	var renderer recorder.Renderer = r.Recorder
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case "", ".csv":
		if path == "" {
			return r.Recorder.WriteCSV(out)
		}
	case ".html":
		renderer = recorder.NewCharts(r.Recorder, r.Description.ModelName)
	case ".png", ".svg", ".pdf", ".jpg", ".jpeg":
		if err := r.Recorder.Plot(path, r.Description.ModelName); err != nil {
			return err
		}
		logger.Info("已保存曲线", "status", statusText(r))
		return nil
	case ".db", ".sqlite":
		store, err := recorder.OpenStore(path)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.Save(ctx, r.Description.ModelName, r.Recorder)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", r.Name, id)
		return nil
	default:
		return fmt.Errorf("不支持的输出格式: %s", ext)
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf); err != nil {
		return fmt.Errorf("生成 %s 失败: %w", path, err)
	}
	if err := utils.AtomicWriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	logger.Info("已保存结果", "rows", r.Recorder.Len(), "status", statusText(r))
	return nil
}
