package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWriteFile 原子写文件：同目录临时文件写入并同步后重命名
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("获取绝对路径失败: %w", err)
	}
	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	f, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tempPath := f.Name()
	success := false
	defer func() {
		if !success {
			f.Close()
			os.Remove(tempPath)
		}
	}()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("写入失败: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("同步失败: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("关闭失败: %w", err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("设置权限失败: %w", err)
	}
	if err := os.Rename(tempPath, absPath); err != nil {
		return fmt.Errorf("重命名失败: %w", err)
	}
	success = true
	return nil
}
