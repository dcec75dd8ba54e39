// Package fsx 提供配置文件读写的底层工具
// 写入统一走临时文件 + rename，保证外部观察者（包括我们自己的
// 文件监听器）永远不会读到半写状态的文件
package fsx

import (
	"os"
	"path/filepath"
	"time"
)

// Stamp 文件的修改时间 + 大小指纹
// 用于识别进程自身写入触发的文件变更事件
type Stamp struct {
	ModTime time.Time
	Size    int64
}

// IsZero 判断指纹是否为空
func (s Stamp) IsZero() bool {
	return s.ModTime.IsZero() && s.Size == 0
}

// Equal 判断两个指纹是否相同
func (s Stamp) Equal(other Stamp) bool {
	return s.Size == other.Size && s.ModTime.Equal(other.ModTime)
}

// Stat 获取文件指纹
func Stat(path string) (Stamp, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Stamp{}, err
	}
	return Stamp{ModTime: fi.ModTime(), Size: fi.Size()}, nil
}

// ReadFile 读取整个文件
func ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFileAtomic 原子写入文件：先写临时文件再 rename 覆盖
// rename 在同一目录内是原子操作，监听方只会看到一次完整替换
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Touch 创建空文件（已存在时不动）
func Touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
