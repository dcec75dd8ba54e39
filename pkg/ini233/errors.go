package ini233

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ParseError 配置内容解析错误
// 后台重载遇到它时会保留旧快照，只记录到 LastReloadError
type ParseError struct {
	Message string
	Line    int // 0 表示底层语法库未给出行号
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("ini233: 解析失败 (line %d): %s", e.Line, e.Message)
	}
	return fmt.Sprintf("ini233: 解析失败: %s", e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOErrorKind 文件 IO 错误分类
type IOErrorKind int

const (
	IOOther IOErrorKind = iota
	IONotFound
	IOPermissionDenied
)

// IOError 文件读写错误
type IOError struct {
	Kind IOErrorKind
	Op   string // "read" / "write" / "stat" / "create"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("ini233: %s %s 失败: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// newIOError 根据底层 os 错误归类
func newIOError(op, path string, err error) *IOError {
	kind := IOOther
	switch {
	case errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err):
		kind = IONotFound
	case errors.Is(err, fs.ErrPermission) || os.IsPermission(err):
		kind = IOPermissionDenied
	}
	return &IOError{Kind: kind, Op: op, Path: path, Err: err}
}

// NotFoundError 读取不存在的 section / key 时返回
// Key 为空表示整个 section 不存在
type NotFoundError struct {
	Section string
	Key     string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("ini233: section [%s] 不存在", e.Section)
	}
	return fmt.Sprintf("ini233: section [%s] 中不存在 key %q", e.Section, e.Key)
}

// IsNotFound 判断错误是否为 NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// WatchError 文件监听机制错误
// Open 阶段发生时直接让 Open 失败；启动后发生时降级为只读旧快照模式
type WatchError struct {
	Err error
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("ini233: 文件监听错误: %v", e.Err)
}

func (e *WatchError) Unwrap() error { return e.Err }
