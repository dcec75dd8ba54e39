package ini233

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// fileEventOp 抽象的文件变更事件类型
type fileEventOp int

const (
	opCreated fileEventOp = iota
	opModified
	opDeleted
	opRenamed
)

func (op fileEventOp) String() string {
	switch op {
	case opCreated:
		return "created"
	case opModified:
		return "modified"
	case opDeleted:
		return "deleted"
	case opRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// fileEvent 针对被跟踪文件的一次变更通知
// 即用即弃，由热重载协程立刻消费
type fileEvent struct {
	Op   fileEventOp
	Path string
	Time time.Time
}

// fileWatcher 文件监听适配层，包装 fsnotify
// 监听的是文件所在的目录而不是文件本身：很多编辑器和
// ConfigMap 更新器通过临时文件 + rename 替换文件，
// 只监听文件路径会在第一次 rename 后失效
type fileWatcher struct {
	fw       *fsnotify.Watcher
	path     string // 被跟踪文件的绝对路径
	events   chan fileEvent
	errors   chan error
	done     chan struct{}
	stopOnce sync.Once
}

// newFileWatcher 创建监听器并绑定到 path 所在目录
// fsnotify 初始化失败（如 inotify 实例耗尽）时直接返回错误
func newFileWatcher(path string) (*fileWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &fileWatcher{
		fw:     fw,
		path:   filepath.Clean(path),
		events: make(chan fileEvent, 16),
		errors: make(chan error, 4),
		done:   make(chan struct{}),
	}, nil
}

// start 启动事件泵协程
// 过滤出命中被跟踪文件名的目录事件，转换为抽象事件
func (w *fileWatcher) start() {
	go func() {
		for {
			select {
			case <-w.done:
				return
			case ev, ok := <-w.fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != w.path {
					continue
				}
				op, ok := mapOp(ev.Op)
				if !ok {
					continue
				}
				select {
				case w.events <- fileEvent{Op: op, Path: w.path, Time: time.Now()}:
				default:
					// 通道已满说明下游还攒着一批待防抖的事件，丢掉也无妨
				}
			case err, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				select {
				case w.errors <- err:
				default:
				}
			}
		}
	}()
}

// mapOp fsnotify 事件 -> 抽象事件
// Chmod 不改变内容，不触发重载
func mapOp(op fsnotify.Op) (fileEventOp, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return opCreated, true
	case op.Has(fsnotify.Write):
		return opModified, true
	case op.Has(fsnotify.Remove):
		return opDeleted, true
	case op.Has(fsnotify.Rename):
		return opRenamed, true
	default:
		return 0, false
	}
}

// stop 停止监听并释放 OS 资源，可重复调用
func (w *fileWatcher) stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fw.Close()
	})
}
