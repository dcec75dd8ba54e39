package ini233

import (
	"sync"
	"time"

	"github.com/neko233-com/ini233-go/internal/fsx"
)

const (
	// DefaultDebounceWindow 默认防抖窗口
	// 收集一次原子替换写入产生的连续事件（Create + Rename + Write），
	// 合并为一次重载
	DefaultDebounceWindow = 200 * time.Millisecond

	// reloadCooldown 重载冷却时间（避免频繁重载）
	reloadCooldown = 150 * time.Millisecond
)

// reloadPhase 热重载状态机的状态
type reloadPhase int

const (
	phaseIdle reloadPhase = iota
	phaseDebouncing
	phaseReloading
	phaseFailed
)

// hotReloader 热重载协调器
// 消费 fileWatcher 的事件流，防抖后重新读取并解析文件，
// 成功则把新 Document 发布到 snapshotStore，失败则保留旧快照
// 并记录错误（坏的编辑永远不会清空线上配置）
type hotReloader struct {
	path     string
	codec    *codec
	store    *snapshotStore
	watcher  *fileWatcher
	debounce time.Duration

	// onPublish 发布成功后的回调（Facade 用它分发监听器通知）
	onPublish func(version uint64, doc *Document)

	mu             sync.Mutex
	timer          *time.Timer // 防抖定时器
	phase          reloadPhase
	lastReloadTime time.Time // 上次重载时间
	reloading      bool      // 是否正在重载
	lastErr        error // 最近一次重载失败的错误
	lastWatchErr   error // 启动后监听机制本身的错误（降级模式）
	closed         bool
	done           chan struct{}
}

func newHotReloader(path string, c *codec, store *snapshotStore, w *fileWatcher, debounce time.Duration) *hotReloader {
	if debounce <= 0 {
		debounce = DefaultDebounceWindow
	}
	return &hotReloader{
		path:     path,
		codec:    c,
		store:    store,
		watcher:  w,
		debounce: debounce,
		done:     make(chan struct{}),
	}
}

// start 启动事件消费协程
func (r *hotReloader) start() {
	r.watcher.start()

	go func() {
		for {
			select {
			case <-r.done:
				return
			case ev := <-r.watcher.events:
				getLogger().Info("检测到配置文件变化", "path", ev.Path, "op", ev.Op.String())
				r.noteEvent()
			case err := <-r.watcher.errors:
				// 启动后的监听故障不致命：记录错误，快照停在最后一份
				// 好的状态继续服务（降级模式），绝不因此崩溃进程
				r.mu.Lock()
				r.lastWatchErr = &WatchError{Err: err}
				r.mu.Unlock()
				getLogger().Error(err, "文件监听错误，进入降级模式", "path", r.path)
			}
		}
	}()
}

// noteEvent 记录一次变更事件并重置防抖窗口
// 窗口内的后续事件会不断推迟重载，把一阵连续写入合并成一次
func (r *hotReloader) noteEvent() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.phase = phaseDebouncing
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, r.fire)
}

// fire 防抖窗口结束，尝试执行重载
// 冷却期内或已有重载在进行时延迟重试（与批量重载的节流策略一致）
func (r *hotReloader) fire() {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()
		return
	}

	// 检查冷却时间
	sinceLast := time.Since(r.lastReloadTime)
	if sinceLast < reloadCooldown {
		remaining := reloadCooldown - sinceLast
		r.timer = time.AfterFunc(remaining, r.fire)
		r.mu.Unlock()
		return
	}

	if r.reloading {
		// 正在重载，稍后重试
		r.timer = time.AfterFunc(50*time.Millisecond, r.fire)
		r.mu.Unlock()
		return
	}

	r.reloading = true
	r.phase = phaseReloading
	r.mu.Unlock()

	err := r.reloadOnce()

	r.mu.Lock()
	r.lastReloadTime = time.Now()
	r.reloading = false
	if err != nil {
		r.phase = phaseFailed
		r.lastErr = err
	} else {
		r.phase = phaseIdle
		r.lastErr = nil
	}
	r.mu.Unlock()
}

// reloadOnce 执行一次完整的读取-解析-发布
// 任何失败都只返回错误，不触碰当前快照；
// 文件 I/O 和解析全程不持有任何发布锁
func (r *hotReloader) reloadOnce() error {
	stamp, err := fsx.Stat(r.path)
	if err != nil {
		e := newIOError("stat", r.path, err)
		getLogger().Error(err, "重载时文件不可访问，保留旧快照", "path", r.path)
		return e
	}

	// 自写入识别：当前快照的文件指纹就是磁盘上的指纹，
	// 说明这个事件是我们自己的 Write（或已处理过的变更）触发的，
	// 快照已经是最新，跳过
	cur := r.store.current()
	if !cur.stamp.IsZero() && cur.stamp.Equal(stamp) {
		getLogger().Info("快照已与磁盘一致，跳过重载", "path", r.path)
		return nil
	}

	data, err := fsx.ReadFile(r.path)
	if err != nil {
		e := newIOError("read", r.path, err)
		getLogger().Error(err, "重载读取失败，保留旧快照", "path", r.path)
		return e
	}

	doc, err := r.codec.parse(data)
	if err != nil {
		getLogger().Error(err, "重载解析失败，保留旧快照", "path", r.path)
		return err
	}

	version := r.store.publish(doc, stamp)
	getLogger().Info("配置重载成功", "path", r.path, "version", version)

	if r.onPublish != nil {
		r.onPublish(version, doc)
	}
	return nil
}

// currentPhase 状态机当前状态
func (r *hotReloader) currentPhase() reloadPhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// lastError 最近一次后台重载的错误，成功后清空
func (r *hotReloader) lastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// lastWatchError 启动后监听机制自身的错误
func (r *hotReloader) lastWatchError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastWatchErr
}

// close 停止协调器：取消待触发的防抖定时器并停止监听
// 可重复调用；进行中的重载允许自然完成，不会留下半发布状态
func (r *hotReloader) close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.mu.Unlock()

	close(r.done)
	r.watcher.stop()
}
