package ini233

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/neko233-com/ini233-go/internal/fsx"
	"github.com/neko233-com/ini233-go/pkg/ini233/dto"
	"github.com/neko233-com/ini233-go/pkg/ini233/excel"
)

// AutoConfig233 自动重载的 INI 配置入口类
// 链式配置后调用 Open 启动：
//
//	cfg, err := ini233.NewAutoConfig233("app.ini").
//	    AutoCreate(true).
//	    DebounceWindow(100 * time.Millisecond).
//	    Open()
//	if err != nil { ... }
//	defer cfg.Close()
//
// 所有读取方法都解析自当前快照，反映磁盘上最新成功解析的内容；
// 读取无锁，可以从任意多个 goroutine 并发调用
type AutoConfig233 struct {
	path              string
	autoCreate        bool
	debounceWindow    time.Duration
	caseSensitiveKeys bool
	encoding          string

	codec    *codec
	store    *snapshotStore
	reloader *hotReloader

	listenerMu sync.RWMutex
	listeners  []SnapshotChangeListener

	lifecycleMu sync.Mutex
	opened      bool
	closed      bool
}

// NewAutoConfig233 创建配置实例（未打开状态）
// 返回实例支持链式调用配置方法，最后调用 Open 生效
func NewAutoConfig233(path string) *AutoConfig233 {
	return &AutoConfig233{
		path:           path,
		debounceWindow: DefaultDebounceWindow,
		encoding:       "utf-8",
	}
}

// AutoCreate 设置文件缺失时是否自动创建空文件
// 默认 false：文件不存在时 Open 直接失败
func (c *AutoConfig233) AutoCreate(enable bool) *AutoConfig233 {
	c.autoCreate = enable
	return c
}

// DebounceWindow 设置防抖窗口
// 窗口内的连续变更事件合并为一次重载，<=0 时使用默认值
func (c *AutoConfig233) DebounceWindow(d time.Duration) *AutoConfig233 {
	c.debounceWindow = d
	return c
}

// CaseSensitiveKeys 设置 key 是否区分大小写
// 默认 false：key 统一转小写（与原始 INI 语法一致），
// section 名始终区分大小写
func (c *AutoConfig233) CaseSensitiveKeys(enable bool) *AutoConfig233 {
	c.caseSensitiveKeys = enable
	return c
}

// Encoding 设置配置文件的文本编码
// 支持 "utf-8"（默认）、"latin-1"、"gbk"
func (c *AutoConfig233) Encoding(name string) *AutoConfig233 {
	c.encoding = name
	return c
}

// AddChangeListener 注册快照变更监听器
// 外部热重载和进程内写操作发布新快照后都会触发
func (c *AutoConfig233) AddChangeListener(l SnapshotChangeListener) *AutoConfig233 {
	c.listenerMu.Lock()
	c.listeners = append(c.listeners, l)
	c.listenerMu.Unlock()
	return c
}

// Open 执行首次同步解析并启动文件监听
// 快速失败路径（错误直接返回给调用方）：
//   - 文件缺失且未开启 AutoCreate -> *IOError (IONotFound)
//   - 文件内容非法 -> *ParseError
//   - 监听机制初始化失败 -> *WatchError
func (c *AutoConfig233) Open() (*AutoConfig233, error) {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if c.opened {
		return c, nil
	}

	abs, err := filepath.Abs(c.path)
	if err != nil {
		return nil, newIOError("stat", c.path, err)
	}
	c.path = abs

	cd, err := newCodec(c.caseSensitiveKeys, c.encoding)
	if err != nil {
		return nil, err
	}
	c.codec = cd

	// 初始加载：缺失时按 AutoCreate 决定创建还是失败
	if _, err := fsx.Stat(c.path); err != nil {
		ioErr := newIOError("stat", c.path, err)
		if !(c.autoCreate && ioErr.Kind == IONotFound) {
			return nil, ioErr
		}
		if err := fsx.Touch(c.path); err != nil {
			return nil, newIOError("create", c.path, err)
		}
		getLogger().Info("配置文件不存在，已自动创建", "path", c.path)
	}

	data, err := fsx.ReadFile(c.path)
	if err != nil {
		return nil, newIOError("read", c.path, err)
	}
	doc, err := c.codec.parse(data)
	if err != nil {
		return nil, err
	}
	stamp, err := fsx.Stat(c.path)
	if err != nil {
		return nil, newIOError("stat", c.path, err)
	}
	c.store = newSnapshotStore(doc, stamp)

	// 启动监听：失败对 Open 是致命的
	w, err := newFileWatcher(c.path)
	if err != nil {
		return nil, &WatchError{Err: err}
	}
	c.reloader = newHotReloader(c.path, c.codec, c.store, w, c.debounceWindow)
	c.reloader.onPublish = c.notifyListeners
	c.reloader.start()

	c.opened = true
	getLogger().Info("ini233 已启动", "path", c.path, "debounceMs", c.debounceWindow.Milliseconds())
	return c, nil
}

// Close 停止文件监听和待触发的重载
// 幂等：重复调用、或与 defer 搭配的双重关闭都不会出错
func (c *AutoConfig233) Close() error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if !c.opened || c.closed {
		return nil
	}
	c.closed = true
	c.reloader.close()
	getLogger().Info("ini233 已关闭", "path", c.path)
	return nil
}

// notifyListeners 发布成功后分发监听器通知
func (c *AutoConfig233) notifyListeners(version uint64, doc *Document) {
	c.listenerMu.RLock()
	listeners := make([]SnapshotChangeListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.listenerMu.RUnlock()

	for _, l := range listeners {
		l.OnSnapshotChange(version, doc)
	}
}

// =====================================================
// 读取方法（全部解析自当前快照，无锁）
// =====================================================

// current 当前快照
func (c *AutoConfig233) current() *snapshot {
	return c.store.current()
}

// Get 获取配置值
// section 或 key 不存在时返回 *NotFoundError
func (c *AutoConfig233) Get(section, key string) (string, error) {
	doc := c.current().doc
	if !doc.HasSection(section) {
		return "", &NotFoundError{Section: section}
	}
	v, ok := doc.Get(section, key)
	if !ok {
		return "", &NotFoundError{Section: section, Key: key}
	}
	return v, nil
}

// GetOr 获取配置值，不存在时返回 fallback
func (c *AutoConfig233) GetOr(section, key, fallback string) string {
	if v, err := c.Get(section, key); err == nil {
		return v
	}
	return fallback
}

// GetInt 获取整数配置值
func (c *AutoConfig233) GetInt(section, key string) (int, error) {
	v, err := c.Get(section, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("ini233: [%s] %s 的值 %q 不是整数: %w", section, key, v, err)
	}
	return n, nil
}

// GetFloat 获取浮点配置值
func (c *AutoConfig233) GetFloat(section, key string) (float64, error) {
	v, err := c.Get(section, key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("ini233: [%s] %s 的值 %q 不是浮点数: %w", section, key, v, err)
	}
	return f, nil
}

// GetBool 获取布尔配置值
// 接受的字面值与 INI 语法一致：
// 真: 1 / true / yes / on，假: 0 / false / no / off（不区分大小写）
func (c *AutoConfig233) GetBool(section, key string) (bool, error) {
	v, err := c.Get(section, key)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("ini233: [%s] %s 的值 %q 不是布尔值", section, key, v)
	}
}

// Sections 返回所有 section 名（文件顺序）
func (c *AutoConfig233) Sections() []string {
	return c.current().doc.Sections()
}

// Options 返回 section 中所有 key（文件顺序）
func (c *AutoConfig233) Options(section string) ([]string, error) {
	keys, ok := c.current().doc.Options(section)
	if !ok {
		return nil, &NotFoundError{Section: section}
	}
	return keys, nil
}

// Items 返回 section 中所有键值对（文件顺序）
func (c *AutoConfig233) Items(section string) ([]KV, error) {
	items, ok := c.current().doc.Items(section)
	if !ok {
		return nil, &NotFoundError{Section: section}
	}
	return items, nil
}

// Section 返回 section 的键值映射副本（map 风格访问）
func (c *AutoConfig233) Section(section string) (map[string]string, error) {
	items, err := c.Items(section)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(items))
	for _, kv := range items {
		m[kv.Key] = kv.Value
	}
	return m, nil
}

// HasSection 判断 section 是否存在
func (c *AutoConfig233) HasSection(section string) bool {
	return c.current().doc.HasSection(section)
}

// HasOption 判断 section 中是否存在 key
func (c *AutoConfig233) HasOption(section, key string) bool {
	return c.current().doc.HasOption(section, key)
}

// Version 当前快照版本号，发布单调递增
// 读取方观察到版本 N 之后，绝不会再观察到小于 N 的版本
func (c *AutoConfig233) Version() uint64 {
	return c.current().version
}

// LastReloadError 最近一次后台热重载的错误
// 后台重载失败不会抛给读取方：旧快照继续服务，错误记录在这里，
// 文件修好后的下一次变更事件会自动恢复（返回 nil）
func (c *AutoConfig233) LastReloadError() error {
	if c.reloader == nil {
		return nil
	}
	return c.reloader.lastError()
}

// LastWatchError 启动后文件监听机制自身的错误
// 非 nil 表示已进入降级模式：快照停在最后一份好的状态
func (c *AutoConfig233) LastWatchError() error {
	if c.reloader == nil {
		return nil
	}
	return c.reloader.lastWatchError()
}

// =====================================================
// 写入方法（copy-on-write + 立即发布，进程内读取即刻可见）
// =====================================================

// Set 写入配置值并立即发布新快照
// section 不存在时返回 *NotFoundError（与原始语法行为一致），
// 需要新 section 先调用 AddSection
func (c *AutoConfig233) Set(section, key, value string) error {
	snap, err := c.store.mutate(func(doc *Document) (*Document, error) {
		nd := doc.withSet(section, key, value)
		if nd == nil {
			return nil, &NotFoundError{Section: section}
		}
		return nd, nil
	})
	if err != nil {
		return err
	}
	c.notifyListeners(snap.version, snap.doc)
	return nil
}

// AddSection 追加空 section 并立即发布新快照
// 重名时返回错误
func (c *AutoConfig233) AddSection(section string) error {
	snap, err := c.store.mutate(func(doc *Document) (*Document, error) {
		nd := doc.withSection(section)
		if nd == nil {
			return nil, fmt.Errorf("ini233: section [%s] 已存在", section)
		}
		return nd, nil
	})
	if err != nil {
		return err
	}
	c.notifyListeners(snap.version, snap.doc)
	return nil
}

// RemoveSection 删除 section，返回是否确实删除了
func (c *AutoConfig233) RemoveSection(section string) bool {
	removed := false
	snap, err := c.store.mutate(func(doc *Document) (*Document, error) {
		nd, ok := doc.withoutSection(section)
		removed = ok
		if !ok {
			return nil, &NotFoundError{Section: section}
		}
		return nd, nil
	})
	if err != nil {
		return false
	}
	c.notifyListeners(snap.version, snap.doc)
	return removed
}

// RemoveOption 删除 section 中的 key
// section 不存在时返回 *NotFoundError；key 不存在时返回 (false, nil)
func (c *AutoConfig233) RemoveOption(section, key string) (bool, error) {
	doc := c.current().doc
	if !doc.HasSection(section) {
		return false, &NotFoundError{Section: section}
	}

	removed := false
	snap, err := c.store.mutate(func(cur *Document) (*Document, error) {
		if !cur.HasSection(section) {
			return nil, &NotFoundError{Section: section}
		}
		nd, ok := cur.withoutOption(section, key)
		removed = ok
		if !ok {
			// key 本来就不存在，不发布新快照
			return nil, errNoop
		}
		return nd, nil
	})
	if err == errNoop {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	c.notifyListeners(snap.version, snap.doc)
	return removed, nil
}

// errNoop mutate 内部标记"无需发布"的哨兵错误
var errNoop = fmt.Errorf("ini233: noop")

// Write 把当前快照序列化并持久化到配置文件
// 写入走临时文件 + rename，随后把文件指纹记到快照仓库：
// 重载协调器收到这次自写入的事件时，发现磁盘指纹已与快照一致，
// 会跳过重载，不会产生一次多余的、可能与写入竞争的重载
func (c *AutoConfig233) Write() error {
	data, err := c.codec.serialize(c.current().doc)
	if err != nil {
		return err
	}
	if err := fsx.WriteFileAtomic(c.path, data, 0o644); err != nil {
		return newIOError("write", c.path, err)
	}

	stamp, err := fsx.Stat(c.path)
	if err != nil {
		return newIOError("stat", c.path, err)
	}
	c.store.updateStamp(stamp)
	getLogger().Info("配置已持久化", "path", c.path, "bytes", len(data))
	return nil
}

// WriteTo 把当前快照序列化到任意输出流（不触碰磁盘文件）
func (c *AutoConfig233) WriteTo(w io.Writer) (int64, error) {
	data, err := c.codec.serialize(c.current().doc)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// =====================================================
// 快照导出
// =====================================================

// Snapshot 导出当前快照的只读视图
func (c *AutoConfig233) Snapshot() *dto.SnapshotDto {
	snap := c.current()
	out := &dto.SnapshotDto{
		Version:    snap.version,
		SourcePath: c.path,
	}
	for _, name := range snap.doc.Sections() {
		items, _ := snap.doc.Items(name)
		sec := dto.SectionDto{Name: name, Items: make([]dto.KvDto, 0, len(items))}
		for _, kv := range items {
			sec.Items = append(sec.Items, dto.KvDto{Key: kv.Key, Value: kv.Value})
		}
		out.Sections = append(out.Sections, sec)
	}
	return out
}

// DumpJson 把当前快照导出为 JSON 文件
func (c *AutoConfig233) DumpJson(path string) error {
	data, err := json.MarshalIndent(c.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	if err := fsx.WriteFileAtomic(path, data, 0o644); err != nil {
		return newIOError("write", path, err)
	}
	return nil
}

// DumpExcel 把当前快照导出为 xlsx 文件（方便运维查看）
func (c *AutoConfig233) DumpExcel(path string) error {
	exporter := &excel.SnapshotExporter{}
	return exporter.WriteSnapshot(c.Snapshot(), path)
}
