package ini233

import (
	"sync"
	"sync/atomic"

	"github.com/neko233-com/ini233-go/internal/fsx"
)

// snapshot 当前生效的配置快照
// doc 不可变；version 单调递增；stamp 是产生这份快照的
// 磁盘文件指纹（用于自写入识别）
type snapshot struct {
	doc     *Document
	version uint64
	stamp   fsx.Stamp
}

// snapshotStore 快照仓库
// 读取走 atomic.Value，无锁零拷贝；所有发布方（热重载协程和
// Facade 的写方法）在 mu 上串行化，保证 version 单调且不会
// 出现读-改-发的丢失更新
type snapshotStore struct {
	v  atomic.Value // *snapshot
	mu sync.Mutex   // 仅串行化发布操作
}

// newSnapshotStore 用初始 Document 创建仓库（version 从 1 开始）
func newSnapshotStore(doc *Document, stamp fsx.Stamp) *snapshotStore {
	st := &snapshotStore{}
	st.v.Store(&snapshot{doc: doc, version: 1, stamp: stamp})
	return st
}

// current 获取当前快照
// 永远不会阻塞在正在进行的重载上，返回的可能是旧快照，
// 但一定是完整解析过的一致状态
func (st *snapshotStore) current() *snapshot {
	return st.v.Load().(*snapshot)
}

// publish 原子发布新 Document，返回新版本号
func (st *snapshotStore) publish(doc *Document, stamp fsx.Stamp) uint64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.publishLocked(doc, stamp)
}

func (st *snapshotStore) publishLocked(doc *Document, stamp fsx.Stamp) uint64 {
	cur := st.current()
	next := &snapshot{doc: doc, version: cur.version + 1, stamp: stamp}
	st.v.Store(next)
	return next.version
}

// mutate 在发布锁内执行读-改-发
// fn 基于当前 Document 产生新 Document（copy-on-write），
// 返回错误时不发布任何内容
func (st *snapshotStore) mutate(fn func(*Document) (*Document, error)) (*snapshot, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	cur := st.current()
	doc, err := fn(cur.doc)
	if err != nil {
		return nil, err
	}
	st.publishLocked(doc, cur.stamp)
	return st.current(), nil
}

// updateStamp 只更新文件指纹，不改变 Document 和版本语义
// Write 持久化成功后调用，让后续重载能识别自写入
func (st *snapshotStore) updateStamp(stamp fsx.Stamp) {
	st.mu.Lock()
	defer st.mu.Unlock()
	cur := st.current()
	st.v.Store(&snapshot{doc: cur.doc, version: cur.version, stamp: stamp})
}
