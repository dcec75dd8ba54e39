package ini233

// SnapshotChangeListener 快照变更监听器
// 每次成功发布新快照后被调用：包括外部编辑触发的热重载，
// 也包括本进程内通过 Set / AddSection 等方法产生的变更
// 回调运行在发布方的协程上，实现方不要在里面做耗时操作
type SnapshotChangeListener interface {
	// OnSnapshotChange 快照发生变化时被调用
	// version 单调递增；doc 是不可变的新快照，可以安全持有
	OnSnapshotChange(version uint64, doc *Document)
}

// SnapshotChangeFunc 函数式监听器适配
type SnapshotChangeFunc func(version uint64, doc *Document)

func (f SnapshotChangeFunc) OnSnapshotChange(version uint64, doc *Document) {
	f(version, doc)
}
