// Package dto 定义快照导出用的数据传输对象
// 供 excel 导出器和 JSON 导出使用，避免下游包依赖核心包
package dto

// KvDto 单个配置项
type KvDto struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SectionDto 单个 section 的有序键值列表
type SectionDto struct {
	Name  string  `json:"name"`
	Items []KvDto `json:"items"`
}

// SnapshotDto 一份完整快照的导出视图
type SnapshotDto struct {
	Version    uint64       `json:"version"`
	SourcePath string       `json:"sourcePath"`
	Sections   []SectionDto `json:"sections"`
}
