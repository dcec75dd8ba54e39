package ini233

import "strings"

// KV 一个配置项（键值对）
type KV struct {
	Key   string
	Value string
}

// Document 不可变的配置快照
// 由 codec 解析产生，保持 section 和 key 的文件顺序
// 发布到 snapshotStore 之后绝对不能再修改，所有变更操作
// 都通过 copy-on-write 产生新的 Document
type Document struct {
	sections      []*docSection
	index         map[string]int // section 名 -> sections 下标
	caseSensitive bool           // key 是否区分大小写（section 名始终区分）
}

// docSection 单个 section 的有序键值数据
type docSection struct {
	name   string
	keys   []string          // 规范化后的 key，按文件顺序
	values map[string]string // 规范化 key -> value
}

// newDocument 创建空 Document
func newDocument(caseSensitiveKeys bool) *Document {
	return &Document{
		index:         make(map[string]int),
		caseSensitive: caseSensitiveKeys,
	}
}

// normalizeKey 按大小写配置规范化 key
// 默认行为与原始 INI 语法一致：key 统一转小写
func (d *Document) normalizeKey(key string) string {
	if d.caseSensitive {
		return key
	}
	return strings.ToLower(key)
}

// Sections 返回所有 section 名（文件顺序）
func (d *Document) Sections() []string {
	names := make([]string, 0, len(d.sections))
	for _, s := range d.sections {
		names = append(names, s.name)
	}
	return names
}

// HasSection 判断 section 是否存在
func (d *Document) HasSection(name string) bool {
	_, ok := d.index[name]
	return ok
}

// HasOption 判断 section 中是否存在 key
func (d *Document) HasOption(section, key string) bool {
	_, ok := d.Get(section, key)
	return ok
}

// Get 获取配置值
func (d *Document) Get(section, key string) (string, bool) {
	i, ok := d.index[section]
	if !ok {
		return "", false
	}
	v, ok := d.sections[i].values[d.normalizeKey(key)]
	return v, ok
}

// Options 返回 section 中所有 key（文件顺序）
func (d *Document) Options(section string) ([]string, bool) {
	i, ok := d.index[section]
	if !ok {
		return nil, false
	}
	s := d.sections[i]
	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys, true
}

// Items 返回 section 中所有键值对（文件顺序）
func (d *Document) Items(section string) ([]KV, bool) {
	i, ok := d.index[section]
	if !ok {
		return nil, false
	}
	s := d.sections[i]
	items := make([]KV, 0, len(s.keys))
	for _, k := range s.keys {
		items = append(items, KV{Key: k, Value: s.values[k]})
	}
	return items, true
}

// clone 深拷贝整个 Document，copy-on-write 的基础
func (d *Document) clone() *Document {
	nd := &Document{
		sections:      make([]*docSection, len(d.sections)),
		index:         make(map[string]int, len(d.index)),
		caseSensitive: d.caseSensitive,
	}
	for i, s := range d.sections {
		ns := &docSection{
			name:   s.name,
			keys:   make([]string, len(s.keys)),
			values: make(map[string]string, len(s.values)),
		}
		copy(ns.keys, s.keys)
		for k, v := range s.values {
			ns.values[k] = v
		}
		nd.sections[i] = ns
		nd.index[s.name] = i
	}
	return nd
}

// appendSection 追加 section，仅在构建和 copy-on-write 内部使用
// 重名时返回 false
func (d *Document) appendSection(name string) bool {
	if _, ok := d.index[name]; ok {
		return false
	}
	d.index[name] = len(d.sections)
	d.sections = append(d.sections, &docSection{
		name:   name,
		values: make(map[string]string),
	})
	return true
}

// setValue 在已存在的 section 上写入键值，仅内部使用
func (d *Document) setValue(section, key, value string) bool {
	i, ok := d.index[section]
	if !ok {
		return false
	}
	s := d.sections[i]
	nk := d.normalizeKey(key)
	if _, exists := s.values[nk]; !exists {
		s.keys = append(s.keys, nk)
	}
	s.values[nk] = value
	return true
}

// withSet 产生写入了一个键值的新 Document
// section 不存在时返回 nil
func (d *Document) withSet(section, key, value string) *Document {
	if !d.HasSection(section) {
		return nil
	}
	nd := d.clone()
	nd.setValue(section, key, value)
	return nd
}

// withSection 产生追加了一个空 section 的新 Document
// 重名时返回 nil
func (d *Document) withSection(name string) *Document {
	if d.HasSection(name) {
		return nil
	}
	nd := d.clone()
	nd.appendSection(name)
	return nd
}

// withoutSection 产生删除了一个 section 的新 Document
// 返回新文档和是否确实删除了
func (d *Document) withoutSection(name string) (*Document, bool) {
	i, ok := d.index[name]
	if !ok {
		return d, false
	}
	nd := d.clone()
	nd.sections = append(nd.sections[:i], nd.sections[i+1:]...)
	nd.index = make(map[string]int, len(nd.sections))
	for j, s := range nd.sections {
		nd.index[s.name] = j
	}
	return nd, true
}

// withoutOption 产生删除了一个 key 的新 Document
func (d *Document) withoutOption(section, key string) (*Document, bool) {
	i, ok := d.index[section]
	if !ok {
		return d, false
	}
	nk := d.normalizeKey(key)
	if _, ok := d.sections[i].values[nk]; !ok {
		return d, false
	}
	nd := d.clone()
	s := nd.sections[i]
	delete(s.values, nk)
	for j, k := range s.keys {
		if k == nk {
			s.keys = append(s.keys[:j], s.keys[j+1:]...)
			break
		}
	}
	return nd, true
}
