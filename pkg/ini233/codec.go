package ini233

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"gopkg.in/ini.v1"
)

// codec 解析器适配层
// INI 语法本身完全交给 gopkg.in/ini.v1，这里只负责：
// 1. 字节 <-> Document 的双向转换
// 2. 文本编码的解码/编码（utf-8 / latin-1 / gbk）
// 3. 把底层语法错误包装成 *ParseError
type codec struct {
	caseSensitiveKeys bool
	enc               encoding.Encoding // nil 表示 utf-8 直通
}

// newCodec 创建编解码器
// encodingName 不支持时返回错误（Open 阶段快速失败）
func newCodec(caseSensitiveKeys bool, encodingName string) (*codec, error) {
	enc, err := encodingFor(encodingName)
	if err != nil {
		return nil, err
	}
	return &codec{caseSensitiveKeys: caseSensitiveKeys, enc: enc}, nil
}

// encodingFor 按名称查找文本编码
func encodingFor(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf8", "utf-8":
		return nil, nil
	case "latin1", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "gbk":
		return simplifiedchinese.GBK, nil
	default:
		return nil, fmt.Errorf("ini233: 不支持的编码 %q", name)
	}
}

// parse 解析字节为不可变 Document
// 解析是全有或全无的：任何语法错误都返回 *ParseError，
// 不会产生半解析状态的 Document
func (c *codec) parse(data []byte) (*Document, error) {
	if c.enc != nil {
		decoded, err := c.enc.NewDecoder().Bytes(data)
		if err != nil {
			return nil, &ParseError{Message: "文本解码失败: " + err.Error(), Err: err}
		}
		data = decoded
	}

	f, err := ini.LoadSources(ini.LoadOptions{}, data)
	if err != nil {
		return nil, &ParseError{Message: err.Error(), Err: err}
	}

	doc := newDocument(c.caseSensitiveKeys)
	for _, sec := range f.Sections() {
		keys := sec.KeyStrings()
		// ini.v1 总是带一个 DEFAULT section，空的直接跳过
		if sec.Name() == ini.DefaultSection && len(keys) == 0 {
			continue
		}
		doc.appendSection(sec.Name())
		for _, k := range keys {
			doc.setValue(sec.Name(), k, sec.Key(k).Value())
		}
	}
	return doc, nil
}

// serialize 把 Document 序列化回 INI 字节
func (c *codec) serialize(doc *Document) ([]byte, error) {
	f := ini.Empty()
	for _, name := range doc.Sections() {
		sec, err := f.NewSection(name)
		if err != nil {
			return nil, fmt.Errorf("ini233: 序列化 section [%s] 失败: %w", name, err)
		}
		items, _ := doc.Items(name)
		for _, kv := range items {
			if _, err := sec.NewKey(kv.Key, kv.Value); err != nil {
				return nil, fmt.Errorf("ini233: 序列化 key %q 失败: %w", kv.Key, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}

	data := buf.Bytes()
	if c.enc != nil {
		encoded, err := c.enc.NewEncoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("ini233: 文本编码失败: %w", err)
		}
		data = encoded
	}
	return data, nil
}
