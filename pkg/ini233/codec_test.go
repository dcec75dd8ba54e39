package ini233

import (
	"errors"
	"strings"
	"testing"
)

func TestCodec_Parse(t *testing.T) {
	c, err := newCodec(false, "utf-8")
	if err != nil {
		t.Fatal(err)
	}

	data := []byte("[server]\nHost = localhost\nPort = 8080\n\n[cache]\nttl = 300\n")
	doc, err := c.parse(data)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}

	sections := doc.Sections()
	if len(sections) != 2 || sections[0] != "server" || sections[1] != "cache" {
		t.Fatalf("section 解析错误: %v", sections)
	}
	if v, _ := doc.Get("server", "host"); v != "localhost" {
		t.Errorf("期望 host=localhost, 实际 %q", v)
	}
	if v, _ := doc.Get("cache", "ttl"); v != "300" {
		t.Errorf("期望 ttl=300, 实际 %q", v)
	}
}

func TestCodec_ParseError(t *testing.T) {
	c, _ := newCodec(false, "utf-8")

	_, err := c.parse([]byte("[unclosed\nkey = value\n"))
	if err == nil {
		t.Fatal("非法内容应返回错误")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("应返回 *ParseError, 实际 %T", err)
	}
	if pe.Message == "" {
		t.Error("ParseError 应携带底层错误信息")
	}
}

func TestCodec_SerializePreservesOrder(t *testing.T) {
	c, _ := newCodec(false, "utf-8")

	doc, err := c.parse([]byte("[b]\nz = 1\na = 2\n\n[a]\nk = v\n"))
	if err != nil {
		t.Fatal(err)
	}

	out, err := c.serialize(doc)
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	text := string(out)

	// section 与 key 都应保持原始顺序
	if strings.Index(text, "[b]") > strings.Index(text, "[a]") {
		t.Errorf("section 顺序未保持:\n%s", text)
	}
	if strings.Index(text, "z") > strings.Index(text, "a = 2") {
		t.Errorf("key 顺序未保持:\n%s", text)
	}

	// 序列化结果必须能再次被解析
	doc2, err := c.parse(out)
	if err != nil {
		t.Fatalf("序列化结果无法回读: %v", err)
	}
	if v, _ := doc2.Get("b", "z"); v != "1" {
		t.Errorf("回读值错误: z=%q", v)
	}
}

func TestCodec_EmptyInput(t *testing.T) {
	c, _ := newCodec(false, "utf-8")
	doc, err := c.parse(nil)
	if err != nil {
		t.Fatalf("空输入不应报错: %v", err)
	}
	if len(doc.Sections()) != 0 {
		t.Errorf("空输入应产生空文档: %v", doc.Sections())
	}
}

func TestCodec_Encoding(t *testing.T) {
	// gbk: 值包含中文时经过编码再解码应无损
	c, err := newCodec(false, "gbk")
	if err != nil {
		t.Fatal(err)
	}

	doc := newDocument(false)
	doc.appendSection("游戏")
	doc.setValue("游戏", "name", "测试服")

	data, err := c.serialize(doc)
	if err != nil {
		t.Fatalf("gbk 序列化失败: %v", err)
	}

	doc2, err := c.parse(data)
	if err != nil {
		t.Fatalf("gbk 解析失败: %v", err)
	}
	if v, _ := doc2.Get("游戏", "name"); v != "测试服" {
		t.Errorf("gbk 往返丢失: %q", v)
	}
}

func TestCodec_UnsupportedEncoding(t *testing.T) {
	if _, err := newCodec(false, "ebcdic"); err == nil {
		t.Error("不支持的编码应返回错误")
	}
}
