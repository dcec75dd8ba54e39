package fsx

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ini")

	if err := WriteFileAtomic(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "hello" {
		t.Fatalf("读取结果 %q err=%v", data, err)
	}

	// 覆盖写入
	if err := WriteFileAtomic(path, []byte("world"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "world" {
		t.Errorf("覆盖后内容 %q", data)
	}

	// 不应留下临时文件
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("目录中残留了临时文件: %d 个文件", len(entries))
	}
}

func TestTouchAndStat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.ini")

	if err := Touch(path); err != nil {
		t.Fatal(err)
	}
	stamp, err := Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if stamp.Size != 0 {
		t.Errorf("新建文件大小应为 0: %d", stamp.Size)
	}

	// Touch 已存在的文件不应清空内容
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Touch(path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "data" {
		t.Errorf("Touch 清空了已有内容: %q", data)
	}

	stamp2, _ := Stat(path)
	if stamp2.Equal(stamp) {
		t.Error("内容变化后指纹应不同")
	}
	if !stamp2.Equal(stamp2) {
		t.Error("指纹应与自身相等")
	}
}
