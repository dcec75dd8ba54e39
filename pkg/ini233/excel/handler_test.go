package excel

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/neko233-com/ini233-go/pkg/ini233/dto"
)

func TestSnapshotExporter_WriteSnapshot(t *testing.T) {
	snap := &dto.SnapshotDto{
		Version:    3,
		SourcePath: "/etc/app/settings.ini",
		Sections: []dto.SectionDto{
			{Name: "server", Items: []dto.KvDto{
				{Key: "host", Value: "localhost"},
				{Key: "port", Value: "8080"},
			}},
			{Name: "cache", Items: []dto.KvDto{
				{Key: "ttl", Value: "300"},
			}},
		},
	}

	out := filepath.Join(t.TempDir(), "snapshot.xlsx")
	exporter := &SnapshotExporter{}
	if exporter.TypeName() != "excel" {
		t.Errorf("TypeName 错误: %s", exporter.TypeName())
	}
	if err := exporter.WriteSnapshot(snap, out); err != nil {
		t.Fatalf("导出失败: %v", err)
	}

	// 回读校验
	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("打开导出文件失败: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	// 表头 + 3 个配置项
	if len(rows) != 4 {
		t.Fatalf("期望 4 行, 实际 %d", len(rows))
	}
	if rows[0][0] != "section" || rows[0][1] != "key" || rows[0][2] != "value" {
		t.Errorf("表头错误: %v", rows[0])
	}
	if rows[1][0] != "server" || rows[1][1] != "host" || rows[1][2] != "localhost" {
		t.Errorf("第一行数据错误: %v", rows[1])
	}
	if rows[3][0] != "cache" || rows[3][1] != "ttl" || rows[3][2] != "300" {
		t.Errorf("最后一行数据错误: %v", rows[3])
	}
}

func TestSnapshotExporter_EmptySnapshot(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.xlsx")
	exporter := &SnapshotExporter{}
	if err := exporter.WriteSnapshot(&dto.SnapshotDto{}, out); err != nil {
		t.Fatalf("空快照导出失败: %v", err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("空快照应只有表头行, 实际 %d 行", len(rows))
	}
}
