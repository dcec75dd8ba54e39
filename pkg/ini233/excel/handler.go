package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/neko233-com/ini233-go/pkg/ini233/dto"
)

// SnapshotExporter Excel 快照导出器
// 把一份配置快照写成 .xlsx 文件，方便运维直接查看当前生效配置
// 格式：单个工作表，第 1 行为表头 section / key / value，
// 之后每行一个配置项，按 section 和文件内顺序排列
type SnapshotExporter struct{}

// TypeName 返回导出器类型名
// 返回值:
//
//	string: "excel"
func (e *SnapshotExporter) TypeName() string {
	return "excel"
}

// sheetName 导出使用的工作表名
const sheetName = "snapshot"

// WriteSnapshot 把快照写入 xlsx 文件
// 参数:
//
//	snap: 要导出的快照视图
//	path: 输出文件路径
//
// 返回值:
//
//	error: 写入过程中的错误
func (e *SnapshotExporter) WriteSnapshot(snap *dto.SnapshotDto, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	// 表头
	headers := []string{"section", "key", "value"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	// 数据行
	row := 2
	for _, sec := range snap.Sections {
		for _, kv := range sec.Items {
			values := []string{sec.Name, kv.Key, kv.Value}
			for col, v := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheetName, cell, v); err != nil {
					return err
				}
			}
			row++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("保存 xlsx 失败: %w", err)
	}
	return nil
}
