package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// NewCharsetReader 按数据集编码包装 r，utf-8 时去掉可能存在的BOM
func NewCharsetReader(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case "gbk":
		return transform.NewReader(r, simplifiedchinese.GBK.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("不支持的编码: %s", charset)
	}
}

// Sheet 导出到Excel的一个工作表
type Sheet struct {
	Name  string
	Frame dataframe.DataFrame
}

// SaveToExcel 将多个DataFrame分别写入同一个工作簿的不同工作表
func SaveToExcel(filePath string, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("没有需要导出的数据")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if sheet.Frame.Err != nil {
			return fmt.Errorf("工作表 %s 数据无效: %w", sheet.Name, sheet.Frame.Err)
		}

		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return fmt.Errorf("设置工作表名称失败: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("创建工作表失败: %w", err)
		}

		// 写入列名和数据，Records() 第一行就是列名
		for rowIdx, row := range sheet.Frame.Records() {
			cell, err := excelize.CoordinatesToCellName(1, rowIdx+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
				return fmt.Errorf("写入工作表 %s 失败: %w", sheet.Name, err)
			}
		}
	}

	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败: %w", err)
		}
	}

	// 保存文件
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}
