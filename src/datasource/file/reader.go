// reader.go
package file

import (
	"AgroStats/src/processor"
	"AgroStats/src/utils"
	"context"
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
)

// JSONSource 从本地JSON文件读取数据集
type JSONSource struct {
	Path    string
	Charset string
}

func NewJSONSource(path, charset string) *JSONSource {
	return &JSONSource{Path: path, Charset: charset}
}

func (s *JSONSource) String() string { return s.Path }

// Fetch 读取并解析整个文件
func (s *JSONSource) Fetch(ctx context.Context) ([]processor.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open json file: %w", err)
	}
	defer f.Close()

	r, err := utils.NewCharsetReader(f, s.Charset)
	if err != nil {
		return nil, err
	}
	return processor.DecodeRawRecords(r)
}

// XLSXSource 从Excel文件读取数据集，第一行为列名
type XLSXSource struct {
	Path      string
	SheetName string
}

func NewXLSXSource(path, sheetName string) *XLSXSource {
	return &XLSXSource{Path: path, SheetName: sheetName}
}

func (s *XLSXSource) String() string { return s.Path }

// Fetch 单元格一律按字符串读取，数值转换交给 processor.Normalize
func (s *XLSXSource) Fetch(ctx context.Context) ([]processor.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	df, err := ReadXLSX(s.Path, s.SheetName)
	if err != nil {
		return nil, err
	}

	maps := df.Maps()
	rows := make([]processor.RawRecord, len(maps))
	for i, m := range maps {
		rows[i] = processor.RawRecord(m)
	}
	return rows, nil
}

// ReadXLSX 读取工作表并转换为DataFrame，sheetName 为空时取第一个工作表
func ReadXLSX(filePath, sheetName string) (dataframe.DataFrame, error) {
	// 1. 使用tealeg/xlsx打开Excel文件
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open xlsx file: %w", err)
	}

	// 2. 获取工作表
	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("excel文件中没有工作表: %s", filePath)
	}
	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		var ok bool
		if sheet, ok = xlFile.Sheet[sheetName]; !ok {
			return dataframe.DataFrame{}, fmt.Errorf("工作表 %s 不存在: %s", sheetName, filePath)
		}
	}

	// 3. 转换为Gota DataFrame
	return convertSheetToDataFrame(sheet)
}

// convertSheetToDataFrame 将xlsx.Sheet转换为dataframe.DataFrame
func convertSheetToDataFrame(sheet *xlsx.Sheet) (dataframe.DataFrame, error) {
	if len(sheet.Rows) == 0 {
		return dataframe.DataFrame{}, nil
	}

	// 获取列名(第一行是标题行)
	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, cell.Value)
	}
	if len(headers) == 0 {
		return dataframe.DataFrame{}, nil
	}

	// 准备数据列
	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, 0, len(sheet.Rows)-1)
	}

	// 填充数据(从第二行开始)，短行补空串，保证各列等长
	for _, row := range sheet.Rows[1:] {
		if row == nil {
			continue
		}
		for i := range headers {
			value := ""
			if i < len(row.Cells) && row.Cells[i] != nil {
				value = row.Cells[i].Value
			}
			columns[i] = append(columns[i], value)
		}
	}

	seriesList := make([]series.Series, len(headers))
	for i, colName := range headers {
		seriesList[i] = series.New(columns[i], series.String, colName)
	}

	df := dataframe.New(seriesList...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("转换为dataframe失败: %w", df.Err)
	}
	return df, nil
}
