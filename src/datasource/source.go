package datasource

import (
	"AgroStats/src/config"
	"AgroStats/src/datasource/file"
	"AgroStats/src/datasource/remote"
	"AgroStats/src/processor"
	"AgroStats/src/utils"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnsupportedSource 无法根据配置确定数据源类型
var ErrUnsupportedSource = errors.New("不支持的数据源")

var (
	jsonExts  = []string{".json"}
	excelExts = []string{".xlsx", ".xlsm"}
)

// New 根据配置创建数据源：优先使用 source.url，否则按 source.path 的扩展名选择
func New(cfg *config.Config) (processor.Source, error) {
	src := cfg.Source
	if src.URL != "" {
		return remote.NewHTTPSource(src.URL, src.Charset, time.Duration(src.Timeout)), nil
	}
	if src.Path == "" {
		return nil, fmt.Errorf("%w: 未配置 source.path 或 source.url", ErrUnsupportedSource)
	}

	ext := strings.ToLower(filepath.Ext(src.Path))
	switch {
	case utils.Contains(jsonExts, ext):
		return file.NewJSONSource(src.Path, src.Charset), nil
	case utils.Contains(excelExts, ext):
		return file.NewXLSXSource(src.Path, src.Sheet), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, src.Path)
	}
}
