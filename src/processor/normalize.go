package processor

import (
	"AgroStats/src/config"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Number 匹配字符串开头的十进制浮点数，多余的后缀忽略
const Number string = `^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?`

var numberPrefix = regexp.MustCompile(Number)

// Normalize 将原始行转换为 CropRecord，顺序和数量与输入一一对应。
// fields 为 nil 时使用默认列名。该函数不会失败：
// 文本字段原样保留(缺失为空串)，数值字段无法解析时为0。
func Normalize(rows []RawRecord, fields *config.DataConfig) []CropRecord {
	var (
		countryCol    = fields.GetField(config.FieldCountry)
		yearCol       = fields.GetField(config.FieldYear)
		cropCol       = fields.GetField(config.FieldCrop)
		productionCol = fields.GetField(config.FieldProduction)
		yieldCol      = fields.GetField(config.FieldYield)
		areaCol       = fields.GetField(config.FieldArea)
	)

	records := make([]CropRecord, len(rows))
	for i, row := range rows {
		records[i] = CropRecord{
			Country:    textValue(row[countryCol]),
			Year:       textValue(row[yearCol]),
			Crop:       textValue(row[cropCol]),
			Production: numberValue(row[productionCol]),
			Yield:      numberValue(row[yieldCol]),
			Area:       numberValue(row[areaCol]),
		}
	}
	return records
}

// textValue 文本字段不做裁剪和校验；数字按数值转成字符串，2020.0 与 2020 归为同一组
func textValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		f, err := strconv.ParseFloat(val.String(), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return val.String()
		}
		return numberString(f)
	case float64:
		return numberString(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func numberValue(v any) float64 {
	switch val := v.(type) {
	case string:
		return parseNumber(val)
	case json.Number:
		return parseNumber(val.String())
	case float64:
		return finite(val)
	case float32:
		return finite(float64(val))
	case int:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return 0
	}
}

// parseNumber 跳过前导空白(含BOM)后取最长的数字前缀，"12.5 t" 得到 12.5
func parseNumber(s string) float64 {
	s = strings.TrimLeftFunc(s, isLeadingSpace)
	m := numberPrefix.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func isLeadingSpace(r rune) bool {
	return r == '\ufeff' || (r != '\u0085' && unicode.IsSpace(r))
}

// numberString 数值的最短十进制写法：整数不带小数点，
// 绝对值小于1e-6或不小于1e21时用 1e+21 / 1e-7 形式
func numberString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	if abs := math.Abs(f); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	digits := strings.TrimLeft(exp[1:], "0")
	return mant + "e" + exp[:1] + digits
}
