package processor

import (
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// AvgPlaces 平均值保留的小数位数
const AvgPlaces = 3

type cropStats struct {
	totalYield float64
	totalArea  float64
	count      int
}

// CropAverages 按作物分组计算平均单产和平均种植面积。
// 输出顺序为作物首次出现的顺序。
func CropAverages(records []CropRecord) []CropAverage {
	stats := make(map[string]*cropStats)
	crops := make([]string, 0)

	for _, r := range records {
		s, ok := stats[r.Crop]
		if !ok {
			s = &cropStats{}
			stats[r.Crop] = s
			crops = append(crops, r.Crop)
		}
		s.totalYield += r.Yield
		s.totalArea += r.Area
		s.count++
	}

	result := make([]CropAverage, 0, len(crops))
	for _, crop := range crops {
		s := stats[crop]
		n := float64(s.count)
		result = append(result, CropAverage{
			Crop:     crop,
			AvgYield: formatFixed(s.totalYield/n, AvgPlaces),
			AvgArea:  formatFixed(s.totalArea/n, AvgPlaces),
		})
	}
	return result
}

// formatFixed 按 float64 的精确值四舍五入(0.5 远离零)到 places 位小数。
// 负数舍入为零时保留符号("-0.000")；非有限值和绝对值不小于1e21的数按 numberString 输出。
func formatFixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= 1e21 {
		return numberString(v)
	}

	r := new(big.Rat).SetFloat64(v)
	num := decimal.NewFromBigInt(r.Num(), 0)
	den := decimal.NewFromBigInt(r.Denom(), 0)
	s := num.DivRound(den, places).StringFixed(places)
	if v < 0 && !strings.HasPrefix(s, "-") {
		s = "-" + s
	}
	return s
}
