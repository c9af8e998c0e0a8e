package processor

import "context"

// RawRecord 数据集中的一行原始数据，键为列名，值可能是字符串、数字、null或缺失
type RawRecord map[string]any

// CropRecord 规范化后的记录，数值字段保证是有限数
type CropRecord struct {
	Country    string
	Year       string
	Crop       string
	Production float64
	Yield      float64
	Area       float64
}

// YearExtremum 某一年产量最高和最低的作物
type YearExtremum struct {
	Year    string `json:"year"`
	MaxCrop string `json:"maxCrop"`
	MinCrop string `json:"minCrop"`
}

// CropAverage 某一作物的平均单产和平均种植面积，保留三位小数
type CropAverage struct {
	Crop     string `json:"crop"`
	AvgYield string `json:"avgYield"`
	AvgArea  string `json:"avgArea"`
}

// Source 原始数据来源(本地文件、远程地址等)
type Source interface {
	Fetch(ctx context.Context) ([]RawRecord, error)
	String() string
}
