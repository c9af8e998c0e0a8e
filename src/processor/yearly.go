package processor

type yearStats struct {
	maxCrop       string
	maxProduction float64
	minCrop       string
	minProduction float64
}

// YearlyExtrema 按年份分组，找出每年产量最高和最低的作物。
// 输出顺序为年份首次出现的顺序；产量相同时保留先出现的作物。
func YearlyExtrema(records []CropRecord) []YearExtremum {
	stats := make(map[string]*yearStats)
	years := make([]string, 0)

	for _, r := range records {
		s, ok := stats[r.Year]
		if !ok {
			stats[r.Year] = &yearStats{
				maxCrop:       r.Crop,
				maxProduction: r.Production,
				minCrop:       r.Crop,
				minProduction: r.Production,
			}
			years = append(years, r.Year)
			continue
		}

		if r.Production > s.maxProduction {
			s.maxCrop = r.Crop
			s.maxProduction = r.Production
		}
		if r.Production < s.minProduction {
			s.minCrop = r.Crop
			s.minProduction = r.Production
		}
	}

	result := make([]YearExtremum, 0, len(years))
	for _, year := range years {
		s := stats[year]
		result = append(result, YearExtremum{
			Year:    year,
			MaxCrop: s.maxCrop,
			MinCrop: s.minCrop,
		})
	}
	return result
}
