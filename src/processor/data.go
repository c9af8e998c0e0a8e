// data.go
package processor

import (
	"sync"
	"time"
)

// ReportWrapper 封装最近一次的统计结果并提供线程安全访问
type ReportWrapper struct {
	report    *Report      // 最近一次成功的结果
	updatedAt time.Time    // 更新时间
	mu        sync.RWMutex // 读写锁保证线程安全
}

// GetReport 获取当前结果(线程安全)，尚未成功运行时返回nil
func (w *ReportWrapper) GetReport() *Report {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.report
}

// SetReport 替换当前结果(线程安全)
func (w *ReportWrapper) SetReport(r *Report) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.report = r
	w.updatedAt = time.Now()
}

// UpdatedAt 最近一次替换结果的时间
func (w *ReportWrapper) UpdatedAt() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.updatedAt
}
