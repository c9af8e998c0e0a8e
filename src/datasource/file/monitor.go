// monitor.go
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor 监听数据集文件的变化。
// 监听的是文件所在目录，编辑器"写临时文件再改名"的保存方式也能触发。
type FileMonitor struct {
	watchFile string
	watcher   *fsnotify.Watcher
	lastMod   time.Time
	mu        sync.Mutex
}

func NewFileMonitor(path string) (*FileMonitor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("监听目录失败: %w", err)
	}

	return &FileMonitor{
		watchFile: abs,
		watcher:   watcher,
	}, nil
}

// Watch 阻塞直到 ctx 结束或监听出错。文件修改时间前进时调用 handler。
func (m *FileMonitor) Watch(ctx context.Context, handler func(string)) error {
	const changed = fsnotify.Write | fsnotify.Create | fsnotify.Rename

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != m.watchFile || event.Op&changed == 0 {
				continue
			}

			info, err := os.Stat(m.watchFile)
			if err != nil {
				continue
			}

			m.mu.Lock()
			fire := info.ModTime().After(m.lastMod)
			if fire {
				m.lastMod = info.ModTime()
			}
			m.mu.Unlock()

			if fire {
				handler(m.watchFile)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}
