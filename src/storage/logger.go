package storage

import (
	"AgroStats/src/config"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LogLevel 定义日志级别类型
type LogLevel int

// 日志级别常量定义
const (
	DEBUG   LogLevel = iota // 调试信息
	INFO                    // 普通信息
	WARNING                 // 警告信息
	ERROR                   // 错误信息
	FATAL                   // 致命错误
)

// Logger 日志记录器结构体
// 格式化交给 charmbracelet/log，输出同时写入日志文件、控制台和订阅者
type Logger struct {
	filename    string        // 日志文件路径
	file        *os.File      // 日志文件句柄
	console     io.Writer     // 可选的控制台输出
	logger      *log.Logger   // 格式化器
	mu          sync.Mutex    // 互斥锁，保证并发安全
	subscribers []chan string // 订阅者通道列表
}

// NewLogger 创建新的日志记录器
// 参数:
//
//	filename: 日志文件路径
//	level: 最低输出级别
//	console: 额外的控制台输出，可为nil
func NewLogger(filename string, level LogLevel, console io.Writer) (*Logger, error) {
	// 打开或创建日志文件，权限设置为0644
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}

	l := &Logger{
		filename: filename,
		file:     file,
		console:  console,
	}
	l.logger = log.NewWithOptions(l, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Level:           level.charm(),
	})
	return l, nil
}

// Write 实现io.Writer，由格式化器调用，每次调用对应一条完整日志
func (l *Logger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		if _, err := l.file.Write(p); err != nil {
			return 0, err
		}
	}
	if l.console != nil {
		_, _ = l.console.Write(p)
	}

	// 通知所有订阅者
	entry := string(p)
	for _, ch := range l.subscribers {
		select {
		case ch <- entry: // 尝试发送日志条目
		default: // 如果通道已满则跳过
		}
	}
	return len(p), nil
}

// Close 关闭日志文件
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Reopen 重新打开日志文件，配合 logrotate 之类的外部工具使用(SIGHUP)
func (l *Logger) Reopen() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		_ = l.file.Close()
	}

	file, err := os.OpenFile(l.filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		l.file = nil
		return err
	}
	l.file = file
	return nil
}

// Log 记录日志方法
// 参数:
//
//	level: 日志级别
//	message: 日志消息内容
//	keyvals: 附加的键值对
func (l *Logger) Log(level LogLevel, message string, keyvals ...any) {
	l.logger.Log(level.charm(), message, keyvals...)
}

// SetLevel 修改最低输出级别
func (l *Logger) SetLevel(level LogLevel) {
	l.logger.SetLevel(level.charm())
}

// CheckRotate 日志文件超过 cfg.LogMaxSize 时进行轮转
func (l *Logger) CheckRotate(cfg *config.Config) error {
	maxSize := eval(cfg.LogMaxSize)
	if maxSize <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil {
		return fmt.Errorf("读取日志文件信息失败: %w", err)
	}
	if info.Size() <= maxSize {
		return nil
	}
	return l.rotateLog()
}

// rotateLog 将当前文件改名为 name.时间戳.ext 并重新创建，调用方需持有锁
func (l *Logger) rotateLog() error {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}

	ext := filepath.Ext(l.filename)
	rotated := fmt.Sprintf("%s.%s%s",
		strings.TrimSuffix(l.filename, ext),
		time.Now().Format("20060102150405"),
		ext)
	if err := os.Rename(l.filename, rotated); err != nil {
		return fmt.Errorf("日志轮转失败: %w", err)
	}

	file, err := os.OpenFile(l.filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("日志轮转失败: %w", err)
	}
	l.file = file
	return nil
}

// Subscribe 订阅日志消息
// 返回值:
//
//	<-chan string: 只读通道，用于接收日志消息
func (l *Logger) Subscribe() <-chan string {
	l.mu.Lock()
	defer l.mu.Unlock()

	// 创建带缓冲的通道(容量100)
	ch := make(chan string, 100)
	l.subscribers = append(l.subscribers, ch)
	return ch
}

// Unsubscribe 取消订阅并关闭通道
func (l *Logger) Unsubscribe(sub <-chan string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, ch := range l.subscribers {
		if ch == sub {
			l.subscribers = append(l.subscribers[:i], l.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// String 实现LogLevel的String方法
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) charm() log.Level {
	switch l {
	case DEBUG:
		return log.DebugLevel
	case WARNING:
		return log.WarnLevel
	case ERROR:
		return log.ErrorLevel
	case FATAL:
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// ParseLevel 解析配置中的日志级别，未知值按INFO处理
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARNING
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// eval 计算 "10 * 1024 * 1024" 形式的大小表达式，非法值返回0
func eval(expr string) int64 {
	parts := strings.Split(expr, "*")
	var result int64 = 1
	for _, part := range parts {
		num, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0
		}
		result *= num
	}
	return result
}

// 以下是快捷日志方法
func (l *Logger) Debug(msg string, keyvals ...any)   { l.Log(DEBUG, msg, keyvals...) }   // 记录调试信息
func (l *Logger) Info(msg string, keyvals ...any)    { l.Log(INFO, msg, keyvals...) }    // 记录普通信息
func (l *Logger) Warning(msg string, keyvals ...any) { l.Log(WARNING, msg, keyvals...) } // 记录警告信息
func (l *Logger) Error(msg string, keyvals ...any)   { l.Log(ERROR, msg, keyvals...) }   // 记录错误信息
func (l *Logger) Fatal(msg string, keyvals ...any)   { l.Log(FATAL, msg, keyvals...) }   // 记录致命错误,不退出进程
