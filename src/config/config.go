package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config 结构体定义了应用程序的配置结构
type Config struct {
	Source struct {
		Path    string   `json:"path" yaml:"path" validate:"required_without=URL,excluded_with=URL"` // 本地数据集路径(.json/.xlsx)
		URL     string   `json:"url" yaml:"url" validate:"omitempty,url"`                           // 远程数据集地址
		Charset string   `json:"charset" yaml:"charset" validate:"omitempty,oneof=utf-8 utf8 gbk"`  // 数据集编码
		Sheet   string   `json:"sheet" yaml:"sheet"`                                                // xlsx 工作表名称，为空时取第一个
		Timeout Duration `json:"timeout" yaml:"timeout"`                                            // 远程拉取超时时间
	} `json:"source" yaml:"source"`

	Server struct {
		Addr string `json:"addr" yaml:"addr"` // Web界面监听地址
	} `json:"server" yaml:"server"`

	Refresh struct {
		Interval Duration `json:"interval" yaml:"interval"` // 定时刷新间隔，0 表示不刷新
		Watch    bool     `json:"watch" yaml:"watch"`       // 本地数据集变化时自动刷新
	} `json:"refresh" yaml:"refresh"`

	Export struct {
		Dir  string `json:"dir" yaml:"dir"`   // 导出目录
		File string `json:"file" yaml:"file"` // 导出文件名
	} `json:"export" yaml:"export"`

	Push struct {
		Webhook string `json:"webhook" yaml:"webhook" validate:"omitempty,url"` // 结果推送地址
		Retry   int    `json:"retry" yaml:"retry" validate:"gte=0,lte=10"`      // 推送失败重试次数
	} `json:"push" yaml:"push"`

	LogName    string `json:"log_name" yaml:"log_name"`
	LogLevel   string `json:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warning error"`
	LogMaxSize string `json:"log_max_size" yaml:"log_max_size"`
}

// DataConfig 描述数据集列名与逻辑字段之间的映射
type DataConfig struct {
	Fields map[string]string `json:"fields" yaml:"fields"`
}

// 逻辑字段名
const (
	FieldCountry    = "country"
	FieldYear       = "year"
	FieldCrop       = "crop"
	FieldProduction = "production"
	FieldYield      = "yield"
	FieldArea       = "area"
)

// DefaultFields 为 Manufac_India_Agro_Dataset.json 的原始列名
var DefaultFields = map[string]string{
	FieldCountry:    "Country",
	FieldYear:       "Year",
	FieldCrop:       "Crop Name",
	FieldProduction: "Crop Production (UOM:t(Tonnes))",
	FieldYield:      "Yield Of Crops (UOM:Kg/Ha(KilogramperHectare))",
	FieldArea:       "Area Under Cultivation (UOM:Ha(Hectares))",
}

var (
	mu       sync.RWMutex
	validate = validator.New()
)

// Load 读取并校验配置文件。dataFile 为空或不存在时使用默认列名映射。
func Load(folder, file, dataFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(folder, file)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var dataConfigData []byte
	dataConfigFile := ""
	if dataFile != "" {
		dataConfigFile = filepath.Join(folder, dataFile)
		dataConfigData, err = readFile(dataConfigFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("读取数据配置文件失败: %w", err)
		}
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configFile, configData, cfgChan, errChan)
	go parseDataConfig(dataConfigFile, dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	cfg.applyDefaults()
	if err := validate.Struct(cfg); err != nil {
		return nil, nil, fmt.Errorf("配置校验失败: %w", err)
	}

	return cfg, dcfg, nil
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

// unmarshal 按扩展名选择 yaml 或 json 解码
func unmarshal(name string, data []byte, v any) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, v)
	default:
		return json.Unmarshal(data, v)
	}
}

func parseConfig(name string, data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := unmarshal(name, data, &cfg); err != nil {
		errChan <- fmt.Errorf("解析Config失败: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(name string, data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	dcfg := NewDataConfig()
	if len(data) == 0 {
		resultChan <- dcfg
		return
	}

	var loaded DataConfig
	if err := unmarshal(name, data, &loaded); err != nil {
		errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
		return
	}
	for k, v := range loaded.Fields {
		if v != "" {
			dcfg.Fields[k] = v
		}
	}
	resultChan <- dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg  *Config
		dcfg *DataConfig
		errs []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, nil, fmt.Errorf("配置加载遇到错误: %w", errors.Join(errs...))
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, dcfg, nil
}

func (c *Config) applyDefaults() {
	if c.Source.Charset == "" {
		c.Source.Charset = "utf-8"
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = Duration(30 * time.Second)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Export.File == "" {
		c.Export.File = "agro_report.xlsx"
	}
	if c.LogName == "" {
		c.LogName = "app.log"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSize == "" {
		c.LogMaxSize = "10 * 1024 * 1024"
	}
}

// ExportPath 导出文件的完整路径
func (c *Config) ExportPath() string {
	return filepath.Join(c.Export.Dir, c.Export.File)
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON/YAML中的 "5m" 这类写法
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.set(s)
}

// MarshalJSON 实现json.Marshaler接口
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalYAML 实现yaml.Unmarshaler接口
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.set(node.Value)
}

func (d *Duration) set(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// NewDataConfig 返回使用默认列名的映射
func NewDataConfig() *DataConfig {
	fields := make(map[string]string, len(DefaultFields))
	for k, v := range DefaultFields {
		fields[k] = v
	}
	return &DataConfig{Fields: fields}
}

// GetField 返回逻辑字段对应的数据集列名
func (dc *DataConfig) GetField(name string) string {
	if dc == nil {
		return DefaultFields[name]
	}
	mu.RLock()
	defer mu.RUnlock()
	if col, ok := dc.Fields[name]; ok && col != "" {
		return col
	}
	return DefaultFields[name]
}

func (dc *DataConfig) SetField(name, column string) {
	mu.Lock()
	defer mu.Unlock()
	if dc.Fields == nil {
		dc.Fields = make(map[string]string)
	}
	dc.Fields[name] = column
}
