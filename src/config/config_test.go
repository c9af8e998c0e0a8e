package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.json", `{
		"source": {"path": "data/Manufac_India_Agro_Dataset.json", "timeout": "5s"},
		"refresh": {"interval": "10m", "watch": true},
		"log_level": "debug"
	}`)
	writeFile(t, dir, "dataconfig.json", `{"fields": {"crop": "Crop"}}`)

	cfg, dcfg, err := Load(dir, "config.json", "dataconfig.json")
	require.NoError(t, err)

	assert.Equal(t, "data/Manufac_India_Agro_Dataset.json", cfg.Source.Path)
	assert.Equal(t, Duration(5*time.Second), cfg.Source.Timeout)
	assert.Equal(t, Duration(10*time.Minute), cfg.Refresh.Interval)
	assert.True(t, cfg.Refresh.Watch)
	assert.Equal(t, "utf-8", cfg.Source.Charset)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "app.log", cfg.LogName)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join("", "agro_report.xlsx"), cfg.ExportPath())

	assert.Equal(t, "Crop", dcfg.GetField(FieldCrop))
	assert.Equal(t, "Year", dcfg.GetField(FieldYear))
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "source:\n  url: http://localhost/data.json\n  timeout: 2s\nserver:\n  addr: \":9090\"\n")

	cfg, dcfg, err := Load(dir, "config.yaml", "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost/data.json", cfg.Source.URL)
	assert.Equal(t, Duration(2*time.Second), cfg.Source.Timeout)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, DefaultFields, dcfg.Fields)
}

func TestLoadMissingDataConfigUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.json", `{"source": {"path": "a.json"}}`)

	_, dcfg, err := Load(dir, "config.json", "dataconfig.json")
	require.NoError(t, err)
	assert.Equal(t, "Crop Name", dcfg.GetField(FieldCrop))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		data    string
		wantErr string
	}{
		{
			name:    "no source",
			config:  `{}`,
			wantErr: "配置校验失败",
		},
		{
			name:    "both path and url",
			config:  `{"source": {"path": "a.json", "url": "http://x/a.json"}}`,
			wantErr: "配置校验失败",
		},
		{
			name:    "unknown charset",
			config:  `{"source": {"path": "a.json", "charset": "latin1"}}`,
			wantErr: "配置校验失败",
		},
		{
			name:    "bad duration",
			config:  `{"source": {"path": "a.json", "timeout": "soon"}}`,
			wantErr: "解析Config失败",
		},
		{
			name:    "bad data config",
			config:  `{"source": {"path": "a.json"}}`,
			data:    `{"fields": [}`,
			wantErr: "解析DataConfig失败",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "config.json", tt.config)
			if tt.data != "" {
				writeFile(t, dir, "dataconfig.json", tt.data)
			}

			_, _, err := Load(dir, "config.json", "dataconfig.json")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingConfig(t *testing.T) {
	_, _, err := Load(t.TempDir(), "config.json", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDataConfigFields(t *testing.T) {
	var nilCfg *DataConfig
	assert.Equal(t, "Country", nilCfg.GetField(FieldCountry))

	dc := &DataConfig{}
	dc.SetField(FieldArea, "Area")
	assert.Equal(t, "Area", dc.GetField(FieldArea))
	assert.Equal(t, DefaultFields[FieldYield], dc.GetField(FieldYield))
}

func TestDurationJSON(t *testing.T) {
	d := Duration(90 * time.Second)
	b, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(b))

	var back Duration
	require.NoError(t, back.UnmarshalJSON(b))
	assert.Equal(t, d, back)
}
