package file

import (
	"AgroStats/src/processor"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const dataset = `[
  {"Country": "India", "Year": "Financial Year (Apr - Mar), 1950", "Crop Name": "Rice",
   "Crop Production (UOM:t(Tonnes))": 20580000,
   "Yield Of Crops (UOM:Kg/Ha(KilogramperHectare))": 0.668,
   "Area Under Cultivation (UOM:Ha(Hectares))": 30810000},
  {"Country": "India", "Year": "Financial Year (Apr - Mar), 1950", "Crop Name": "Wheat",
   "Crop Production (UOM:t(Tonnes))": "",
   "Yield Of Crops (UOM:Kg/Ha(KilogramperHectare))": "",
   "Area Under Cultivation (UOM:Ha(Hectares))": ""}
]`

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestJSONSourceFetch(t *testing.T) {
	path := writeTemp(t, "Manufac_India_Agro_Dataset.json", []byte("\ufeff"+dataset))
	src := NewJSONSource(path, "utf-8")

	rows, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Rice", rows[0]["Crop Name"])
	assert.Equal(t, json.Number("0.668"), rows[0]["Yield Of Crops (UOM:Kg/Ha(KilogramperHectare))"])
	assert.Equal(t, path, src.String())

	records := processor.Normalize(rows, nil)
	assert.Equal(t, 20580000.0, records[0].Production)
	assert.Equal(t, 0.0, records[1].Production)
}

func TestJSONSourceGBK(t *testing.T) {
	encoded, err := simplifiedchinese.GBK.NewEncoder().String(`[{"Crop Name": "水稻", "Year": "2020"}]`)
	require.NoError(t, err)
	path := writeTemp(t, "gbk.json", []byte(encoded))

	rows, err := NewJSONSource(path, "gbk").Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "水稻", rows[0]["Crop Name"])
}

func TestJSONSourceErrors(t *testing.T) {
	_, err := NewJSONSource(filepath.Join(t.TempDir(), "missing.json"), "").Fetch(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := writeTemp(t, "bad.json", []byte(`{"not": "an array"}`))
	_, err = NewJSONSource(bad, "").Fetch(context.Background())
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewJSONSource(bad, "").Fetch(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func writeXLSX(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "dataset.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestXLSXSourceFetch(t *testing.T) {
	path := writeXLSX(t, "Agro", [][]any{
		{"Country", "Year", "Crop Name", "Crop Production (UOM:t(Tonnes))"},
		{"India", "2020", "Rice", 100},
		{"India", "2020", "Wheat", "50"},
		{"India", "2021"},
	})

	rows, err := NewXLSXSource(path, "Agro").Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Rice", rows[0]["Crop Name"])
	assert.Equal(t, "100", rows[0]["Crop Production (UOM:t(Tonnes))"])
	assert.Equal(t, "", rows[2]["Crop Name"])

	records := processor.Normalize(rows, nil)
	assert.Equal(t, []processor.YearExtremum{
		{Year: "2020", MaxCrop: "Rice", MinCrop: "Wheat"},
		{Year: "2021", MaxCrop: "", MinCrop: ""},
	}, processor.YearlyExtrema(records))
}

func TestXLSXSourceDefaultSheet(t *testing.T) {
	path := writeXLSX(t, "Data", [][]any{
		{"Year", "Crop Name"},
		{"1999", "Jute"},
	})

	rows, err := NewXLSXSource(path, "").Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jute", rows[0]["Crop Name"])
}

func TestXLSXSourceHeaderOnly(t *testing.T) {
	path := writeXLSX(t, "Data", [][]any{{"Year", "Crop Name"}})

	rows, err := NewXLSXSource(path, "").Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestXLSXSourceErrors(t *testing.T) {
	path := writeXLSX(t, "Data", [][]any{{"Year"}, {"2020"}})

	_, err := NewXLSXSource(path, "Missing").Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing")

	_, err = NewXLSXSource(filepath.Join(t.TempDir(), "none.xlsx"), "").Fetch(context.Background())
	require.Error(t, err)
}

func TestFileMonitorWatch(t *testing.T) {
	path := writeTemp(t, "dataset.json", []byte(`[]`))
	other := filepath.Join(filepath.Dir(path), "other.json")

	monitor, err := NewFileMonitor(path)
	require.NoError(t, err)
	defer monitor.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 10)
	done := make(chan error, 1)
	go func() {
		done <- monitor.Watch(ctx, func(name string) { changed <- name })
	}()

	require.NoError(t, os.WriteFile(other, []byte(`[]`), 0644))
	require.NoError(t, os.WriteFile(path, []byte(`[{"Year": "2020"}]`), 0644))

	select {
	case name := <-changed:
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, name)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification for dataset file")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
