package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/consts"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, uint16(0x08F2), cfg.Device.VendorID)
	assert.Equal(t, uint16(0x6811), cfg.Device.ProductID)
	assert.InDelta(t, 0.3, cfg.Pen.MouseAreaScale, 1e-6)
	assert.True(t, cfg.Pen.MouseMode)

	assert.Equal(t, []int{consts.KeyTab}, cfg.Buttons.Tablet["0"])
	assert.Equal(t, []int{consts.KeyLeftCtrl, consts.KeyKpMinus}, cfg.Buttons.Tablet["7"])

	// エリア縮小・モード切替・エリア拡大のボタンにはキーを割り当てない
	for _, id := range []string{"6", "12", "13"} {
		assert.NotContains(t, cfg.Buttons.Tablet, id)
	}

	assert.Equal(t, []int{consts.BtnStylus}, cfg.Buttons.Pen["4"])
	assert.Equal(t, []int{consts.BtnStylus2}, cfg.Buttons.Pen["6"])
}

func TestLoadConfigWritesDefaultWhenMissing(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	// デフォルト設定ファイルが作成されている
	_, err = os.Stat(configPath)
	assert.NoError(t, err)
}

func TestSaveAndLoadConfigRoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	original := DefaultConfig()
	original.Pen.MouseAreaScale = 0.25
	original.Pen.MouseMode = false
	original.Device.PreferredDevice = "/dev/hidraw3"
	original.Buttons.Tablet["9"] = []int{consts.KeySpace}

	require.NoError(t, SaveConfig(configPath, original))

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestLoadConfigClampsMouseAreaScale(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Pen.MouseAreaScale = 0.05
	require.NoError(t, SaveConfig(configPath, cfg))

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, loaded.Pen.MouseAreaScale, 1e-6)

	cfg.Pen.MouseAreaScale = 0.9
	require.NoError(t, SaveConfig(configPath, cfg))

	loaded, err = LoadConfig(configPath)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, loaded.Pen.MouseAreaScale, 1e-6)
}

func TestButtonCodesConversion(t *testing.T) {
	cfg := DefaultConfig()

	tablet, err := cfg.TabletButtonCodes()
	require.NoError(t, err)
	assert.Equal(t, []uint16{consts.KeyTab}, tablet[0])
	assert.Equal(t, []uint16{consts.KeyLeftCtrl, consts.KeyKpMinus}, tablet[7])

	pen, err := cfg.PenButtonCodes()
	require.NoError(t, err)
	assert.Equal(t, []uint16{consts.BtnStylus}, pen[4])
}

func TestButtonCodesRejectsInvalidEntries(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Buttons.Tablet["abc"] = []int{consts.KeyTab}
	_, err := cfg.TabletButtonCodes()
	assert.Error(t, err)

	delete(cfg.Buttons.Tablet, "abc")
	cfg.Buttons.Tablet["0"] = []int{70000}
	_, err = cfg.TabletButtonCodes()
	assert.Error(t, err)
}
