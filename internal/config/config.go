package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/consts"
)

// Config はアプリケーション全体の設定を表す構造体
type Config struct {
	Device  DeviceConfig  `toml:"device"`
	Pen     PenConfig     `toml:"pen"`
	Buttons ButtonsConfig `toml:"buttons"`
}

// DeviceConfig は物理タブレットの検出設定
type DeviceConfig struct {
	VendorID        uint16 `toml:"vendor_id"`
	ProductID       uint16 `toml:"product_id"`
	PreferredDevice string `toml:"preferred_device"` // 指定するとスキャンせずこのパスを使う
}

// PenConfig はペン動作の設定
type PenConfig struct {
	MouseAreaScale float32 `toml:"mouse_area_scale"` // マウスエリアの初期スケール（0.1〜0.4）
	MouseMode      bool    `toml:"mouse_mode"`       // 起動時にマウスモードにするか
}

// ButtonsConfig はボタンマップの設定
// キーはボタンID（タブレット）またはペンボタンの生コードを10進文字列にしたもの
type ButtonsConfig struct {
	Tablet map[string][]int `toml:"tablet"`
	Pen    map[string][]int `toml:"pen"`
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			VendorID:  0x08F2,
			ProductID: 0x6811,
		},
		Pen: PenConfig{
			MouseAreaScale: 0.3,
			MouseMode:      true,
		},
		Buttons: ButtonsConfig{
			// ボタン6、12、13はエリア縮小・モード切替・エリア拡大として
			// ディスパッチャーが直接処理するため、キーは割り当てない
			Tablet: map[string][]int{
				"0": {consts.KeyTab},
				"1": {consts.KeySpace},
				"2": {consts.KeyLeftAlt},
				"3": {consts.KeyLeftCtrl},
				"4": {consts.KeyPageUp},
				"5": {consts.KeyPageDown},
				"7": {consts.KeyLeftCtrl, consts.KeyKpMinus},
				"8": {consts.KeyLeftCtrl, consts.KeyKpPlus},
				"9": {consts.KeyEsc},
			},
			Pen: map[string][]int{
				"4": {consts.BtnStylus},
				"6": {consts.BtnStylus2},
			},
		},
	}
}

// GetDefaultConfigDir はデフォルトの設定ディレクトリを返す
func GetDefaultConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "vinsa-tablet"), nil
}

// LoadConfig は設定ファイルから設定を読み込む
func LoadConfig(configPath string) (*Config, error) {
	// デフォルト設定を用意
	config := DefaultConfig()

	// ファイルが存在しない場合はデフォルト設定を保存して返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveConfig(configPath, config); err != nil {
			return config, err
		}
		return config, nil
	}

	// 設定ファイルの読み込み
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return config, err
	}

	// マウスエリアスケールは許容範囲に収める
	if config.Pen.MouseAreaScale < 0.1 {
		config.Pen.MouseAreaScale = 0.1
	}
	if config.Pen.MouseAreaScale > 0.4 {
		config.Pen.MouseAreaScale = 0.4
	}

	return config, nil
}

// SaveConfig は設定をTOMLファイルに保存する
func SaveConfig(configPath string, config *Config) error {
	// 設定ディレクトリの作成
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	// ファイルを開く（なければ作成）
	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	// TOML形式でエンコードして書き込み
	encoder := toml.NewEncoder(f)
	return encoder.Encode(config)
}

// TabletButtonCodes はタブレットボタンマップをディスパッチャー用の形式に変換する
func (c *Config) TabletButtonCodes() (map[int][]uint16, error) {
	return buttonCodes(c.Buttons.Tablet)
}

// PenButtonCodes はペンボタンマップをディスパッチャー用の形式に変換する
func (c *Config) PenButtonCodes() (map[int][]uint16, error) {
	return buttonCodes(c.Buttons.Pen)
}

func buttonCodes(m map[string][]int) (map[int][]uint16, error) {
	codes := make(map[int][]uint16, len(m))
	for idStr, keys := range m {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, fmt.Errorf("ボタンIDの解析に失敗しました[id=%s]: %w", idStr, err)
		}
		keyCodes := make([]uint16, 0, len(keys))
		for _, key := range keys {
			if key < 0 || key > 0xFFFF {
				return nil, fmt.Errorf("キーコードが範囲外です[id=%s, key=%d]", idStr, key)
			}
			keyCodes = append(keyCodes, uint16(key))
		}
		codes[id] = keyCodes
	}
	return codes, nil
}
