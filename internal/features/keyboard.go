package features

import (
	"fmt"
	"os"

	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/consts"
	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/types"
)

// CreateVirtualKeyboard はタブレットボタン用の仮想キーボードデバイスを作成する
// keysにはボタンマップに現れるすべてのキーコードを渡す
func CreateVirtualKeyboard(path string, name []byte, keys []uint16) (VirtualDevice, error) {
	deviceFile, err := createVirtualKeyboard(path, name, keys)
	if err != nil {
		return nil, err
	}

	return &virtualDevice{name: name, deviceFile: deviceFile}, nil
}

func createVirtualKeyboard(path string, name []byte, keys []uint16) (*os.File, error) {
	deviceFile, err := createDeviceFile(path)
	if err != nil {
		return nil, fmt.Errorf("仮想キーボードのデバイスファイル作成に失敗しました: %v", err)
	}

	// キー入力イベント(EV_KEY)を登録する
	err = registerDevice(deviceFile, uintptr(consts.Key))
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("キー入力イベント(EV_KEY)の登録に失敗しました: %v", err)
	}

	if err := registerKeys(deviceFile, keys); err != nil {
		_ = deviceFile.Close()
		return nil, err
	}

	userDev := types.UserDev{
		Name: toUinputName(name),
		ID: types.InputID{
			Bustype: consts.BusUsb,
			Vendor:  0x08F2,
			Product: 0x6811,
			Version: 1,
		},
	}

	fd, err := createUinputDevice(deviceFile, userDev)
	if err != nil {
		return nil, fmt.Errorf("仮想キーボードデバイスの作成に失敗しました: %v", err)
	}

	return fd, nil
}
