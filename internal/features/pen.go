package features

import (
	"fmt"
	"os"

	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/consts"
	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/types"
	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/utils"
)

// 仮想ペンの座標・筆圧の範囲
const (
	penAxisMax     = 4096
	penPressureMax = 8191
)

// CreatePen は絶対座標と筆圧を持つ仮想ペンデバイスを作成する
// penKeysにはペンサイドボタンに割り当てるキーコードを渡す
func CreatePen(path string, name []byte, penKeys []uint16) (VirtualDevice, error) {
	deviceFile, err := createPen(path, name, penKeys)
	if err != nil {
		return nil, err
	}

	return &virtualDevice{name: name, deviceFile: deviceFile}, nil
}

func createPen(path string, name []byte, penKeys []uint16) (*os.File, error) {
	deviceFile, err := createDeviceFile(path)
	if err != nil {
		return nil, fmt.Errorf("仮想ペンのデバイスファイル作成に失敗しました: %v", err)
	}

	// キー入力イベント(EV_KEY)を登録する
	// ペンサイドボタンや接触検出のために必要になる
	err = registerDevice(deviceFile, uintptr(consts.Key))
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("キー入力イベント(EV_KEY)の登録に失敗しました: %v", err)
	}

	// ペンとして固定で持つキーと、設定されたサイドボタンキーを登録する
	keys := []uint16{
		consts.BtnToolPen, // ペンツールの検出
		consts.BtnTouch,   // ペン先の接触検出
		consts.BtnLeft,    // ポインター主ボタン
		consts.BtnRight,   // ポインター副ボタン
	}
	keys = append(keys, penKeys...)
	if err := registerKeys(deviceFile, keys); err != nil {
		_ = deviceFile.Close()
		return nil, err
	}

	// 絶対座標入力イベント(EV_ABS)を登録する
	err = registerDevice(deviceFile, uintptr(consts.Abs))
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("絶対座標入力イベント(EV_ABS)の登録に失敗しました: %v", err)
	}

	// X軸、Y軸、筆圧の各軸を登録する
	for _, ev := range []int{consts.AbsX, consts.AbsY, consts.AbsPressure} {
		if err = utils.IOCtl(deviceFile, consts.SetAbsBit, uintptr(ev)); err != nil {
			_ = deviceFile.Close()
			return nil, fmt.Errorf("座標軸の登録に失敗しました %v: %v", ev, err)
		}
	}

	var absMin [consts.AbsSize]int32
	var absMax [consts.AbsSize]int32

	absMin[consts.AbsX] = 0
	absMax[consts.AbsX] = penAxisMax
	absMin[consts.AbsY] = 0
	absMax[consts.AbsY] = penAxisMax
	absMin[consts.AbsPressure] = 0
	absMax[consts.AbsPressure] = penPressureMax

	userDev := types.UserDev{
		Name: toUinputName(name),
		ID: types.InputID{
			Bustype: consts.BusUsb,
			Vendor:  0x08F2,
			Product: 0x6811,
			Version: 1,
		},
		Absmin: absMin,
		Absmax: absMax,
	}

	fd, err := createUinputDevice(deviceFile, userDev)
	if err != nil {
		return nil, fmt.Errorf("仮想ペンデバイスの作成に失敗しました: %v", err)
	}

	return fd, nil
}
