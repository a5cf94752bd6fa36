package features

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/consts"
	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/types"
	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/utils"
)

// VirtualDevice はイベント注入が可能な仮想入力デバイスを表すインターフェース
type VirtualDevice interface {
	// キーイベントを1件送出する
	EmitKey(code uint16, value int32) error
	// 絶対座標イベントを1件送出する
	EmitAbs(code uint16, value int32) error
	// 同期イベントを送出する
	Sync() error
	io.Closer
}

type virtualDevice struct {
	name       []byte
	deviceFile *os.File
}

func (vd *virtualDevice) EmitKey(code uint16, value int32) error {
	return writeEvents(vd.deviceFile, []types.Event{
		{Type: consts.Key, Code: code, Value: value},
	})
}

func (vd *virtualDevice) EmitAbs(code uint16, value int32) error {
	return writeEvents(vd.deviceFile, []types.Event{
		{Type: consts.Abs, Code: code, Value: value},
	})
}

func (vd *virtualDevice) Sync() error {
	return writeEvents(vd.deviceFile, []types.Event{
		{Type: consts.Syn, Code: consts.SynReport, Value: 0},
	})
}

func (vd *virtualDevice) Close() error {
	_ = releaseDevice(vd.deviceFile)
	return vd.deviceFile.Close()
}

// デバイスファイルを作成する
func createDeviceFile(path string) (fd *os.File, err error) {
	deviceFile, err := os.OpenFile(path, syscall.O_WRONLY|syscall.O_NONBLOCK, 0660)
	if err != nil {
		return nil, errors.New("デバイスファイルを開くのに失敗しました")
	}
	return deviceFile, err
}

// デバイスを解放する
func releaseDevice(deviceFile *os.File) error {
	return utils.IOCtl(deviceFile, consts.DevDestroy, uintptr(0))
}

// イベントタイプを登録する
func registerDevice(deviceFile *os.File, evType uintptr) error {
	err := utils.IOCtl(deviceFile, consts.SetEvBit, evType)
	if err != nil {
		defer deviceFile.Close()
		err = releaseDevice(deviceFile)
		if err != nil {
			return fmt.Errorf("デバイスを解放するのに失敗しました: %v", err)
		}
		return fmt.Errorf("無効なファイルハンドルがutils.IOCtlから返されました: %v", err)
	}
	return nil
}

// キービットをまとめて登録する
func registerKeys(deviceFile *os.File, keys []uint16) error {
	for _, key := range keys {
		if err := utils.IOCtl(deviceFile, consts.SetKeyBit, uintptr(key)); err != nil {
			return fmt.Errorf("キー入力種別の登録に失敗しました %v: %v", key, err)
		}
	}
	return nil
}

// uinputデバイスを作成する
func createUinputDevice(deviceFile *os.File, dev types.UserDev) (fd *os.File, err error) {
	buf := new(bytes.Buffer)
	err = binary.Write(buf, binary.LittleEndian, dev)
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("ユーザーデバイスバッファの書き込みに失敗しました: %v", err)
	}
	_, err = deviceFile.Write(buf.Bytes())
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("デバイス構造体をデバイスファイルに書き込むのに失敗しました: %v", err)
	}

	err = utils.IOCtl(deviceFile, consts.DevCreate, uintptr(0))
	if err != nil {
		_ = deviceFile.Close()
		return nil, fmt.Errorf("デバイスの作成に失敗しました: %v", err)
	}

	return deviceFile, err
}

// イベントを書き込む
func writeEvents(deviceFile *os.File, events []types.Event) error {
	for _, ev := range events {
		buf := new(bytes.Buffer)
		if err := binary.Write(buf, binary.LittleEndian, ev); err != nil {
			return fmt.Errorf("イベントをバッファに書き込むのに失敗しました: %v", err)
		}
		if _, err := deviceFile.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("イベントの書き込みに失敗しました: %v", err)
		}
	}
	return nil
}

// 名前をuinput用の固定長配列に変換する
func toUinputName(name []byte) (uinputName [consts.MaxNameSize]byte) {
	var fixedSizeName [consts.MaxNameSize]byte
	copy(fixedSizeName[:], name)
	return fixedSizeName
}
