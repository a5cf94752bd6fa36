package features

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// TabletSource は物理タブレットからの生レポートの読み取り元を表すインターフェース
type TabletSource interface {
	// ReadReport はレポート1件をbufに読み込み、読み取ったバイト数を返す
	// データが届いていない場合は(0, nil)を返す
	ReadReport(buf []byte) (int, error)
	io.Closer
}

type hidrawTablet struct {
	file *os.File
}

// OpenTablet は指定されたhidrawデバイスノードを読み取り元として開く
func OpenTablet(path string) (TabletSource, error) {
	// 非ブロッキングモードで開き、停止要求に即座に反応できるようにする
	f, err := os.OpenFile(path, syscall.O_RDONLY|syscall.O_NONBLOCK, 0660)
	if err != nil {
		return nil, fmt.Errorf("タブレットデバイスのオープンに失敗しました[path=%s]: %w", path, err)
	}
	return &hidrawTablet{file: f}, nil
}

func (t *hidrawTablet) ReadReport(buf []byte) (int, error) {
	n, err := t.file.Read(buf)
	if err != nil {
		// 非ブロッキング読み取りでデータ未着の場合はエラー扱いにしない
		if errors.Is(err, syscall.EAGAIN) {
			return 0, nil
		}
		return 0, fmt.Errorf("レポートの読み取りに失敗しました: %w", err)
	}
	return n, nil
}

func (t *hidrawTablet) Close() error {
	return t.file.Close()
}
