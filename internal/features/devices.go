package features

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// HidrawDevice は検出されたタブレットのhidrawデバイスを表す
type HidrawDevice struct {
	Name string // ueventのHID_NAME
	Path string // /dev/hidrawN
}

// DeviceEventType はデバイスイベントの種類を表す
type DeviceEventType int

const (
	DeviceAdded DeviceEventType = iota
	DeviceRemoved
)

// DeviceEvent はデバイスの接続状態の変更イベントを表す
type DeviceEvent struct {
	Type   DeviceEventType
	Device *HidrawDevice
	Path   string
}

// DeviceCallback はデバイスイベント発生時に呼び出されるコールバック関数の型
type DeviceCallback func(event DeviceEvent)

// ScanTablets は /sys/class/hidraw を走査して対象タブレットのデバイスノードを探す
func ScanTablets(vendorID, productID uint16) ([]HidrawDevice, error) {
	entries, err := os.ReadDir("/sys/class/hidraw")
	if err != nil {
		return nil, err
	}

	var devices []HidrawDevice
	for _, entry := range entries {
		ueventPath := filepath.Join("/sys/class/hidraw", entry.Name(), "device", "uevent")
		content, err := os.ReadFile(ueventPath)
		if err != nil {
			continue
		}

		name, vendor, product, ok := parseUevent(string(content))
		if !ok {
			continue
		}
		if vendor != vendorID || product != productID {
			continue
		}

		devices = append(devices, HidrawDevice{
			Name: name,
			Path: "/dev/" + entry.Name(),
		})
	}

	return devices, nil
}

// parseUevent はhidrawのueventからデバイス名とベンダーID・製品IDを取り出す
// HID_IDの形式は「バスタイプ:ベンダーID:製品ID」（各フィールドは16進数）
func parseUevent(content string) (name string, vendor, product uint16, ok bool) {
	var haveID bool
	for _, line := range strings.Split(content, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}
		switch key {
		case "HID_NAME":
			name = value
		case "HID_ID":
			fields := strings.Split(value, ":")
			if len(fields) != 3 {
				continue
			}
			v, err := strconv.ParseUint(fields[1], 16, 32)
			if err != nil {
				continue
			}
			p, err := strconv.ParseUint(fields[2], 16, 32)
			if err != nil {
				continue
			}
			vendor = uint16(v)
			product = uint16(p)
			haveID = true
		}
	}
	return name, vendor, product, haveID
}

// DeviceMonitor はタブレットの接続状態を監視する構造体
type DeviceMonitor struct {
	watcher   *fsnotify.Watcher
	callbacks []DeviceCallback
	devices   map[string]*HidrawDevice // パスをキーにしたデバイスマップ
	mutex     sync.RWMutex
	stopChan  chan struct{}
	vendorID  uint16
	productID uint16
	isRunning bool
}

// NewDeviceMonitor は新しいDeviceMonitorを作成する
func NewDeviceMonitor(vendorID, productID uint16) (*DeviceMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &DeviceMonitor{
		watcher:   watcher,
		callbacks: make([]DeviceCallback, 0),
		devices:   make(map[string]*HidrawDevice),
		stopChan:  make(chan struct{}),
		vendorID:  vendorID,
		productID: productID,
	}, nil
}

// Start はデバイスの監視を開始する
func (dm *DeviceMonitor) Start() error {
	if dm.isRunning {
		return nil // すでに実行中
	}

	log.Println("デバイスモニターを開始します")
	dm.isRunning = true

	// hidrawノードは/dev直下に作られる
	if err := dm.watcher.Add("/dev"); err != nil {
		log.Printf("ディレクトリの監視に失敗しました: /dev - %v", err)
	}

	// 初期デバイス一覧を取得
	devices, err := ScanTablets(dm.vendorID, dm.productID)
	if err != nil {
		log.Printf("初期デバイス一覧の取得に失敗しました: %v", err)
	} else {
		log.Printf("初期デバイス検出: %d 個のタブレットを検出", len(devices))
		dm.updateDeviceList(devices)
	}

	// イベント監視ゴルーチンを起動
	go dm.watchEvents()

	return nil
}

// Stop はデバイスの監視を停止する
func (dm *DeviceMonitor) Stop() {
	if !dm.isRunning {
		return
	}

	log.Println("デバイスモニターを停止します")
	close(dm.stopChan)
	dm.watcher.Close()
	dm.isRunning = false
}

// RegisterCallback はデバイスイベントのコールバック関数を登録する
func (dm *DeviceMonitor) RegisterCallback(callback DeviceCallback) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	dm.callbacks = append(dm.callbacks, callback)
}

// GetConnectedDevices は現在接続されているタブレットのスナップショットを返す
func (dm *DeviceMonitor) GetConnectedDevices() []HidrawDevice {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	devices := make([]HidrawDevice, 0, len(dm.devices))
	for _, device := range dm.devices {
		devices = append(devices, *device)
	}

	return devices
}

// watchEvents はfsnotifyのイベントを監視する
// hidrawノードの作成・削除が連続するため、デバウンスしてまとめて再スキャンする
func (dm *DeviceMonitor) watchEvents() {
	eventDebounceTime := 500 * time.Millisecond
	eventTimer := time.NewTimer(eventDebounceTime)
	eventTimer.Stop() // 初期状態では停止
	pendingRescan := false

	for {
		select {
		case <-dm.stopChan:
			log.Println("ファイルシステムイベント監視を停止します")
			return

		case <-eventTimer.C:
			if pendingRescan {
				pendingRescan = false
				dm.rescan()
			}

		case event, ok := <-dm.watcher.Events:
			if !ok {
				return
			}

			if !strings.Contains(filepath.Base(event.Name), "hidraw") {
				continue
			}

			if event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Remove == fsnotify.Remove {
				// タイマーをリセットして複数のイベントをバッチ処理
				if !pendingRescan {
					pendingRescan = true
					eventTimer.Reset(eventDebounceTime)
				}
			}

		case err, ok := <-dm.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("ファイルシステム監視エラー: %v", err)
		}
	}
}

// rescan はデバイス一覧を再スキャンする
func (dm *DeviceMonitor) rescan() {
	devices, err := ScanTablets(dm.vendorID, dm.productID)
	if err != nil {
		log.Printf("デバイス再スキャンに失敗しました: %v", err)
		return
	}

	dm.updateDeviceList(devices)
}

// updateDeviceList は現在のデバイス一覧を更新し、変更があれば通知する
func (dm *DeviceMonitor) updateDeviceList(newDevices []HidrawDevice) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	// 現在のデバイスマップをコピー
	currentDevices := make(map[string]bool)
	for path := range dm.devices {
		currentDevices[path] = true
	}

	// 新しいデバイスを確認
	for i := range newDevices {
		device := &newDevices[i]
		path := device.Path

		if _, exists := dm.devices[path]; !exists {
			dm.devices[path] = device

			log.Printf("タブレットを検出しました: %s (%s)", device.Name, path)
			dm.notifyCallbacks(DeviceEvent{
				Type:   DeviceAdded,
				Device: device,
				Path:   path,
			})
		} else {
			// 既知のデバイスとしてマーク
			delete(currentDevices, path)
		}
	}

	// 削除されたデバイスを確認
	for path := range currentDevices {
		device := dm.devices[path]
		log.Printf("タブレットが取り外されました: %s (%s)", device.Name, path)
		dm.notifyCallbacks(DeviceEvent{
			Type:   DeviceRemoved,
			Device: device,
			Path:   path,
		})
		delete(dm.devices, path)
	}
}

// notifyCallbacks は登録されているすべてのコールバックに通知する
func (dm *DeviceMonitor) notifyCallbacks(event DeviceEvent) {
	// コピーしてロックを保持したままコールバックを待たないようにする
	callbacks := append([]DeviceCallback(nil), dm.callbacks...)

	for _, callback := range callbacks {
		go callback(event)
	}
}
