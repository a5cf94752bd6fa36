package api

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/config"
	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/features"
)

// TabletService はタブレットドライバーのライフサイクルを管理する構造体
type TabletService struct {
	cfg         *config.Config
	devicePath  string // 空でなければスキャンせずこのパスを使う
	stopChan    chan struct{}
	running     bool
	statusMutex sync.RWMutex

	pen        features.VirtualDevice
	keyboard   features.VirtualDevice
	tablet     features.TabletSource
	dispatcher *features.Dispatcher
}

// NewTabletService は新しいタブレットサービスを作成する
func NewTabletService(cfg *config.Config, devicePath string) *TabletService {
	return &TabletService{
		cfg:        cfg,
		devicePath: devicePath,
		stopChan:   make(chan struct{}),
		running:    false,
	}
}

// Start はタブレットの読み取りとイベント変換を開始する
func (s *TabletService) Start() error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	if s.running {
		return fmt.Errorf("サービスは既に実行中です")
	}

	// ボタンマップを設定から変換
	tabletButtons, err := s.cfg.TabletButtonCodes()
	if err != nil {
		return fmt.Errorf("タブレットボタンマップの変換に失敗しました: %v", err)
	}
	penButtons, err := s.cfg.PenButtonCodes()
	if err != nil {
		return fmt.Errorf("ペンボタンマップの変換に失敗しました: %v", err)
	}

	// 仮想ペンデバイスの作成
	pen, err := features.CreatePen("/dev/uinput", []byte("vinsa-virtual-pen"), collectKeys(penButtons))
	if err != nil {
		return fmt.Errorf("仮想ペンの作成に失敗しました: %v", err)
	}
	s.pen = pen

	// 仮想キーボードデバイスの作成
	keyboard, err := features.CreateVirtualKeyboard("/dev/uinput", []byte("vinsa-virtual-keyboard"), collectKeys(tabletButtons))
	if err != nil {
		s.pen.Close()
		return fmt.Errorf("仮想キーボードの作成に失敗しました: %v", err)
	}
	s.keyboard = keyboard

	// 物理タブレットを開く
	devicePath, name, err := s.findTablet()
	if err != nil {
		s.pen.Close()
		s.keyboard.Close()
		return err
	}
	log.Printf("使用するタブレット: %s (%s)", name, devicePath)

	tablet, err := features.OpenTablet(devicePath)
	if err != nil {
		s.pen.Close()
		s.keyboard.Close()
		return err
	}
	s.tablet = tablet

	s.dispatcher = features.NewDispatcher(s.pen, s.keyboard, features.DispatcherConfig{
		TabletButtons:  tabletButtons,
		PenButtons:     penButtons,
		MouseAreaScale: s.cfg.Pen.MouseAreaScale,
		MouseMode:      s.cfg.Pen.MouseMode,
	})

	s.stopChan = make(chan struct{})
	s.running = true

	// レポート読み取りのメインループを開始
	go s.runDispatchLoop()

	return nil
}

// findTablet は使用するタブレットのデバイスノードを決定する
func (s *TabletService) findTablet() (path string, name string, err error) {
	if s.devicePath != "" {
		return s.devicePath, "指定されたデバイス", nil
	}

	devices, err := features.ScanTablets(s.cfg.Device.VendorID, s.cfg.Device.ProductID)
	if err != nil {
		return "", "", fmt.Errorf("タブレットのスキャンに失敗しました: %v", err)
	}

	// 設定ファイルで指定された優先デバイスがあればそれを使用
	preferred := s.cfg.Device.PreferredDevice
	for _, device := range devices {
		if preferred != "" && device.Path == preferred {
			return device.Path, device.Name, nil
		}
	}

	if len(devices) == 0 {
		return "", "", fmt.Errorf("タブレットが見つかりませんでした (vendor=%04X, product=%04X)",
			s.cfg.Device.VendorID, s.cfg.Device.ProductID)
	}

	return devices[0].Path, devices[0].Name, nil
}

// Stop はタブレットサービスを停止する
func (s *TabletService) Stop() error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	if !s.running {
		return fmt.Errorf("サービスは実行されていません")
	}

	close(s.stopChan)
	s.running = false

	// デバイスのクローズは runDispatchLoop 内で行われる

	return nil
}

// IsRunning はサービスが実行中かどうかを返す
func (s *TabletService) IsRunning() bool {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.running
}

// Status はサービスの現在の状態を返す
func (s *TabletService) Status() (running bool, mouseMode bool, mouseAreaScale float32) {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()

	if s.dispatcher == nil {
		return s.running, s.cfg.Pen.MouseMode, s.cfg.Pen.MouseAreaScale
	}
	return s.running, s.dispatcher.IsMouseMode(), s.dispatcher.MouseAreaScale()
}

// runDispatchLoop はレポート読み取りとイベント変換のメインループ
func (s *TabletService) runDispatchLoop() {
	defer func() {
		// サービス終了時にデバイスをクローズ
		if s.tablet != nil {
			s.tablet.Close()
		}
		if s.pen != nil {
			s.pen.Close()
		}
		if s.keyboard != nil {
			s.keyboard.Close()
		}
		log.Println("タブレットサービスを停止しました")
	}()

	report := features.NewReport()

	log.Println("タブレットの読み取りを開始しました...")

	for {
		select {
		case <-s.stopChan:
			return
		default:
			n, err := s.tablet.ReadReport(report.Buffer())
			if err != nil {
				log.Printf("レポートの読み取りに失敗しました: %v", err)
				s.markStopped()
				return
			}
			if n == 0 {
				// データ未着
				time.Sleep(100 * time.Microsecond)
				continue
			}
			if n != features.RawReportSize {
				// 不完全なレポートは破棄する
				continue
			}

			if err := s.dispatcher.Dispatch(report); err != nil {
				log.Printf("イベントの送出に失敗しました: %v", err)
				s.markStopped()
				return
			}
			if err := s.dispatcher.Sync(); err != nil {
				log.Printf("同期イベントの送出に失敗しました: %v", err)
				s.markStopped()
				return
			}
		}
	}
}

// markStopped は読み取りループが異常終了した際に実行状態を更新する
func (s *TabletService) markStopped() {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()
	s.running = false
}

// collectKeys はボタンマップに現れるキーコードを重複なく集める
func collectKeys(m map[int][]uint16) []uint16 {
	seen := make(map[uint16]bool)
	var keys []uint16
	for _, codes := range m {
		for _, code := range codes {
			if seen[code] {
				continue
			}
			seen[code] = true
			keys = append(keys, code)
		}
	}
	return keys
}
