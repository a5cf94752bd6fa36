package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/browser"

	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/api"
	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/config"
	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/features"
)

func main() {
	// コマンドライン引数の解析
	useApi := flag.Bool("api", false, "APIサーバーモードで起動します")
	configPath := flag.String("config", "", "設定ファイルのパス (指定しない場合はデフォルトパスを使用)")
	devicePath := flag.String("device", "", "タブレットのhidrawデバイスパス (指定しない場合は自動検出)")
	port := flag.Int("port", 8080, "APIサーバーのポート番号")
	openBrowser := flag.Bool("open", false, "APIサーバー起動後に設定ページをブラウザで開きます")
	flag.Parse()

	// デフォルト設定ファイルパスの設定
	defaultConfigPath := ""
	configDir, err := config.GetDefaultConfigDir()
	if err == nil {
		defaultConfigPath = filepath.Join(configDir, "config.toml")
	}

	// 設定ファイルパスの決定
	cfgPath := defaultConfigPath
	if *configPath != "" {
		cfgPath = *configPath
	}

	// 設定ファイルの読み込み
	var cfg *config.Config
	if cfgPath != "" {
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			fmt.Printf("設定ファイルの読み込みに失敗しました: %v\nデフォルト設定を使用します\n", err)
			cfg = config.DefaultConfig()
		} else {
			fmt.Printf("設定ファイルを読み込みました: %s\n", cfgPath)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// シグナルハンドラの設定
	handleSignals()

	service := api.NewTabletService(cfg, *devicePath)

	// APIモードかCLIモードかを判断
	if *useApi {
		fmt.Printf("APIサーバーモードで起動します (ポート: %d)...\n", *port)
		runApiServer(cfg, service, *port, *openBrowser)
	} else {
		fmt.Println("CLIモードで起動します...")
		runCLI(cfg, service)
	}
}

// APIサーバーモードでの実行
func runApiServer(cfg *config.Config, service *api.TabletService, port int, openBrowser bool) {
	// APIサーバーを作成
	server := api.NewServer(cfg, service, port)

	if openBrowser {
		go func() {
			// サーバーが待ち受けを開始するまで少し待つ
			time.Sleep(500 * time.Millisecond)
			url := fmt.Sprintf("http://localhost:%d/api/config", port)
			if err := browser.OpenURL(url); err != nil {
				log.Printf("ブラウザの起動に失敗しました: %v", err)
			}
		}()
	}

	// サーバー起動
	if err := server.Start(); err != nil {
		log.Fatalf("APIサーバーの起動に失敗しました: %v", err)
	}
}

// CLIモードでの実行
// タブレットの抜き差しに追従できるよう、デバイスモニター経由で開始・停止する
func runCLI(cfg *config.Config, service *api.TabletService) {
	monitor, err := features.NewDeviceMonitor(cfg.Device.VendorID, cfg.Device.ProductID)
	if err != nil {
		log.Fatalf("デバイスモニターの作成に失敗しました: %v", err)
	}

	monitor.RegisterCallback(func(event features.DeviceEvent) {
		switch event.Type {
		case features.DeviceAdded:
			if service.IsRunning() {
				return
			}
			if err := service.Start(); err != nil {
				log.Printf("タブレットサービスの起動に失敗しました: %v", err)
			}
		case features.DeviceRemoved:
			if !service.IsRunning() {
				return
			}
			if err := service.Stop(); err != nil {
				log.Printf("タブレットサービスの停止に失敗しました: %v", err)
			}
		}
	})

	if err := monitor.Start(); err != nil {
		log.Fatalf("デバイスモニターの起動に失敗しました: %v", err)
	}

	// タブレットが既に接続されていれば即座に開始
	if err := service.Start(); err != nil {
		fmt.Printf("タブレットサービスの起動に失敗しました: %v\n接続を待機します...\n", err)
	}

	// シグナルが来るまで待機（終了処理はhandleSignals内で行われる）
	select {}
}

func handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("シャットダウンします...")
		os.Exit(0)
	}()
}
