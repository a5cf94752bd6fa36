package features

import (
	"fmt"
	"log"

	"github.com/feveal/Tablet-VINSA-1060-Plus-Linux-Driver/internal/consts"
)

// ボタンイベントの値（input_eventのvalueフィールド）
const (
	btnReleased = 0
	btnPressed  = 1
	btnHold     = 2
)

// ペンサイドボタンの生コード
const (
	penButtonIdle    = 2 // ボタン未押下のセンチネル値
	penButtonStylus  = 4
	penButtonStylus2 = 6
)

// タブレットボタンの配置
const (
	tabletButtonCount = 14
	areaShrinkButton  = 6  // マウスエリア縮小
	modeToggleButton  = 12 // マウス/タブレットモード切替
	areaGrowButton    = 13 // マウスエリア拡大
)

// マウスエリアスケールの許容範囲
const (
	minMouseAreaScale     = 0.1
	maxMouseAreaScale     = 0.4
	defaultMouseAreaScale = 0.3
)

// 座標変換の定数
const (
	multimediaZoneY  = 61000 // これ以上のY値はマルチメディア帯を示す
	mouseAreaCenterX = 1024
	mouseAreaCenterY = 2048
	coordinateCenter = 2048
	coordinateRange  = 4096
)

// buttonAction はタブレットボタンに割り当てられた動作の種別
type buttonAction int

const (
	actionKeys buttonAction = iota // キーマップに従ってキーを送出する
	actionAreaShrink               // マウスエリアを縮小する
	actionAreaGrow                 // マウスエリアを拡大する
	actionModeToggle               // マウス/タブレットモードを切り替える
)

// tabletButtonAction はボタンIDに対応する動作種別を返す
func tabletButtonAction(id int) buttonAction {
	switch id {
	case areaShrinkButton:
		return actionAreaShrink
	case areaGrowButton:
		return actionAreaGrow
	case modeToggleButton:
		return actionModeToggle
	default:
		return actionKeys
	}
}

// DispatcherConfig はディスパッチャーの初期設定
type DispatcherConfig struct {
	TabletButtons  map[int][]uint16 // タブレットボタンID → キーコード列
	PenButtons     map[int][]uint16 // ペンボタンの生コード → キーコード列
	MouseAreaScale float32          // マウスエリアの初期スケール（0なら既定値）
	MouseMode      bool             // 起動時にマウスモードにするか
}

// Dispatcher はデコード済みレポートを仮想デバイスへのイベントに変換する
// セッション状態（ボタン履歴、モード、座標履歴）をすべて専有する
type Dispatcher struct {
	pen      VirtualDevice
	keyboard VirtualDevice

	tabletButtonMap map[int][]uint16
	penButtonMap    map[int][]uint16

	lastTabletButtons uint16
	lastPenButton     byte
	wasTouching       bool
	isMouseMode       bool
	lastX             int32
	lastY             int32
	lastValidX        int32
	mouseAreaScale    float32
}

// NewDispatcher は新しいディスパッチャーを作成する
func NewDispatcher(pen, keyboard VirtualDevice, cfg DispatcherConfig) *Dispatcher {
	scale := cfg.MouseAreaScale
	if scale == 0 {
		scale = defaultMouseAreaScale
	}

	return &Dispatcher{
		pen:               pen,
		keyboard:          keyboard,
		tabletButtonMap:   cfg.TabletButtons,
		penButtonMap:      cfg.PenButtons,
		lastTabletButtons: 0xFFFF, // 初回は全ボタン未押下として扱う
		lastPenButton:     0,
		isMouseMode:       cfg.MouseMode,
		lastX:             coordinateCenter,
		lastY:             coordinateCenter,
		lastValidX:        coordinateCenter,
		mouseAreaScale:    clampScale(scale),
	}
}

// IsMouseMode は現在マウスモードかどうかを返す
func (d *Dispatcher) IsMouseMode() bool {
	return d.isMouseMode
}

// MouseAreaScale は現在のマウスエリアスケールを返す
func (d *Dispatcher) MouseAreaScale() float32 {
	return d.mouseAreaScale
}

// Dispatch はレポート1件分のイベントを仮想デバイスへ送出する
func (d *Dispatcher) Dispatch(r *Report) error {
	if err := d.emitPenEvents(r); err != nil {
		return err
	}
	return d.emitTabletEvents(r)
}

// Sync は両方の仮想デバイスに同期イベントを送出する
func (d *Dispatcher) Sync() error {
	if err := d.keyboard.Sync(); err != nil {
		return fmt.Errorf("仮想キーボードの同期イベント送出に失敗しました: %w", err)
	}
	if err := d.pen.Sync(); err != nil {
		return fmt.Errorf("仮想ペンの同期イベント送出に失敗しました: %w", err)
	}
	return nil
}

// emitPenEvents はペン系（サイドボタン、座標、筆圧、接触）のイベントを送出する
func (d *Dispatcher) emitPenEvents(r *Report) error {
	yRaw := r.YAxis()
	isMultimediaZone := yRaw >= multimediaZoneY

	// マルチメディア帯の外にいる間だけ有効なXを記録しておく
	if !isMultimediaZone {
		d.lastValidX = r.XAxis()
	}

	rawPenButtons := r.PenButtons()
	if err := d.emitPenButtonEvents(rawPenButtons); err != nil {
		return err
	}
	d.lastPenButton = rawPenButtons

	pressure := d.normalizePressure(r.Pressure())

	var x, y int32
	if isMultimediaZone {
		// マルチメディア帯では直前の有効なXを据え置き、Yは上端に固定する
		x, y = d.lastValidX, 0
	} else {
		x, y = d.smoothCoordinates(r.XAxis(), r.YAxis())
		x, y = d.transformCoordinates(x, y)
	}

	if err := d.emitPenAbsEvents(x, y, pressure); err != nil {
		return err
	}

	return d.emitTouchEvent(pressure)
}

// smoothCoordinates は座標履歴との加重移動平均を取る
// タブレットモードの方が重みが大きく、描画時の手ぶれを強めに抑える
func (d *Dispatcher) smoothCoordinates(x, y int32) (int32, int32) {
	var smoothedX, smoothedY int32
	if d.isMouseMode {
		smoothedX = (d.lastX + x) / 2
		smoothedY = (d.lastY + y) / 2
	} else {
		smoothedX = (d.lastX*3 + x) / 4
		smoothedY = (d.lastY*3 + y) / 4
	}

	d.lastX = smoothedX
	d.lastY = smoothedY

	return smoothedX, smoothedY
}

// transformCoordinates はモードに応じた空間変換を適用する
func (d *Dispatcher) transformCoordinates(x, y int32) (int32, int32) {
	if !d.isMouseMode {
		// タブレットモードはXをそのまま通す
		return x, clamp(y, 0, 4095)
	}

	// マウスモードはエリアスケールで切り出した窓を全域に引き伸ばす
	areaRange := int32(coordinateRange * d.mouseAreaScale)
	if areaRange < 1 {
		areaRange = 1
	}
	scaleFactor := int32(coordinateRange) / areaRange

	scaledX := (x-mouseAreaCenterX)*scaleFactor + coordinateCenter
	scaledY := (y-mouseAreaCenterY)*scaleFactor + coordinateCenter

	return clamp(scaledX, 0, coordinateRange), clamp(scaledY, 0, coordinateRange)
}

// normalizePressure は生の筆圧をモードごとの閾値と倍率で正規化する
// マウスモードは閾値が高く、タブレットモードより遅く接触と判定される
func (d *Dispatcher) normalizePressure(rawPressure int32) int32 {
	threshold, scaling := int32(510), int32(3)
	if d.isMouseMode {
		threshold, scaling = 800, 2
	}

	v := 2000 - rawPressure
	if v <= threshold {
		return 0
	}
	return v * scaling
}

// emitPenAbsEvents は座標と筆圧の絶対値イベントを送出する
func (d *Dispatcher) emitPenAbsEvents(x, y, pressure int32) error {
	if err := d.pen.EmitAbs(consts.AbsX, x); err != nil {
		return fmt.Errorf("ABS_Xの送出に失敗しました: %w", err)
	}
	if err := d.pen.EmitAbs(consts.AbsY, y); err != nil {
		return fmt.Errorf("ABS_Yの送出に失敗しました: %w", err)
	}
	if err := d.pen.EmitAbs(consts.AbsPressure, pressure); err != nil {
		return fmt.Errorf("筆圧の送出に失敗しました: %w", err)
	}
	return nil
}

// emitTouchEvent は正規化済み筆圧から接触状態のエッジを検出して送出する
// 接触が継続している間は何も送出しない
func (d *Dispatcher) emitTouchEvent(pressure int32) error {
	isTouching := pressure > 0
	wasTouching := d.wasTouching
	d.wasTouching = isTouching

	var state int32
	switch {
	case !wasTouching && isTouching:
		state = btnPressed
	case wasTouching && !isTouching:
		state = btnReleased
	default:
		return nil
	}

	if err := d.pen.EmitKey(consts.BtnTouch, state); err != nil {
		return fmt.Errorf("接触イベントの送出に失敗しました: %w", err)
	}
	return nil
}

// emitPenButtonEvents はペンサイドボタンのエッジを検出して送出する
// ビットマスクではなく生コードの比較で判定する（同時押しは仕様上存在しない）
func (d *Dispatcher) emitPenButtonEvents(penButton byte) error {
	last := d.lastPenButton

	var state int32
	var id byte
	switch {
	case last == penButtonIdle && (penButton == penButtonStylus || penButton == penButtonStylus2):
		state, id = btnPressed, penButton
	case penButton == penButtonIdle && (last == penButtonStylus || last == penButtonStylus2):
		state, id = btnReleased, last
	case last != penButtonIdle && last == penButton:
		state, id = btnHold, last
	default:
		return nil
	}

	keys, ok := d.penButtonMap[int(id)]
	if !ok {
		return nil
	}

	for _, key := range keys {
		if err := d.pen.EmitKey(key, state); err != nil {
			return fmt.Errorf("ペンボタンキーの送出に失敗しました: %w", err)
		}
	}
	return nil
}

// emitTabletEvents はタブレットボタンのエッジ検出を全ボタン分実行する
func (d *Dispatcher) emitTabletEvents(r *Report) error {
	rawButtonFlags := r.TabletButtons()
	for i := 0; i < tabletButtonCount; i++ {
		// ビット10と11はハードウェア上存在しない
		if i == 10 || i == 11 {
			continue
		}
		if err := d.emitTabletKeyEvent(i, rawButtonFlags); err != nil {
			return err
		}
	}
	d.lastTabletButtons = rawButtonFlags
	return nil
}

// emitTabletKeyEvent はボタン1個分のエッジを検出し、動作種別に応じて処理する
func (d *Dispatcher) emitTabletKeyEvent(id int, rawButtonFlags uint16) error {
	mask := uint16(1) << id
	isPressed := rawButtonFlags&mask == 0 // アクティブロー
	wasPressed := d.lastTabletButtons&mask == 0

	var state int32
	switch {
	case !wasPressed && isPressed:
		state = btnPressed
	case wasPressed && !isPressed:
		state = btnReleased
	case wasPressed && isPressed:
		state = btnHold
	default:
		return nil
	}

	switch tabletButtonAction(id) {
	case actionAreaShrink:
		if state == btnPressed {
			d.mouseAreaScale = clampScale(d.mouseAreaScale * 0.8)
			log.Printf("マウスエリアを縮小しました: %.0f%%", d.mouseAreaScale*100)
		}
		return nil
	case actionAreaGrow:
		if state == btnPressed {
			d.mouseAreaScale = clampScale(d.mouseAreaScale * 1.2)
			log.Printf("マウスエリアを拡大しました: %.0f%%", d.mouseAreaScale*100)
		}
		return nil
	case actionModeToggle:
		if state == btnPressed {
			d.isMouseMode = !d.isMouseMode
			if d.isMouseMode {
				log.Println("モード切替: マウスモード")
			} else {
				log.Println("モード切替: タブレットモード")
			}
		}
		return nil
	}

	keys, ok := d.tabletButtonMap[id]
	if !ok {
		return nil
	}

	for _, key := range keys {
		if err := d.keyboard.EmitKey(key, state); err != nil {
			return fmt.Errorf("タブレットボタンキーの送出に失敗しました: %w", err)
		}
	}
	if err := d.keyboard.Sync(); err != nil {
		return fmt.Errorf("仮想キーボードの同期イベント送出に失敗しました: %w", err)
	}
	return nil
}

// clampScale はマウスエリアスケールを許容範囲に制限する
func clampScale(scale float32) float32 {
	if scale < minMouseAreaScale {
		return minMouseAreaScale
	}
	if scale > maxMouseAreaScale {
		return maxMouseAreaScale
	}
	return scale
}

// clamp は値を最小値と最大値の間に制限する
func clamp(value, min, max int32) int32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
