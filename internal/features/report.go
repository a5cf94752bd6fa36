package features

// RawReportSize はタブレットが送出する生レポートの固定長
const RawReportSize = 64

// 生レポート内のフィールドオフセット
const (
	xAxisHigh         = 1
	xAxisLow          = 2
	yAxisHigh         = 3
	yAxisLow          = 4
	pressureHigh      = 5
	pressureLow       = 6
	penButtonsOffset  = 9
	tabletButtonsHigh = 12
	tabletButtonsLow  = 11
)

// 未使用ビットを「押されていない」側に倒すためのマスク
// タブレットボタンはアクティブロー方式のため、使われていないビットは
// 強制的に1にしておかないと常時押下として誤検出される
const tabletButtonsUnusedMask = 0xCC00

// Report は生レポートをフィールド単位で読み出すビュー
type Report struct {
	data []byte
}

// NewReport は64バイトのバッファを持つ空のレポートを作成する
func NewReport() *Report {
	return &Report{data: make([]byte, RawReportSize)}
}

// Buffer はレポートの生バッファを返す（読み取りループが直接書き込む）
func (r *Report) Buffer() []byte {
	return r.data
}

func u16From2U8(high, low byte) uint16 {
	return uint16(high)<<8 | uint16(low)
}

// XAxis はX軸の座標を返す
func (r *Report) XAxis() int32 {
	return int32(u16From2U8(r.data[xAxisHigh], r.data[xAxisLow]))
}

// YAxis はY軸の座標を返す
func (r *Report) YAxis() int32 {
	return int32(u16From2U8(r.data[yAxisHigh], r.data[yAxisLow]))
}

// Pressure はペンの筆圧を返す
func (r *Report) Pressure() int32 {
	return int32(u16From2U8(r.data[pressureHigh], r.data[pressureLow]))
}

// PenButtons はペンサイドボタンの生コードを返す
func (r *Report) PenButtons() byte {
	return r.data[penButtonsOffset]
}

// TabletButtons はタブレットボタンのビットマスクを返す（アクティブロー）
func (r *Report) TabletButtons() uint16 {
	return u16From2U8(r.data[tabletButtonsHigh], r.data[tabletButtonsLow]) | tabletButtonsUnusedMask
}
