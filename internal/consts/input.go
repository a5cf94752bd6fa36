package consts

// 入力イベントタイプの定数（input-event-codes.hより）
const (
	Syn = 0x00 // 同期イベント
	Key = 0x01 // キーイベント
	Abs = 0x03 // 絶対座標イベント

	SynReport = 0 // イベント報告の同期

	AbsX        = 0x00 // X軸の絶対座標
	AbsY        = 0x01 // Y軸の絶対座標
	AbsPressure = 0x18 // ペンの筆圧
)

// ボタンコードの定数
const (
	BtnLeft    = 0x110 // マウス左ボタン
	BtnRight   = 0x111 // マウス右ボタン
	BtnToolPen = 0x140 // ペンツールの検出
	BtnTouch   = 0x14a // ペン先の接触検出
	BtnStylus  = 0x14b // ペンサイドボタン1
	BtnStylus2 = 0x14c // ペンサイドボタン2
)

// タブレットボタンに割り当てるキーコードの定数
const (
	KeyEsc      = 1   // ESC
	KeyTab      = 15  // TAB
	KeyLeftCtrl = 29  // 左CTRL
	KeyLeftAlt  = 56  // 左ALT
	KeySpace    = 57  // スペース
	KeyKpMinus  = 74  // テンキーのマイナス
	KeyKpPlus   = 78  // テンキーのプラス
	KeyPageUp   = 104 // PAGE UP
	KeyPageDown = 109 // PAGE DOWN
)
