package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportDecodesFixedOffsets(t *testing.T) {
	r := NewReport()
	buf := r.Buffer()
	assert.Len(t, buf, RawReportSize)

	// 各フィールドに既知の上位・下位バイトを書き込む
	buf[1] = 0x12 // X上位
	buf[2] = 0x34 // X下位
	buf[3] = 0xAB // Y上位
	buf[4] = 0xCD // Y下位
	buf[5] = 0x07 // 筆圧上位
	buf[6] = 0xD0 // 筆圧下位
	buf[9] = 0x04 // ペンボタン

	assert.Equal(t, int32(0x1234), r.XAxis())
	assert.Equal(t, int32(0xABCD), r.YAxis())
	assert.Equal(t, int32(0x07D0), r.Pressure())
	assert.Equal(t, byte(0x04), r.PenButtons())
}

func TestReportTabletButtonsCombinesHighLow(t *testing.T) {
	r := NewReport()
	r.Buffer()[11] = 0x34 // 下位
	r.Buffer()[12] = 0x12 // 上位

	// 未使用ビット(0xCC00)は常に「未押下」側に倒される
	assert.Equal(t, uint16(0x1234|0xCC00), r.TabletButtons())
}

func TestReportTabletButtonsForcesUnusedBits(t *testing.T) {
	cases := []struct {
		name string
		high byte
		low  byte
	}{
		{"全ビットゼロ", 0x00, 0x00},
		{"全ビット1", 0xFF, 0xFF},
		{"上位のみ", 0x33, 0x00},
		{"下位のみ", 0x00, 0x77},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReport()
			r.Buffer()[12] = tc.high
			r.Buffer()[11] = tc.low

			flags := r.TabletButtons()
			assert.Equal(t, uint16(0xCC00), flags&0xCC00)
		})
	}
}
