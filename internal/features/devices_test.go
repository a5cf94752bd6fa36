package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUevent(t *testing.T) {
	content := `DRIVER=hid-generic
HID_ID=0003:000008F2:00006811
HID_NAME=VINSA 1060PLUS
HID_PHYS=usb-0000:00:14.0-2/input0
MODALIAS=hid:b0003g0001v000008F2p00006811
`

	name, vendor, product, ok := parseUevent(content)
	assert.True(t, ok)
	assert.Equal(t, "VINSA 1060PLUS", name)
	assert.Equal(t, uint16(0x08F2), vendor)
	assert.Equal(t, uint16(0x6811), product)
}

func TestParseUeventWithoutHidID(t *testing.T) {
	content := `DRIVER=hid-generic
HID_NAME=VINSA 1060PLUS
`

	_, _, _, ok := parseUevent(content)
	assert.False(t, ok)
}

func TestParseUeventMalformedHidID(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"フィールド不足", "HID_ID=0003:000008F2\n"},
		{"16進数でない", "HID_ID=0003:zzzz:00006811\n"},
		{"空文字列", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, ok := parseUevent(tc.content)
			assert.False(t, ok)
		})
	}
}
