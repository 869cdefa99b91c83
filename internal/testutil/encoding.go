package testutil

import "bytes"

// String8Sample is a legacy-encoded string8 property value and the text it
// should decode to.
type String8Sample struct {
	Name    string
	Encoded []byte
	Want    string
}

var westernSamples = []String8Sample{
	{"win1252 smart quote", []byte("Rand\x92s Opponent"), "Rand’s Opponent"},
	{"win1252 en dash", []byte("2020 \x96 2024"), "2020 – 2024"},
	{"win1252 em dash", []byte("Hello\x97World"), "Hello—World"},
	{"win1252 double quotes", []byte("\x93Hello\x94"), "“Hello”"},
	{"win1252 trademark", []byte("Brand\x99"), "Brand™"},
	{"win1252 euro", []byte("Price: \x80100"), "Price: €100"},
	{"latin1 o acute", []byte("Mir\xf3 - Picasso"), "Miró - Picasso"},
	{"latin1 c cedilla", []byte("Gar\xe7on"), "Garçon"},
	{"latin1 u umlaut", []byte("M\xfcnchen"), "München"},
	{"latin1 degree", []byte("25\xb0C"), "25°C"},
}

// Long enough for charset detection to be confident.
var asianSamples = []String8Sample{
	{
		"shift-jis",
		[]byte{
			0x93, 0xfa, 0x96, 0x7b, 0x8c, 0xea, 0x82, 0xcc, 0x83, 0x65, 0x83, 0x4c,
			0x83, 0x58, 0x83, 0x67, 0x83, 0x54, 0x83, 0x93, 0x83, 0x76, 0x83, 0x8b,
			0x82, 0xc5, 0x82, 0xb7, 0x81, 0x42, 0x82, 0xb1, 0x82, 0xea, 0x82, 0xcd,
			0x95, 0xb6, 0x8e, 0x9a, 0x89, 0xbb, 0x82, 0xaf, 0x82, 0xcc, 0x83, 0x65,
			0x83, 0x58, 0x83, 0x67, 0x82, 0xc9, 0x8e, 0x67, 0x97, 0x70, 0x82, 0xb3,
			0x82, 0xea, 0x82, 0xdc, 0x82, 0xb7, 0x81, 0x42,
		},
		"日本語のテキストサンプルです。これは文字化けのテストに使用されます。",
	},
	{
		"gbk",
		[]byte{
			0xd5, 0xe2, 0xca, 0xc7, 0xd2, 0xbb, 0xb8, 0xf6, 0xd6, 0xd0, 0xce, 0xc4,
			0xce, 0xc4, 0xb1, 0xbe, 0xca, 0xbe, 0xc0, 0xfd, 0xa3, 0xac, 0xd3, 0xc3,
			0xd3, 0xda, 0xb2, 0xe2, 0xca, 0xd4, 0xd7, 0xd6, 0xb7, 0xfb, 0xb1, 0xe0,
			0xc2, 0xeb, 0xbc, 0xec, 0xb2, 0xe2, 0xb9, 0xa6, 0xc4, 0xdc, 0xa1, 0xa3,
		},
		"这是一个中文文本示例，用于测试字符编码检测功能。",
	},
	{
		"euc-kr",
		[]byte{
			0xc7, 0xd1, 0xb1, 0xdb, 0x20, 0xc5, 0xd8, 0xbd, 0xba, 0xc6, 0xae, 0x20,
			0xbb, 0xf9, 0xc7, 0xc3, 0xc0, 0xd4, 0xb4, 0xcf, 0xb4, 0xd9, 0x2e, 0x20,
			0xc0, 0xce, 0xc4, 0xda, 0xb5, 0xf9, 0x20, 0xb0, 0xa8, 0xc1, 0xf6, 0x20,
			0xc5, 0xd7, 0xbd, 0xba, 0xc6, 0xae, 0xbf, 0xeb, 0xc0, 0xd4, 0xb4, 0xcf,
			0xb4, 0xd9, 0x2e,
		},
		"한글 텍스트 샘플입니다. 인코딩 감지 테스트용입니다.",
	},
}

// WesternSamples returns Windows-1252 and Latin-1 samples. The slices are
// fresh copies.
func WesternSamples() []String8Sample { return cloneSamples(westernSamples) }

// AsianSamples returns multi-byte CJK samples. The slices are fresh copies.
func AsianSamples() []String8Sample { return cloneSamples(asianSamples) }

func cloneSamples(in []String8Sample) []String8Sample {
	out := make([]String8Sample, len(in))
	for i, s := range in {
		s.Encoded = bytes.Clone(s.Encoded)
		out[i] = s
	}
	return out
}
