package textmetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"whitespace collapse", "a  b\n\nc\td", "a b c d"},
		{"punctuation stripped", "肩こり、頭痛。つらい！？", "肩こり頭痛つらい！？"},
		{"brackets stripped", "「考えすぎ」な（人）【注意】", "考えすぎな人注意"},
		{"lowercase", "Hello WORLD", "hello world"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.in))
		})
	}
}

func TestSimilarity(t *testing.T) {
	text := "ちゃんとしすぎる人ほど、夜になっても力が抜けない。"

	assert.Equal(t, 1.0, Similarity(text, text), "identical text scores 1.0")
	assert.Equal(t, 0.0, Similarity("", text), "empty candidate scores 0")
	assert.Equal(t, 0.0, Similarity(text, ""), "empty history entry scores 0")
	assert.Equal(t, 0.0, Similarity("ab", "ab"), "texts shorter than a trigram score 0")

	a := "今日は気圧が大きく下がります。頭が重い人は無理をしないで。"
	b := "全く関係のない話題で、内容の重なりはほとんどありません。"
	assert.Less(t, Similarity(a, b), 0.2)

	// Punctuation noise must not hide a near-verbatim repeat.
	noisy := "ちゃんと、しすぎる人ほど…夜になっても、力が抜けない！"
	assert.Greater(t, Similarity(text, noisy), 0.6)
}

func TestIsTooSimilar(t *testing.T) {
	history := []string{
		"肩の力を抜くのが苦手な人の話。",
		"まじめな人ほど呼吸が浅くなるという話。",
	}

	assert.True(t, IsTooSimilar("肩の力を抜くのが苦手な人の話。", history, 0.5, 30))
	assert.False(t, IsTooSimilar("全然違う新しいテーマの投稿です。", history, 0.5, 30))

	// Entries outside the lookback window are ignored.
	assert.False(t, IsTooSimilar("まじめな人ほど呼吸が浅くなるという話。", history, 0.5, 1))
}

func TestIsTooSimilarThresholdMonotonic(t *testing.T) {
	history := []string{"休むことに罪悪感がある人へ。休むのも仕事のうち。"}
	candidate := "休むことに少し罪悪感がある人へ。"

	// Lowering the threshold can only grow the flagged set.
	flaggedAt := func(th float64) bool { return IsTooSimilar(candidate, history, th, 30) }
	for th := 0.9; th >= 0.1; th -= 0.1 {
		if flaggedAt(th + 0.1) {
			assert.True(t, flaggedAt(th), "flagged at %.1f but not at %.1f", th+0.1, th)
		}
	}
}

func TestContainsForbidden(t *testing.T) {
	forbidden := []string{"予約", "来院", "プロフィール", "CS60"}

	assert.True(t, ContainsForbidden("気になる方はご予約ください", forbidden))
	assert.False(t, ContainsForbidden("今日はゆっくり休んでください", forbidden))
	assert.False(t, ContainsForbidden("anything", nil))
}

func TestLengthWithin(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		min, max int
		expected bool
	}{
		{"within", "あいうえお", 3, 10, true},
		{"over max", "あいうえおかきくけこ", 0, 5, false},
		{"under min", "あい", 5, 100, false},
		{"newlines excluded from min", "あ\nい\nう", 3, 100, true},
		{"no bounds", "anything at all", 0, 0, true},
		{"max counts newlines", "あい\nうえ", 0, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LengthWithin(tt.text, tt.min, tt.max))
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "あいう", TruncateRunes("あいうえお", 3))
	assert.Equal(t, "short", TruncateRunes("short", 100))
	assert.Equal(t, "ab", TruncateRunes("ab \n", 3), "trailing whitespace trimmed after cut")
}
