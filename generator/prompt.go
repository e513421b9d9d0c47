package generator

import (
	"fmt"
	"strings"
)

// Prompt builders for the three generation calls: theme brainstorm, draft
// writing, and the final editorial pass. The wording mirrors the account's
// editorial rules, so it stays in Japanese.

// BuildThemePrompt asks the writer model for a batch of candidate themes,
// one per line, for the pipeline to pick from.
func BuildThemePrompt(temperature float64) Prompt {
	user := strings.TrimSpace(`
整体師がXでフォロワーを増やすための
強い共感を生む「お題」を40個出してください。

・症状名だけに限定しない
・性格、無意識の癖、人間関係、仕事のしんどさも含める
・抽象語OK
・少し苦い
・1行1テーマ
・解説不要
`)
	return Prompt{User: user, Temperature: temperature}
}

// BuildWriterPrompt asks for a post draft on the given theme. angle is the
// rotating content viewpoint; empty means the default mix.
func BuildWriterPrompt(theme, angle string, maxTotalChars int, temperature float64) Prompt {
	var sb strings.Builder
	sb.WriteString("あなたは整体師ナベジュン。\n")
	sb.WriteString("以下の「お題」から、X投稿の下書きを作ってください。\n\n")
	sb.WriteString("お題：\n")
	sb.WriteString(theme)
	sb.WriteString("\n\n【条件】\n")
	if angle != "" {
		sb.WriteString(fmt.Sprintf("・切り口は「%s」を軸にする\n", angle))
	}
	sb.WriteString("・思想7：症状2：自律神経1\n")
	sb.WriteString("・売り込み禁止／ハウツー禁止\n")
	sb.WriteString("・CS60禁止\n")
	sb.WriteString("・自律神経という単語は最大1回\n")
	sb.WriteString("・症状ワードは1〜2個\n")
	sb.WriteString("・最初の2行はタイトルのように止める\n")
	sb.WriteString("・絵文字/ハッシュタグ/番号（1/2等）禁止\n")
	sb.WriteString(fmt.Sprintf("・長さはお任せ（ただし最大%d文字以内）\n", maxTotalChars))

	return Prompt{User: sb.String(), Temperature: temperature}
}

// BuildEditorPrompt asks the editor model for the final polish pass over a
// draft, restating every mechanical constraint.
func BuildEditorPrompt(draft string, maxTotalChars int, temperature float64) Prompt {
	var sb strings.Builder
	sb.WriteString("あなたはX投稿のプロ編集者です。\n")
	sb.WriteString("下の文章を「思想7：症状2：自律神経1」で仕上げてください。\n")
	sb.WriteString("出力は完成文のみ。説明禁止。\n\n")
	sb.WriteString("【必須】\n")
	sb.WriteString("・日本語\n")
	sb.WriteString("・最初の2行はタイトルのように止める（例：「〜って、たいてい〜」など）\n")
	sb.WriteString("・余白を残す（改行は2〜6回まで）\n")
	sb.WriteString("・やさしく少しだけ毒を入れる\n")
	sb.WriteString("・説明しすぎない（ハウツー禁止）\n")
	sb.WriteString("・売り込み禁止（予約/来院/プロフィール誘導/宣伝/価格など全部なし）\n")
	sb.WriteString("・CS60禁止\n")
	sb.WriteString("・自律神経という単語は最大1回\n")
	sb.WriteString("・症状ワードは1〜2個まで（首/喉/呼吸/動悸/みぞおち等）\n")
	sb.WriteString("・断言しすぎない（必ず/絶対/100%は禁止）\n")
	sb.WriteString("・絵文字/ハッシュタグ/番号（1/2等）禁止\n")
	sb.WriteString(fmt.Sprintf("・全体の長さは最大%d文字以内（短いのはOK）\n\n", maxTotalChars))
	sb.WriteString("【元文章】\n")
	sb.WriteString(draft)

	return Prompt{User: sb.String(), Temperature: temperature}
}
