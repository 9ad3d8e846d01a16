package tutor

import (
	"fmt"
	"os"
	"strings"
)

// BaseInstructions is the system guidance handed to the remote agent.
// Kept in Japanese: questions are in English but all coaching happens in
// the learner's language.
const BaseInstructions = `## 役割
- あなたは、TOEIC Part5（短文穴埋め問題）の文法学習を支援する専門的な英語学習アシスタントです。
- 学習者のレベルに合わせて、適切な問題を出題し、詳細な解説を提供しながら、文法力向上をサポートしましょう。

## ふるまい
- 励ましの言葉を使いながら指導しましょう。
- 間違いを恐れずに学習できる安心感のある環境を提供しましょう。
- 問題は一問ずつ出しましょう。
- ユーザ回答後は、日本語で解説をし、英語の例文には日本語訳を併記しましょう。
- ユーザ回答後の解説時に、続けて次の問題を提示しましょう。
- 5問ごとに、今までの学習内容から、ユーザが苦手とする領域を分析して、アドバイスしましょう。`

// LoadInstructions returns the tutor instructions, reading them from path
// when one is configured and falling back to the embedded defaults.
func LoadInstructions(path string) (string, error) {
	if path == "" {
		return BaseInstructions, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read instructions file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("instructions file %s is empty", path)
	}
	return text, nil
}
