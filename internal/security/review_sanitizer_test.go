package security

import (
	"strings"
	"testing"
)

// TestSanitizeComment_StripsHTML はレビュー本文から全タグが除去されることを検証する。
func TestSanitizeComment_StripsHTML(t *testing.T) {
	sanitizer := NewReviewSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "プレーンテキストはそのまま",
			input: "とても良いお店でした。",
			want:  "とても良いお店でした。",
		},
		{
			name:  "scriptタグが除去される",
			input: `良い<script>alert("xss")</script>お店`,
			want:  "良いお店",
		},
		{
			name:  "装飾タグも除去される",
			input: "<strong>最高</strong>の体験",
			want:  "最高の体験",
		},
		{
			name:  "imgタグが除去される",
			input: `<img src="https://evil.example.com/track.gif">静かな場所`,
			want:  "静かな場所",
		},
		{
			name:  "空文字列は空文字列",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.SanitizeComment(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeComment(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitizeComment_Idempotent はサニタイズが冪等であることを検証する。
func TestSanitizeComment_Idempotent(t *testing.T) {
	sanitizer := NewReviewSanitizer()

	input := `良い<script>alert("xss")</script>お店<br>でした`
	once := sanitizer.SanitizeComment(input)
	twice := sanitizer.SanitizeComment(once)

	if once != twice {
		t.Errorf("sanitize is not idempotent: %q != %q", once, twice)
	}
	if strings.Contains(once, "<") {
		t.Errorf("sanitized output still contains tags: %q", once)
	}
}

// TestDisplayName はメールアドレスらしき表示名が匿名化されることを検証する。
func TestDisplayName(t *testing.T) {
	sanitizer := NewReviewSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "通常の氏名はそのまま",
			input: "山田太郎",
			want:  "山田太郎",
		},
		{
			name:  "メールアドレスは匿名化",
			input: "taro@example.com",
			want:  anonymousDisplayName,
		},
		{
			name:  "@を含む表示名も匿名化",
			input: "taro@shop",
			want:  anonymousDisplayName,
		},
		{
			name:  "空文字列は匿名化",
			input: "",
			want:  anonymousDisplayName,
		},
		{
			name:  "タグ除去後に判定される",
			input: "<b>山田太郎</b>",
			want:  "山田太郎",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.DisplayName(tt.input)
			if got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
