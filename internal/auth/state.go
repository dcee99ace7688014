package auth

import (
	"encoding/json"
	"net/url"

	"github.com/hitoshi/machiba/internal/model"
)

// FlowState はOAuthフロー1回分のコンテキストを表す。
// stateパラメータとして外部IdPを往復するため、この系だけが解釈できる
// 不透明な値としてエンコードされる。永続化はしない。
type FlowState struct {
	Role              model.Role
	Intent            model.Intent
	Platform          model.Platform
	MobileRedirectURI string
}

// flowStateJSON はstateブロブのワイヤ表現。
type flowStateJSON struct {
	Role              string `json:"role"`
	Intent            string `json:"intent"`
	Platform          string `json:"platform"`
	MobileRedirectURI string `json:"mobileRedirectUri,omitempty"`
}

// DefaultFlowState は全フィールドがデフォルト値のFlowStateを返す。
func DefaultFlowState() FlowState {
	return FlowState{
		Role:     model.RoleVisitor,
		Intent:   model.IntentLogin,
		Platform: model.PlatformWeb,
	}
}

// Encode はFlowStateをURLエンコード済みJSONとしてシリアライズする。
func (s FlowState) Encode() string {
	b, err := json.Marshal(flowStateJSON{
		Role:              string(s.Role),
		Intent:            string(s.Intent),
		Platform:          string(s.Platform),
		MobileRedirectURI: s.MobileRedirectURI,
	})
	if err != nil {
		// flowStateJSONは常にマーシャル可能
		return ""
	}
	return url.QueryEscape(string(b))
}

// ParseFlowState はIdPを往復してきたstateブロブを復元する全域関数。
// 決して失敗しない: ブロブ全体が壊れている場合はデフォルト値一式を、
// 個別フィールドが不正な場合はそのフィールドだけデフォルト値を使う。
// 2番目の戻り値はブロブ全体をパースできた場合にtrueとなる。
// falseの場合、呼び出し側は警告ログを残すこと。
func ParseFlowState(raw string) (FlowState, bool) {
	if raw == "" {
		return DefaultFlowState(), false
	}

	// 経路によって二重エンコードされている場合があるため、まず1回アンエスケープを試す
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		decoded = raw
	}

	var wire flowStateJSON
	if err := json.Unmarshal([]byte(decoded), &wire); err != nil {
		return DefaultFlowState(), false
	}

	// フィールド単位のデフォルト補完。未知の値もデフォルトに落ちる。
	return FlowState{
		Role:              model.ParseRole(wire.Role),
		Intent:            model.ParseIntent(wire.Intent),
		Platform:          model.ParsePlatform(wire.Platform),
		MobileRedirectURI: wire.MobileRedirectURI,
	}, true
}
