// Package order renders a cart into a localized, human-readable order
// message and the WhatsApp URI that dispatches it.
package order

import "golang.org/x/text/language"

// Language is one of the four supported locales for order messages. Only the
// framing strings (header, total, notes) are localized; product display names
// are never translated.
type Language string

const (
	English    Language = "en"
	Vietnamese Language = "vi"
	Japanese   Language = "ja"
	Korean     Language = "ko"
)

var supported = []Language{English, Vietnamese, Japanese, Korean}

// matcher resolves arbitrary BCP 47 input against the supported set. The
// first tag is the fallback, so unknown input deterministically maps to
// English.
var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Vietnamese,
	language.Japanese,
	language.Korean,
})

// MatchLanguage maps a language tag to the closest supported Language.
// Accept-Language style lists are honored in preference order. Invalid or
// unsupported input falls back to English.
func MatchLanguage(tag string) Language {
	if tag == "" {
		return English
	}
	tags, _, err := language.ParseAcceptLanguage(tag)
	if err != nil || len(tags) == 0 {
		return English
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// strings per language, taken verbatim from the venue's translation table.
type messageStrings struct {
	NewOrder string
	Total    string
	Notes    string
}

var translations = map[Language]messageStrings{
	English: {
		NewOrder: "New Order from Taproom Menu",
		Total:    "Total",
		Notes:    "Notes",
	},
	Vietnamese: {
		NewOrder: "Đơn hàng mới từ Taproom",
		Total:    "Tổng cộng",
		Notes:    "Ghi chú",
	},
	Japanese: {
		NewOrder: "Taproomからの新しい注文",
		Total:    "合計",
		Notes:    "メモ",
	},
	Korean: {
		NewOrder: "Taproom 주문",
		Total:    "총 결제금액",
		Notes:    "요청사항",
	},
}

func stringsFor(lang Language) messageStrings {
	if t, ok := translations[lang]; ok {
		return t
	}
	return translations[English]
}
