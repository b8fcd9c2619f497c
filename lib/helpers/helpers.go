package helpers

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var markdownV2Replacer = func() *strings.Replacer {
	charactersToEscape := []string{"\\", ".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}
	pairs := make([]string, 0, len(charactersToEscape)*2)
	for _, char := range charactersToEscape {
		pairs = append(pairs, char, "\\"+char)
	}
	return strings.NewReplacer(pairs...)
}()

var codeBlockReplacer = strings.NewReplacer("\\", "\\\\", "`", "\\`")

// EscapeMarkdownV2 escapes text for Telegram's MarkdownV2 parse mode.
func EscapeMarkdownV2(text string) string {
	return markdownV2Replacer.Replace(text)
}

// EscapeCodeBlock escapes text placed inside a ``` block.
func EscapeCodeBlock(text string) string {
	return codeBlockReplacer.Replace(text)
}

// FormatPrice prints a price with thousands separators and two decimals,
// or more decimals for penny prices.
func FormatPrice(price float64, escapeMarkdown bool) string {
	decimals := int32(2)
	if price < 1 {
		decimals = 4
	}

	rounded := decimal.NewFromFloat(price).Round(decimals).InexactFloat64()

	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("%.*f", decimals, rounded)

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}

// FormatTarget prints a target price as entered, keeping at least one
// decimal so 3500 reads "3500.0".
func FormatTarget(target float64) string {
	s := strconv.FormatFloat(target, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
