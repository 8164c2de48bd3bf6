package export

import (
	"fmt"
	"strconv"
	"strings"
)

// ChapterHeadingStyle selects how chapter headings are rendered.
type ChapterHeadingStyle string

const (
	HeadingNumberOnly           ChapterHeadingStyle = "number_only"
	HeadingNumberAndTitle       ChapterHeadingStyle = "number_and_title"
	HeadingTitleOnly            ChapterHeadingStyle = "title_only"
	HeadingNumberArabic         ChapterHeadingStyle = "number_arabic"
	HeadingNumberArabicAndTitle ChapterHeadingStyle = "number_arabic_and_title"
)

var ones = []string{
	"ZERO", "ONE", "TWO", "THREE", "FOUR", "FIVE", "SIX", "SEVEN", "EIGHT", "NINE",
	"TEN", "ELEVEN", "TWELVE", "THIRTEEN", "FOURTEEN", "FIFTEEN", "SIXTEEN",
	"SEVENTEEN", "EIGHTEEN", "NINETEEN",
}

var tens = []string{
	"", "", "TWENTY", "THIRTY", "FORTY", "FIFTY", "SIXTY", "SEVENTY", "EIGHTY", "NINETY",
}

// NumberWord renders n as an uppercase English word for 0 through 100;
// anything larger falls back to the Arabic literal.
func NumberWord(n int) string {
	switch {
	case n < 0 || n > 100:
		return strconv.Itoa(n)
	case n < 20:
		return ones[n]
	case n == 100:
		return "ONE HUNDRED"
	default:
		word := tens[n/10]
		if n%10 != 0 {
			word += "-" + ones[n%10]
		}
		return word
	}
}

// ChapterHeading formats the heading for chapter number n (counting from 1)
// with the given title.
func ChapterHeading(n int, title string, style ChapterHeadingStyle) string {
	upper := strings.ToUpper(title)
	switch style {
	case HeadingNumberOnly:
		return "CHAPTER " + NumberWord(n)
	case HeadingNumberAndTitle:
		return fmt.Sprintf("CHAPTER %s: %s", NumberWord(n), upper)
	case HeadingTitleOnly:
		return upper
	case HeadingNumberArabic:
		return "CHAPTER " + strconv.Itoa(n)
	case HeadingNumberArabicAndTitle:
		return fmt.Sprintf("CHAPTER %d: %s", n, upper)
	default:
		return "CHAPTER " + NumberWord(n)
	}
}
