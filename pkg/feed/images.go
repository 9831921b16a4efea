package feed

import (
	"regexp"
	"strings"

	"github.com/umputun/plainly/pkg/domain"
)

// ImageStrategy returns an image url found in the item, or empty string if it has none
type ImageStrategy func(item domain.RawItem) string

// imageStrategies are tried in order, first non-empty result wins
var imageStrategies = []ImageStrategy{
	enclosureImage,
	mediaContentImage,
	mediaThumbnailImage,
	inlineImage,
}

var imgSrcRe = regexp.MustCompile(`(?i)<img\b[^>]*?\bsrc\s*=\s*["']([^"']+)["']`)

// ExtractImage picks a representative image url for the item. Empty result means no image.
func ExtractImage(item domain.RawItem) string {
	for _, strategy := range imageStrategies {
		if u := strings.TrimSpace(strategy(item)); u != "" {
			return u
		}
	}
	return ""
}

func enclosureImage(item domain.RawItem) string {
	return item.Images.Enclosure
}

func mediaContentImage(item domain.RawItem) string {
	return firstNonEmpty(item.Images.MediaContent...)
}

func mediaThumbnailImage(item domain.RawItem) string {
	return firstNonEmpty(item.Images.MediaThumbnail...)
}

// inlineImage scans html fields for the first <img src="...">
func inlineImage(item domain.RawItem) string {
	for _, field := range []string{item.Content, item.Snippet, item.Summary, item.Description} {
		if m := imgSrcRe.FindStringSubmatch(field); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
