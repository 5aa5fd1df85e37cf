package card

import (
	"encoding/json"
	"fmt"
)

// maxPostbackData is the channel's limit on postback payload length.
const maxPostbackData = 300

// Sentinel is the synthetic "view more" card appended to a truncated carousel.
type Sentinel struct {
	Remaining    int
	Total        int
	Label        string
	NextPageData string
	ViewAllURL   string
}

// RenderSentinel renders the "view more" card. The next-page action is
// dropped when its data would not fit in a postback.
func (r *Renderer) RenderSentinel(s Sentinel) (json.RawMessage, error) {
	body := []interface{}{
		textNode("ดูเพิ่มเติม", "xl", "bold", "#1DB446"),
		textNode(fmt.Sprintf("เหลืออีก %d คน จากทั้งหมด %d คน", s.Remaining, s.Total), "sm", "regular", "#555555"),
	}
	if s.Label != "" {
		body = append(body, textNode(truncateRunes(s.Label, maxLabelRunes), "sm", "regular", "#999999"))
	}

	var footer []interface{}
	if s.NextPageData != "" && len(s.NextPageData) <= maxPostbackData {
		footer = append(footer, button("primary", map[string]interface{}{
			"type":        "postback",
			"label":       "หน้าถัดไป",
			"data":        s.NextPageData,
			"displayText": "หน้าถัดไป",
		}))
	}
	if s.ViewAllURL != "" {
		footer = append(footer, button("secondary", map[string]interface{}{
			"type":  "uri",
			"label": "ดูทั้งหมด",
			"uri":   s.ViewAllURL,
		}))
	}

	return json.Marshal(bubble(nil, body, footer))
}
