package export

import (
	"fmt"
	"strings"

	"github.com/kmaitland/pgan/internal/metrics"
)

var strokeColors = []string{"#00ff88", "#ff5577", "#55aaff", "#ffcc00", "#cc88ff", "#ff8844"}

// HistoryToSVG renders every loss series of a run as one polyline chart.
// All series share the y-axis; a legend in the top-left names each color.
func HistoryToSVG(hist *metrics.History, width, height int) string {
	if hist == nil || hist.Len() < 2 || len(hist.Names) == 0 {
		return ""
	}

	min, max := hist.Rows[0][0], hist.Rows[0][0]
	for _, row := range hist.Rows {
		for _, v := range row {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	span := max - min
	if span == 0 {
		span = 1
	}
	min -= span * 0.05
	max += span * 0.05
	span = max - min

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	n := hist.Len()
	for si, name := range hist.Names {
		color := strokeColors[si%len(strokeColors)]

		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
		for i := 0; i < n; i++ {
			x := float64(i) / float64(n-1) * float64(width)
			y := float64(height) - (hist.Rows[i][si]-min)/span*float64(height)
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")

		sb.WriteString(fmt.Sprintf(`<text x="10" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 18+si*16, color, name))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// SeriesToSVG renders a single series, e.g. one loss or a predicted field
// slice, as a standalone chart.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min
	if span == 0 {
		span = 1
	}
	min -= span * 0.05
	max += span * 0.05
	span = max - min

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, v := range values {
		x := float64(i) / float64(len(values)-1) * float64(width)
		y := float64(height) - (v-min)/span*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
