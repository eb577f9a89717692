package detect

import (
	"gocv.io/x/gocv"

	"vision-pipeline/internal/model"
	"vision-pipeline/internal/settings"
)

// connectedComponents labels the binary mask and filters surviving
// components by area, aspect ratio, and extent (spec.md §4.4),
// reporting centroids in full-frame coordinates.
//
// connectedComponentsStats column layout matches gocv's
// ConnectedComponentsWithStats: [CC_STAT_LEFT, CC_STAT_TOP,
// CC_STAT_WIDTH, CC_STAT_HEIGHT, CC_STAT_AREA].
const (
	statLeft = iota
	statTop
	statWidth
	statHeight
	statArea
)

func connectedComponents(mask gocv.Mat, cfg settings.DetectionConfig, roiX, roiY int, scale float64) []model.DetectedObject {
	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	minArea, maxArea := cfg.MinArea, cfg.MaxArea
	if cfg.UltraHighSpeedMode {
		minArea, maxArea = cfg.HighSpeedMinArea, cfg.HighSpeedMaxArea
	}

	n := gocv.ConnectedComponentsWithStats(mask, &labels, &stats, &centroids, 8, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)

	var out []model.DetectedObject
	for label := 1; label < n; label++ {
		area := stats.GetIntAt(label, statArea)
		if int(area) < minArea || int(area) > maxArea {
			continue
		}

		x := int(stats.GetIntAt(label, statLeft))
		y := int(stats.GetIntAt(label, statTop))
		w := int(stats.GetIntAt(label, statWidth))
		h := int(stats.GetIntAt(label, statHeight))
		if w == 0 || h == 0 {
			continue
		}

		aspectRatio := float64(min(w, h)) / float64(max(w, h))
		if aspectRatio < cfg.MinAspectRatio || aspectRatio > cfg.MaxAspectRatio {
			continue
		}

		extent := float64(area) / float64(w*h)
		if extent < cfg.MinExtent {
			continue
		}

		cx := centroids.GetDoubleAt(label, 0)
		cy := centroids.GetDoubleAt(label, 1)

		out = append(out, model.DetectedObject{
			X:    int(float64(x)*scale) + roiX,
			Y:    int(float64(y)*scale) + roiY,
			W:    int(float64(w) * scale),
			H:    int(float64(h) * scale),
			CX:   cx*scale + float64(roiX),
			CY:   cy*scale + float64(roiY),
			Area: int(area),
		})
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
