package pipeline

import (
	"gocv.io/x/gocv"

	"vision-pipeline/internal/gate"
	"vision-pipeline/internal/settings"
)

func toROIGeometry(cfg settings.DetectionConfig) gate.ROIGeometry {
	return gate.ROIGeometry{
		Enabled: cfg.ROIEnabled,
		Y:       cfg.ROIY,
		Height:  cfg.ROIHeight,
	}
}

// newProbeMat builds an empty Mat of the configured camera frame size,
// used only to tell the recorder the container dimensions at Start.
func newProbeMat(cfg settings.CameraConfig) gocv.Mat {
	w, h := cfg.Width, cfg.Height
	if w <= 0 {
		w = 640
	}
	if h <= 0 {
		h = 480
	}
	return gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC1)
}
