// Package detect implements C4 DetectionEngine: foreground-aware
// multi-stage binarization plus connected-components statistics
// (spec.md §4.4). The stage pipeline mirrors the teacher's one-file-
// per-concern style; gocv.io/x/gocv supplies every image operation.
package detect

import (
	"image"

	"gocv.io/x/gocv"

	"vision-pipeline/internal/model"
	"vision-pipeline/internal/settings"
)

// Detector is the frame-in/objects-out contract every detection branch
// implements. The standard + ultra-high-speed profiles below are the
// one concrete implementation this spec covers; a YOLO or
// defect-detection branch (spec.md §9 Open Questions) would implement
// the same interface and is not specified further here.
type Detector interface {
	Process(frame model.Frame, cfg settings.DetectionConfig, perf settings.PerformanceConfig) ([]model.DetectedObject, error)
	DebugViews() DebugViews
	Close()
}

// DebugViews holds the most recent intermediate outputs so an external
// visualizer can request them; each is overwritten every frame
// (spec.md §4.4).
type DebugViews struct {
	Foreground gocv.Mat // fg0
	EdgeMask   gocv.Mat // edgeTri
	Combined   gocv.Mat // combined
	Processed  gocv.Mat // processed
}

// Engine is the concrete Detector: standard seven-stage profile plus
// the ultra-high-speed alternative, selected per-frame by
// cfg.UltraHighSpeedMode.
type Engine struct {
	standardMOG *gocv.BackgroundSubtractorMOG2
	standardCfg standardBGParams

	ultraMOG *gocv.BackgroundSubtractorMOG2
	ultraCfg standardBGParams

	views DebugViews
}

type standardBGParams struct {
	history       int
	varThreshold  float64
	detectShadows bool
}

// NewEngine constructs a detection engine with no background model yet
// built; the model is created lazily on first Process call and rebuilt
// whenever the background-subtraction parameters change or Reset is
// called (e.g. by GateCounter on count reset, spec.md §4.5).
func NewEngine() *Engine {
	return &Engine{}
}

// Reset discards the current background models so the next Process
// call rebuilds them from scratch.
func (e *Engine) Reset() {
	if e.standardMOG != nil {
		e.standardMOG.Close()
		e.standardMOG = nil
	}
	if e.ultraMOG != nil {
		e.ultraMOG.Close()
		e.ultraMOG = nil
	}
}

func (e *Engine) ensureStandardBG(cfg settings.DetectionConfig) *gocv.BackgroundSubtractorMOG2 {
	want := standardBGParams{cfg.BGHistory, cfg.BGVarThreshold, cfg.DetectShadows}
	if e.standardMOG != nil && e.standardCfg == want {
		return e.standardMOG
	}
	if e.standardMOG != nil {
		e.standardMOG.Close()
	}
	mog := gocv.NewBackgroundSubtractorMOG2WithParams(cfg.BGHistory, cfg.BGVarThreshold, cfg.DetectShadows)
	e.standardMOG = &mog
	e.standardCfg = want
	return e.standardMOG
}

func (e *Engine) ensureUltraBG(cfg settings.DetectionConfig) *gocv.BackgroundSubtractorMOG2 {
	want := standardBGParams{cfg.HighSpeedBGHistory, cfg.HighSpeedBGVarThreshold, false}
	if e.ultraMOG != nil && e.ultraCfg == want {
		return e.ultraMOG
	}
	if e.ultraMOG != nil {
		e.ultraMOG.Close()
	}
	mog := gocv.NewBackgroundSubtractorMOG2WithParams(cfg.HighSpeedBGHistory, cfg.HighSpeedBGVarThreshold, false)
	e.ultraMOG = &mog
	e.ultraCfg = want
	return e.ultraMOG
}

// Process runs the configured profile over frame and returns the
// surviving DetectedObjects in full-frame coordinates.
func (e *Engine) Process(frame model.Frame, cfg settings.DetectionConfig, perf settings.PerformanceConfig) ([]model.DetectedObject, error) {
	roi, roiX, roiY, scale, ownsROI := extractROI(frame.Mat, cfg, perf)
	defer func() {
		if ownsROI {
			roi.Close()
		}
	}()

	var processed gocv.Mat
	var fg0 gocv.Mat
	if cfg.UltraHighSpeedMode {
		processed, fg0 = e.runUltraProfile(roi, cfg)
	} else {
		processed, fg0 = e.runStandardProfile(roi, cfg)
	}
	defer processed.Close()
	e.replaceView(&e.views.Foreground, fg0)
	fg0.Close()

	objects := connectedComponents(processed, cfg, roiX, roiY, scale)
	return objects, nil
}

func (e *Engine) replaceView(dst *gocv.Mat, src gocv.Mat) {
	if !dst.Empty() {
		dst.Close()
	}
	*dst = src.Clone()
}

// DebugViews returns the most recently captured intermediate outputs.
func (e *Engine) DebugViews() DebugViews { return e.views }

// Close releases every retained background model and debug view.
func (e *Engine) Close() {
	e.Reset()
	for _, m := range []*gocv.Mat{&e.views.Foreground, &e.views.EdgeMask, &e.views.Combined, &e.views.Processed} {
		if !m.Empty() {
			m.Close()
		}
	}
}

// extractROI returns the region the rest of the pipeline should
// process: the configured strip (or the full frame), optionally
// downscaled to perf.TargetProcessingWidth. It returns the ROI origin
// in original-frame coordinates and the scale factor to undo before
// reporting centroids (spec.md §6 targetProcessingWidth).
func extractROI(src gocv.Mat, cfg settings.DetectionConfig, perf settings.PerformanceConfig) (roi gocv.Mat, roiX, roiY int, scale float64, owns bool) {
	scale = 1.0
	full := src
	roiX, roiY = 0, 0
	ownsFull := false

	if cfg.ROIEnabled {
		w := cfg.ROIWidth
		if w == 0 {
			w = src.Cols()
		}
		rect := image.Rect(cfg.ROIX, cfg.ROIY, cfg.ROIX+w, cfg.ROIY+cfg.ROIHeight)
		full = src.Region(rect)
		roiX, roiY = cfg.ROIX, cfg.ROIY
		ownsFull = true
	}

	if perf.TargetProcessingWidth > 0 && perf.TargetProcessingWidth < full.Cols() {
		scale = float64(full.Cols()) / float64(perf.TargetProcessingWidth)
		targetHeight := int(float64(full.Rows()) / scale)
		resized := gocv.NewMat()
		gocv.Resize(full, &resized, image.Pt(perf.TargetProcessingWidth, targetHeight), 0, 0, gocv.InterpolationLinear)
		if ownsFull {
			full.Close()
		}
		return resized, roiX, roiY, scale, true
	}

	return full, roiX, roiY, scale, ownsFull
}
