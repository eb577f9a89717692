package detect

import (
	"image"

	"gocv.io/x/gocv"

	"vision-pipeline/internal/settings"
)

// runStandardProfile executes the seven-stage standard pipeline of
// spec.md §4.4: MOG2 → median(5) → open(5x5) → close(7x7) → open(3x3)
// → Canny(half thresholds, masked) → adaptive threshold (masked) →
// union → post-union morphology → small-part dilation.
//
// Returns the final "processed" mask (caller-owned, must Close) and
// the raw foreground mask fg0 for debug-view retention.
func (e *Engine) runStandardProfile(roi gocv.Mat, cfg settings.DetectionConfig) (processed gocv.Mat, fg0 gocv.Mat) {
	mog := e.ensureStandardBG(cfg)

	fg0 = gocv.NewMat()
	mog.Apply(roi, &fg0)

	fg1 := applyMedian(fg0, 5)
	fg2 := applyMorph(fg1, gocv.MorphOpen, 5, 1)
	fg1.Close()
	fg3 := applyMorph(fg2, gocv.MorphClose, 7, 1)
	fg2.Close()
	fgClean := applyMorph(fg3, gocv.MorphOpen, 3, 1)
	fg3.Close()

	edgeTri := e.computeEdgeMask(roi, fgClean, cfg)
	adaptTri := computeAdaptiveMask(roi, fgClean, cfg)

	combined := gocv.NewMat()
	gocv.BitwiseOr(fgClean, edgeTri, &combined)
	gocv.BitwiseOr(combined, adaptTri, &combined)
	edgeTri.Close()
	adaptTri.Close()
	e.replaceView(&e.views.Combined, combined)

	withMorph := applyPostUnionMorphology(combined, cfg)
	combined.Close()
	fgClean.Close()

	// Small-part enhancement: 2x2 dilation before connected components
	// so sub-10-pixel parts survive labeling (standard profile only).
	final := applyMorph(withMorph, gocv.MorphDilate, 2, 1)
	withMorph.Close()

	e.replaceView(&e.views.Processed, final)
	return final, fg0
}

// runUltraProfile executes the ultra-high-speed alternative: smaller
// history, larger varThreshold, a single 3x3 opening and 3x3 dilation
// — traded suppression quality for latency (spec.md §4.4).
func (e *Engine) runUltraProfile(roi gocv.Mat, cfg settings.DetectionConfig) (processed gocv.Mat, fg0 gocv.Mat) {
	mog := e.ensureUltraBG(cfg)

	fg0 = gocv.NewMat()
	mog.Apply(roi, &fg0)

	opened := applyMorph(fg0, gocv.MorphOpen, 3, 1)
	dilated := applyMorph(opened, gocv.MorphDilate, 3, 1)
	opened.Close()

	e.replaceView(&e.views.Combined, dilated.Clone())
	e.replaceView(&e.views.Processed, dilated.Clone())
	return dilated, fg0
}

// computeEdgeMask computes Canny edges on a lightly-blurred grayscale
// ROI at the "sensitive" tier (half the configured low/high
// thresholds), masks by fgClean, and thresholds >0 to binary.
func (e *Engine) computeEdgeMask(roi gocv.Mat, fgClean gocv.Mat, cfg settings.DetectionConfig) gocv.Mat {
	blurred := gocv.NewMat()
	gocv.GaussianBlur(roi, &blurred, image.Pt(3, 3), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	gocv.Canny(blurred, &edges, float32(cfg.CannyLowThreshold/2), float32(cfg.CannyHighThreshold/2))
	blurred.Close()

	masked := gocv.NewMat()
	gocv.BitwiseAnd(edges, fgClean, &masked)
	edges.Close()

	edgeTri := gocv.NewMat()
	gocv.Threshold(masked, &edgeTri, 0, 255, gocv.ThresholdBinary)
	masked.Close()

	e.replaceView(&e.views.EdgeMask, edgeTri.Clone())
	return edgeTri
}

// computeAdaptiveMask runs Gaussian-weighted adaptive threshold
// (block=11, C=2) on the ROI, masks by fgClean, and thresholds >127.
func computeAdaptiveMask(roi gocv.Mat, fgClean gocv.Mat, cfg settings.DetectionConfig) gocv.Mat {
	adaptive := gocv.NewMat()
	gocv.AdaptiveThreshold(roi, &adaptive, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, 11, 2)

	masked := gocv.NewMat()
	gocv.BitwiseAnd(adaptive, fgClean, &masked)
	adaptive.Close()

	adaptTri := gocv.NewMat()
	gocv.Threshold(masked, &adaptTri, 127, 255, gocv.ThresholdBinary)
	masked.Close()
	return adaptTri
}

// applyPostUnionMorphology runs the optional opening/dilation/closing
// sub-stages, each skipped when its kernel size is 1 or its iteration
// count is 0 (identity per spec.md §4.4/§4.9).
func applyPostUnionMorphology(combined gocv.Mat, cfg settings.DetectionConfig) gocv.Mat {
	out := combined.Clone()

	if cfg.OpeningKernelSize > 1 && cfg.OpeningIterations > 0 {
		next := applyMorph(out, gocv.MorphOpen, cfg.OpeningKernelSize, cfg.OpeningIterations)
		out.Close()
		out = next
	}
	if cfg.DilateKernelSize > 1 && cfg.DilateIterations > 0 {
		next := applyMorph(out, gocv.MorphDilate, cfg.DilateKernelSize, cfg.DilateIterations)
		out.Close()
		out = next
	}
	if cfg.CloseKernelSize > 1 {
		next := applyMorph(out, gocv.MorphClose, cfg.CloseKernelSize, 1)
		out.Close()
		out = next
	}
	if cfg.MorphKernelSize > 1 && cfg.MorphIterations > 0 {
		next := applyMorph(out, gocv.MorphOpen, cfg.MorphKernelSize, cfg.MorphIterations)
		out.Close()
		out = next
	}
	return out
}
