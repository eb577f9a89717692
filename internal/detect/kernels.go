package detect

import (
	"image"

	"gocv.io/x/gocv"
)

// applyMedian runs an odd-k median filter. k=1 is identity and is
// never called with a dst copy in that case by the caller's guards,
// but guard here too for direct callers.
func applyMedian(src gocv.Mat, k int) gocv.Mat {
	dst := gocv.NewMat()
	if k <= 1 {
		src.CopyTo(&dst)
		return dst
	}
	gocv.MedianBlur(src, &dst, k)
	return dst
}

// applyMorph runs one elliptical-kernel morphology op, `iterations`
// times. A kernel size of 1 means identity (spec.md §4.4/§4.9: "Any
// kernel-size parameter equal to 1 means skip that step").
func applyMorph(src gocv.Mat, op gocv.MorphType, kernelSize, iterations int) gocv.Mat {
	dst := gocv.NewMat()
	if kernelSize <= 1 || iterations <= 0 {
		src.CopyTo(&dst)
		return dst
	}

	kernel := gocv.GetStructuringElement(gocv.MorphShapeEllipse, image.Pt(kernelSize, kernelSize))
	defer kernel.Close()

	cur := src.Clone()
	for i := 0; i < iterations; i++ {
		next := gocv.NewMat()
		gocv.MorphologyEx(cur, &next, op, kernel)
		cur.Close()
		cur = next
	}
	cur.CopyTo(&dst)
	cur.Close()
	return dst
}
