package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

func TestApplyMedian_KernelOneIsIdentity(t *testing.T) {
	src := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC1)
	defer src.Close()
	src.SetUCharAt(3, 3, 200)

	out := applyMedian(src, 1)
	defer out.Close()

	assert.Equal(t, uint8(200), out.GetUCharAt(3, 3))
}

func TestApplyMorph_KernelOneIsIdentity(t *testing.T) {
	src := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC1)
	defer src.Close()
	src.SetUCharAt(2, 2, 255)

	out := applyMorph(src, gocv.MorphOpen, 1, 1)
	defer out.Close()

	assert.Equal(t, uint8(255), out.GetUCharAt(2, 2))
}

func TestApplyMorph_ZeroIterationsIsIdentity(t *testing.T) {
	src := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC1)
	defer src.Close()
	src.SetUCharAt(2, 2, 255)

	out := applyMorph(src, gocv.MorphDilate, 5, 0)
	defer out.Close()

	assert.Equal(t, uint8(255), out.GetUCharAt(2, 2))
}
