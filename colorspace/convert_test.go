package colorspace

import (
	"math"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRGBToYUVLimitedWhiteBlack(t *testing.T) {
	y, u, v := RGBToYUV(1, 1, 1, MatrixBT709, LevelsLimited)
	if !near(y, 235.0/255) || !near(u, 128.0/255) || !near(v, 128.0/255) {
		t.Fatalf("white = %v %v %v, want 235/128/128 over 255", y, u, v)
	}

	y, u, v = RGBToYUV(0, 0, 0, MatrixBT709, LevelsLimited)
	if !near(y, 16.0/255) || !near(u, 128.0/255) || !near(v, 128.0/255) {
		t.Fatalf("black = %v %v %v, want 16/128/128 over 255", y, u, v)
	}
}

func TestRGBToYUVFullRange(t *testing.T) {
	y, _, _ := RGBToYUV(1, 1, 1, MatrixBT601, LevelsFull)
	if !near(y, 1) {
		t.Fatalf("full-range white luma = %v, want 1", y)
	}
	_, u, v := RGBToYUV(0.5, 0.5, 0.5, MatrixBT601, LevelsFull)
	if !near(u, 0.5) || !near(v, 0.5) {
		t.Fatalf("grey chroma = %v %v, want 0.5", u, v)
	}
}

func TestRGBMatrixIsIdentity(t *testing.T) {
	y, u, v := RGBToYUV(0.1, 0.2, 0.3, MatrixRGB, LevelsFull)
	if !near(y, 0.1) || !near(u, 0.2) || !near(v, 0.3) {
		t.Fatalf("RGB matrix not identity: %v %v %v", y, u, v)
	}
}

func TestYUVRoundTrip(t *testing.T) {
	for _, m := range []Matrix{MatrixBT601, MatrixBT709, MatrixBT2020NCL} {
		for _, lv := range []Levels{LevelsLimited, LevelsFull} {
			for _, rgb := range [][3]float64{
				{0, 0, 0}, {1, 1, 1}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1},
				{0.25, 0.5, 0.75}, {0.9, 0.1, 0.4},
			} {
				y, u, v := RGBToYUV(rgb[0], rgb[1], rgb[2], m, lv)
				r, g, b := YUVToRGB(y, u, v, m, lv)
				if math.Abs(r-rgb[0]) > 1e-9 || math.Abs(g-rgb[1]) > 1e-9 ||
					math.Abs(b-rgb[2]) > 1e-9 {
					t.Fatalf("matrix %v levels %v: %v -> %v %v %v", m, lv, rgb, r, g, b)
				}
			}
		}
	}
}

func TestNeutralChroma(t *testing.T) {
	if v := NeutralChroma(MatrixBT601, LevelsLimited); !near(v, 128.0/255) {
		t.Fatalf("limited neutral = %v, want 128/255", v)
	}
	if v := NeutralChroma(MatrixBT709, LevelsFull); !near(v, 0.5) {
		t.Fatalf("full neutral = %v, want 0.5", v)
	}
}

func TestGuessLevels(t *testing.T) {
	if lv := (Params{Matrix: MatrixRGB}).GuessLevels(); lv != LevelsFull {
		t.Fatalf("RGB auto levels = %v, want full", lv)
	}
	if lv := (Params{Matrix: MatrixBT709}).GuessLevels(); lv != LevelsLimited {
		t.Fatalf("YUV auto levels = %v, want limited", lv)
	}
	if lv := (Params{Matrix: MatrixBT709, Levels: LevelsFull}).GuessLevels(); lv != LevelsFull {
		t.Fatalf("explicit levels overridden: %v", lv)
	}
}
