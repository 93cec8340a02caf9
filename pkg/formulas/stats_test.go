package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean_Basic(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil), "empty input should return 0")
	assert.Equal(t, 5.0, Mean([]float64{5}))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}

func TestStdDev_Population(t *testing.T) {
	// Classic population example: mean 5, variance 4
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2.0, StdDev(data), 1e-9)

	assert.Equal(t, 0.0, StdDev(nil), "empty input should return 0")
	assert.Equal(t, 0.0, StdDev([]float64{42}), "single sample has no spread")
	assert.Equal(t, 0.0, StdDev([]float64{3, 3, 3}), "constant series has no spread")
}

func TestVariance_Population(t *testing.T) {
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 4.0, Variance(data), 1e-9)
	assert.Equal(t, 0.0, Variance([]float64{1}))
}

func TestMinMax(t *testing.T) {
	data := []float64{3, -1, 7, 2}
	assert.Equal(t, -1.0, Min(data))
	assert.Equal(t, 7.0, Max(data))
	assert.Equal(t, 0.0, Min(nil))
	assert.Equal(t, 0.0, Max(nil))
}

func TestQuantile_Empirical(t *testing.T) {
	data := make([]float64, 100)
	for i := range data {
		data[i] = float64(i + 1)
	}

	assert.Equal(t, 85.0, Quantile(0.85, data))
	assert.Equal(t, 50.0, Quantile(0.50, data))
	assert.Equal(t, 100.0, Quantile(1.0, data))
}

func TestQuantile_ClampsProbability(t *testing.T) {
	data := []float64{10, 20, 30}

	assert.Equal(t, 10.0, Quantile(-0.5, data), "p below 0 clamps to min")
	assert.Equal(t, 30.0, Quantile(1.5, data), "p above 1 clamps to max")
}

func TestQuantile_DoesNotModifyInput(t *testing.T) {
	data := []float64{3, 1, 2}
	_ = Quantile(0.5, data)
	assert.Equal(t, []float64{3, 1, 2}, data)
}

func TestQuantile_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Quantile(0.85, nil))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 7.0, Median([]float64{7}))
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}), "even length averages the two middles")
}

func TestMedian_RobustToOutliers(t *testing.T) {
	data := []float64{30, 30, 30, 30, 30, 30, 30, 500, -200}
	assert.Equal(t, 30.0, Median(data))
}

func TestZScore_NonConstant(t *testing.T) {
	data := []float64{100, 150, 200, 250, 300, 120, 280, 190}

	z := ZScore(data)
	assert.Len(t, z, len(data))
	assert.InDelta(t, 0.0, Mean(z), 1e-9, "z-scored series should have zero mean")
	assert.InDelta(t, 1.0, StdDev(z), 1e-9, "z-scored series should have unit std")
}

func TestZScore_ConstantReturnsZeros(t *testing.T) {
	z := ZScore([]float64{200, 200, 200, 200})
	assert.Equal(t, []float64{0, 0, 0, 0}, z)
}

func TestZScore_DegenerateInputs(t *testing.T) {
	assert.Nil(t, ZScore(nil))
	assert.Equal(t, []float64{0}, ZScore([]float64{150}), "single sample normalizes to zero")
}
