// Package report summarizes a computed thickness map with descriptive
// statistics: mean, variance, percentiles, and a histogram of diameters
// over the volume's foreground voxels.
package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"localthickness/pkg/voxel"
)

// Summary holds descriptive statistics of a thickness map restricted
// to its foreground voxels (thickness == 0 is background and excluded,
// mirroring StackStatistics's histogram-from-threshold convention).
type Summary struct {
	Count    int
	Mean     float64
	Variance float64
	StdDev   float64
	Min      float64
	Max      float64

	// Median and Percentile95 are order-statistic summaries, computed
	// with stat.Quantile over the sorted foreground values.
	Median       float64
	Percentile95 float64

	// Histogram buckets foreground thickness values into uniform bins
	// spanning [Min, Max].
	Histogram []float64
	Dividers  []float64
}

// Summarize computes a Summary over every foreground voxel of a
// thickness map, where "foreground" means a positive value -- the
// pipeline always leaves true background voxels at exactly 0.
func Summarize(thicknessMap *voxel.FloatVolume, numBins int) Summary {
	values := foregroundValues(thicknessMap)
	if len(values) == 0 {
		return Summary{}
	}

	sort.Float64s(values)

	mean := stat.Mean(values, nil)

	// stat.Variance is the sample variance (divides by n-1), which is
	// undefined for a single observation; treat a lone foreground voxel
	// as having zero spread rather than propagating NaN.
	var variance float64
	if len(values) >= 2 {
		variance = stat.Variance(values, nil)
	}

	summary := Summary{
		Count:        len(values),
		Mean:         mean,
		Variance:     variance,
		StdDev:       math.Sqrt(variance),
		Min:          values[0],
		Max:          values[len(values)-1],
		Median:       stat.Quantile(0.5, stat.Empirical, values, nil),
		Percentile95: stat.Quantile(0.95, stat.Empirical, values, nil),
	}

	if numBins > 0 {
		summary.Dividers = make([]float64, numBins+1)
		floats.Span(summary.Dividers, summary.Min, summary.Max)
		// stat.Histogram requires every value to lie strictly below the
		// last divider, so it bins with a copy whose upper edge sits just
		// past Max; the reported Dividers still end at Max.
		edges := append([]float64(nil), summary.Dividers...)
		edges[numBins] = math.Nextafter(summary.Max, math.Inf(1))
		summary.Histogram = make([]float64, numBins)
		stat.Histogram(summary.Histogram, edges, values, nil)
	}

	return summary
}

func foregroundValues(v *voxel.FloatVolume) []float64 {
	values := make([]float64, 0, len(v.Data))
	for _, d := range v.Data {
		if d > 0 {
			values = append(values, float64(d))
		}
	}
	return values
}

