package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TTest is the result of a two-sided independent two-sample t-test.
type TTest struct {
	Statistic float64
	DF        float64
	P         float64
}

// TTestInd compares the means of a and b assuming equal variances (Student's
// t-test).
func TTestInd(a, b []float64) (TTest, error) {
	na, nb := float64(len(a)), float64(len(b))
	if len(a) < 2 || len(b) < 2 {
		return TTest{}, fmt.Errorf("t-test needs at least two values per sample, got %d and %d", len(a), len(b))
	}
	ma, va := stat.MeanVariance(a, nil)
	mb, vb := stat.MeanVariance(b, nil)

	df := na + nb - 2
	pooled := ((na-1)*va + (nb-1)*vb) / df
	se := math.Sqrt(pooled * (1/na + 1/nb))
	t := (ma - mb) / se

	res := TTest{Statistic: t, DF: df}
	if math.IsNaN(t) {
		res.P = math.NaN()
		return res, nil
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	res.P = 2 * dist.CDF(-math.Abs(t))
	return res, nil
}
