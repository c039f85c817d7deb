package diffexpr

import (
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat"
)

// maxDF caps the total degrees of freedom when the prior df estimate is
// effectively infinite (all gene variances equal); at this size the t
// distribution is indistinguishable from normal.
const maxDF = 1e6

// s2Floor keeps log(s2) finite for genes whose groups are exactly
// constant.
const s2Floor = 1e-10

// fitFDist estimates the prior degrees of freedom d0 and prior variance
// s0² of the scaled F-distribution assumed for the gene-wise residual
// variances, by matching moments of log(s2). Returns d0 = +Inf when the
// observed spread of log variances is no larger than expected from the
// residual df alone.
func fitFDist(s2 []float64, df float64) (d0, s0sq float64) {
	z := make([]float64, len(s2))
	for i, v := range s2 {
		if v < s2Floor {
			v = s2Floor
		}
		z[i] = math.Log(v)
	}

	offset := mathext.Digamma(df/2) - math.Log(df/2)
	for i := range z {
		z[i] -= offset
	}

	emean := stat.Mean(z, nil)
	evar := stat.Variance(z, nil) - trigamma(df/2)

	if !(evar > 0) || len(z) < 2 {
		return math.Inf(1), math.Exp(emean)
	}

	d0 = 2 * trigammaInverse(evar)
	s0sq = math.Exp(emean + mathext.Digamma(d0/2) - math.Log(d0/2))
	return d0, s0sq
}

// trigamma is the second derivative of log Gamma, computed with the
// recurrence for small arguments and the asymptotic series beyond.
func trigamma(x float64) float64 {
	if x <= 0 {
		return math.NaN()
	}
	var acc float64
	for x < 6 {
		acc += 1 / (x * x)
		x++
	}
	// Asymptotic expansion in 1/x.
	inv := 1 / (x * x)
	return acc + 1/x + inv/2 +
		inv/x*(1.0/6-inv*(1.0/30-inv*(1.0/42-inv/30)))
}

// trigammaInverse solves trigamma(x) = y for x > 0 by bisection;
// trigamma is strictly decreasing on (0, inf).
func trigammaInverse(y float64) float64 {
	if y <= 0 {
		return math.Inf(1)
	}

	lo, hi := 1e-8, 1e8
	for i := 0; i < 200; i++ {
		mid := math.Sqrt(lo * hi) // geometric: the root spans magnitudes
		if trigamma(mid) > y {
			lo = mid
		} else {
			hi = mid
		}
		if hi/lo < 1+1e-12 {
			break
		}
	}
	return math.Sqrt(lo * hi)
}
