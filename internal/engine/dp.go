package engine

import (
	"math"

	"github.com/dshills/gohmmer/internal/hmm"
	"github.com/dshills/gohmmer/internal/profile"
)

var negInf = math.Inf(-1)

// matrix is a full Viterbi matrix kept for traceback
type matrix struct {
	M, L int
	mm   []float64 // (L+1)*(M+1), match
	ii   []float64 // insert
	dd   []float64 // delete
	xN   []float64
	xB   []float64
	xE   []float64
	xJ   []float64
	xC   []float64
}

func (mx *matrix) resize(M, L int) {
	mx.M, mx.L = M, L
	cells := (L + 1) * (M + 1)
	mx.mm = grow(mx.mm, cells)
	mx.ii = grow(mx.ii, cells)
	mx.dd = grow(mx.dd, cells)
	mx.xN = grow(mx.xN, L+1)
	mx.xB = grow(mx.xB, L+1)
	mx.xE = grow(mx.xE, L+1)
	mx.xJ = grow(mx.xJ, L+1)
	mx.xC = grow(mx.xC, L+1)
}

func (mx *matrix) at(i, k int) int {
	return i*(mx.M+1) + k
}

func grow(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}

// viterbi fills the matrix for dsq[1..L] and returns the optimal path score in nats
func (mx *matrix) viterbi(om *profile.Optimized, dsq []byte, L int) float64 {
	M := om.M
	mx.resize(M, L)
	xsc := &om.Xsc

	for k := 0; k <= M; k++ {
		mx.mm[k], mx.ii[k], mx.dd[k] = negInf, negInf, negInf
	}
	mx.xN[0] = 0
	mx.xB[0] = xsc[profile.XN][profile.Move]
	mx.xE[0], mx.xJ[0], mx.xC[0] = negInf, negInf, negInf

	for i := 1; i <= L; i++ {
		rsc := om.Rsc[dsq[i]]
		cur, prv := mx.at(i, 0), mx.at(i-1, 0)
		mx.mm[cur], mx.ii[cur], mx.dd[cur] = negInf, negInf, negInf
		xE := negInf

		for k := 1; k <= M; k++ {
			t := &om.Tsc[k-1]
			sc := max(
				mx.mm[prv+k-1]+t[hmm.TMM],
				mx.ii[prv+k-1]+t[hmm.TIM],
				mx.dd[prv+k-1]+t[hmm.TDM],
				mx.xB[i-1]+om.Bsc[k],
			)
			mx.mm[cur+k] = sc + rsc[k]

			if k > 1 {
				mx.dd[cur+k] = max(mx.mm[cur+k-1]+t[hmm.TMD], mx.dd[cur+k-1]+t[hmm.TDD])
			} else {
				mx.dd[cur+k] = negInf
			}

			if k < M {
				tk := &om.Tsc[k]
				mx.ii[cur+k] = max(mx.mm[prv+k]+tk[hmm.TMI], mx.ii[prv+k]+tk[hmm.TII])
			} else {
				mx.ii[cur+k] = negInf
			}

			xE = max(xE, mx.mm[cur+k], mx.dd[cur+k])
		}

		mx.xE[i] = xE
		mx.xJ[i] = max(mx.xJ[i-1]+xsc[profile.XJ][profile.Loop], xE+xsc[profile.XE][profile.Loop])
		mx.xC[i] = max(mx.xC[i-1]+xsc[profile.XC][profile.Loop], xE+xsc[profile.XE][profile.Move])
		mx.xN[i] = mx.xN[i-1] + xsc[profile.XN][profile.Loop]
		mx.xB[i] = max(mx.xN[i]+xsc[profile.XN][profile.Move], mx.xJ[i]+xsc[profile.XJ][profile.Move])
	}
	return mx.xC[L] + xsc[profile.XC][profile.Move]
}

// rowPair holds two rolling rows for the filters that need no traceback
type rowPair struct {
	mPrev, mCur []float64
	iPrev, iCur []float64
	dPrev, dCur []float64
}

func (r *rowPair) resize(M int) {
	r.mPrev, r.mCur = grow(r.mPrev, M+1), grow(r.mCur, M+1)
	r.iPrev, r.iCur = grow(r.iPrev, M+1), grow(r.iCur, M+1)
	r.dPrev, r.dCur = grow(r.dPrev, M+1), grow(r.dCur, M+1)
	for k := 0; k <= M; k++ {
		r.mPrev[k], r.iPrev[k], r.dPrev[k] = negInf, negInf, negInf
	}
}

func (r *rowPair) swap() {
	r.mPrev, r.mCur = r.mCur, r.mPrev
	r.iPrev, r.iCur = r.iCur, r.iPrev
	r.dPrev, r.dCur = r.dCur, r.dPrev
}

// msv scores dsq[from..to] with the ungapped multihit local filter: match
// states only, uniform entry, free match-to-match moves.
func (r *rowPair) msv(om *profile.Optimized, dsq []byte, from, to int) float64 {
	M := om.M
	r.resize(M)
	xsc := &om.Xsc

	xN := 0.0
	xB := xsc[profile.XN][profile.Move]
	xJ, xC := negInf, negInf

	for i := from; i <= to; i++ {
		rsc := om.Rsc[dsq[i]]
		r.mCur[0] = negInf
		xE := negInf
		for k := 1; k <= M; k++ {
			r.mCur[k] = max(r.mPrev[k-1], xB+om.MSVEntry) + rsc[k]
			xE = max(xE, r.mCur[k])
		}
		xJ = max(xJ+xsc[profile.XJ][profile.Loop], xE+xsc[profile.XE][profile.Loop])
		xC = max(xC+xsc[profile.XC][profile.Loop], xE+xsc[profile.XE][profile.Move])
		xN += xsc[profile.XN][profile.Loop]
		xB = max(xN+xsc[profile.XN][profile.Move], xJ+xsc[profile.XJ][profile.Move])
		r.mPrev, r.mCur = r.mCur, r.mPrev
	}
	return xC + xsc[profile.XC][profile.Move]
}

// forward sums over all paths for dsq[from..to] and returns the log
// likelihood in nats
func (r *rowPair) forward(om *profile.Optimized, dsq []byte, from, to int) float64 {
	M := om.M
	r.resize(M)
	xsc := &om.Xsc

	xN := 0.0
	xB := xsc[profile.XN][profile.Move]
	xJ, xC := negInf, negInf

	for i := from; i <= to; i++ {
		rsc := om.Rsc[dsq[i]]
		r.mCur[0], r.iCur[0], r.dCur[0] = negInf, negInf, negInf
		xE := negInf

		for k := 1; k <= M; k++ {
			t := &om.Tsc[k-1]
			sc := logsum(
				logsum(r.mPrev[k-1]+t[hmm.TMM], r.iPrev[k-1]+t[hmm.TIM]),
				logsum(r.dPrev[k-1]+t[hmm.TDM], xB+om.Bsc[k]),
			)
			r.mCur[k] = sc + rsc[k]

			if k > 1 {
				r.dCur[k] = logsum(r.mCur[k-1]+t[hmm.TMD], r.dCur[k-1]+t[hmm.TDD])
			} else {
				r.dCur[k] = negInf
			}

			if k < M {
				tk := &om.Tsc[k]
				r.iCur[k] = logsum(r.mPrev[k]+tk[hmm.TMI], r.iPrev[k]+tk[hmm.TII])
			} else {
				r.iCur[k] = negInf
			}

			xE = logsum(xE, logsum(r.mCur[k], r.dCur[k]))
		}

		xJ = logsum(xJ+xsc[profile.XJ][profile.Loop], xE+xsc[profile.XE][profile.Loop])
		xC = logsum(xC+xsc[profile.XC][profile.Loop], xE+xsc[profile.XE][profile.Move])
		xN += xsc[profile.XN][profile.Loop]
		xB = logsum(xN+xsc[profile.XN][profile.Move], xJ+xsc[profile.XJ][profile.Move])
		r.swap()
	}
	return xC + xsc[profile.XC][profile.Move]
}

// logsum returns log(exp(a) + exp(b))
func logsum(a, b float64) float64 {
	if a < b {
		a, b = b, a
	}
	if math.IsInf(b, -1) {
		return a
	}
	return a + math.Log1p(math.Exp(b-a))
}
