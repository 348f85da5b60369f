package engine

import (
	"errors"
	"slices"

	"github.com/dshills/gohmmer/internal/hmm"
	"github.com/dshills/gohmmer/internal/profile"
	"github.com/dshills/gohmmer/internal/tophits"
)

var errTraceback = errors.New("viterbi traceback left the matrix")

type state int

const (
	stN state = iota
	stB
	stM
	stI
	stD
	stE
	stJ
	stC
)

// domains walks the optimal path of the last viterbi call back from C and
// returns one domain per B..E segment, in sequence order. Envelopes are the
// aligned region.
func (mx *matrix) domains(om *profile.Optimized, L int) ([]tophits.Domain, error) {
	xsc := &om.Xsc
	var out []tophits.Domain
	var cur *tophits.Domain

	st, i, k := stC, L, 0
	for st != stN {
		if i < 0 || k < 0 || i > L || k > mx.M {
			return nil, errTraceback
		}
		switch st {
		case stC:
			if i > 0 && mx.xC[i-1]+xsc[profile.XC][profile.Loop] >= mx.xE[i]+xsc[profile.XE][profile.Move] {
				i--
			} else {
				st = stE
			}

		case stJ:
			if i > 0 && mx.xJ[i-1]+xsc[profile.XJ][profile.Loop] >= mx.xE[i]+xsc[profile.XE][profile.Loop] {
				i--
			} else {
				st = stE
			}

		case stE:
			if i == 0 {
				return nil, errTraceback
			}
			best, bestK, fromM := negInf, 0, true
			for kk := 1; kk <= mx.M; kk++ {
				if v := mx.mm[mx.at(i, kk)]; v > best {
					best, bestK, fromM = v, kk, true
				}
				if v := mx.dd[mx.at(i, kk)]; v > best {
					best, bestK, fromM = v, kk, false
				}
			}
			if bestK == 0 {
				return nil, errTraceback
			}
			out = append(out, tophits.Domain{})
			cur = &out[len(out)-1]
			k = bestK
			if fromM {
				st = stM
			} else {
				st = stD
			}

		case stM:
			if cur.AliTo == 0 {
				cur.AliTo, cur.HMMTo = i, k
			}
			cur.AliFrom, cur.HMMFrom = i, k

			prv := mx.at(i-1, 0)
			t := &om.Tsc[k-1]
			st = argmax(
				choice{mx.mm[prv+k-1] + t[hmm.TMM], stM},
				choice{mx.ii[prv+k-1] + t[hmm.TIM], stI},
				choice{mx.dd[prv+k-1] + t[hmm.TDM], stD},
				choice{mx.xB[i-1] + om.Bsc[k], stB},
			)
			i--
			if st != stB {
				k--
			}

		case stI:
			prv := mx.at(i-1, 0)
			t := &om.Tsc[k]
			st = argmax(
				choice{mx.mm[prv+k] + t[hmm.TMI], stM},
				choice{mx.ii[prv+k] + t[hmm.TII], stI},
			)
			i--

		case stD:
			row := mx.at(i, 0)
			t := &om.Tsc[k-1]
			st = argmax(
				choice{mx.mm[row+k-1] + t[hmm.TMD], stM},
				choice{mx.dd[row+k-1] + t[hmm.TDD], stD},
			)
			k--

		case stB:
			if cur != nil {
				cur.EnvFrom, cur.EnvTo = cur.AliFrom, cur.AliTo
				cur = nil
			}
			st = argmax(
				choice{mx.xN[i] + xsc[profile.XN][profile.Move], stN},
				choice{mx.xJ[i] + xsc[profile.XJ][profile.Move], stJ},
			)
		}
	}

	// a segment made only of delete states carries no residues
	out = slices.DeleteFunc(out, func(d tophits.Domain) bool { return d.AliTo == 0 })
	slices.Reverse(out)
	return out, nil
}

type choice struct {
	score float64
	next  state
}

// argmax returns the state of the best scoring choice; ties go to the earliest
func argmax(choices ...choice) state {
	best := choices[0]
	for _, c := range choices[1:] {
		if c.score > best.score {
			best = c
		}
	}
	return best.next
}
