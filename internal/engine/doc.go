// Package engine scores target sequences against optimized profiles.
//
// Engine is the capability the search executor drives for every target:
// account for the sequence, set the null and profile lengths, then Score.
// Generic is a reference implementation in plain log-space dynamic
// programming:
//
//   - an ungapped MSV filter, P-value from a Gumbel fit (threshold F1)
//   - a Viterbi filter, P-value from a Gumbel fit (threshold F2)
//   - a Forward score, P-value from an exponential tail (threshold F3)
//
// Pipeline.Max disables all three thresholds. A target that passes is split
// into domains along its Viterbi path; each domain is rescored with Forward
// over its own envelope. The hit's bit score is the Forward score against the
// null model and its sort key is -lnP.
//
// Scores follow the same models as HMMER3 but are not bit-identical to it.
package engine
