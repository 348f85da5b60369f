// Package pipeline holds the per-model search state shared by the scoring
// engine and the hit list: reporting and inclusion thresholds, filter
// P-value thresholds, the search space size Z used for E-values, and
// accounting of models, sequences and residues processed.
//
// Z tracks the number of sequences seen unless fixed by option. The domain
// search space DomZ is set from the number of reported hits when the hit
// list is thresholded, unless fixed by option.
package pipeline
