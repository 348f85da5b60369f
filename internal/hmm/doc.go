// Package hmm loads profile hidden Markov models from HMMER3 ASCII save files.
//
// A save file holds one or more records. Each record starts with a
// "HMMER3/<version>" line, continues with tag lines (NAME, ACC, DESC, LENG,
// ALPH, NSEQ, EFFN, CKSUM, GA, TC, NC, STATS and others that are skipped)
// and ends with the parameter section introduced by the HMM line and closed
// by "//". Parameters are stored in the file as negative natural logs, with
// "*" standing for a zero probability; Model keeps them as probabilities.
//
// Usage:
//
//	models, err := hmm.LoadAll("globins4.hmm")
//	if errors.Is(err, types.ErrFormat) {
//		// malformed record, err names the file and line
//	}
//
// For streaming access use Open and call Read until it returns io.EOF.
package hmm
