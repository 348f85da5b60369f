// Package search runs profile HMM searches.
//
// An Executor binds one model to everything needed to score targets against
// it: a null model, an optimized profile, a pipeline and a hit list. Feed it
// a sequence database with RunDatabase or SearchFile, or single sequences
// with Query, then call Finalize to rank and threshold the hits:
//
//	x, err := search.New(model)
//	if err != nil {
//		return err
//	}
//	defer x.Close()
//	if err := x.SearchFile("targets.fa", search.Unlimited); err != nil {
//		return err
//	}
//	res := x.Finalize()
//	for hit := range res.Hits() {
//		fmt.Println(hit.Name(), hit.Score(), hit.EValue())
//	}
//
// Result, Hit and Domain are read-only views into the executor's hit list.
// E-values are computed on every call as exp(lnP) times the pipeline's
// current Z, so a view taken before more targets are scored reflects the
// grown search space.
//
// Executors are single-threaded. RunAll searches several models against one
// database in parallel, one executor and file handle per model.
package search
