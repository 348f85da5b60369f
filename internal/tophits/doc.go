// Package tophits accumulates the hits of one query search and turns them
// into a ranked, thresholded list.
//
// Hits are added unsorted as the engine finds them. SortBySortkey ranks them
// (best first) and Threshold flags which hits and domains are reported and
// included under a pipeline's thresholds. Threshold is idempotent.
package tophits
