// Package eval implements the event-detection robustness pipeline.
//
// A windowed time-series classifier is run repeatedly over the same
// input to estimate prediction stability. The per-window mean
// probabilities are reconstructed into a continuous per-sample curve,
// smoothed, thresholded, and segmented into predicted events. Predicted
// events are scored against ground-truth events by temporal IoU and
// classified as correct, substitution, insertion or deletion (ICSD),
// from which the trust metrics (detection ratio, reliability, event
// error rate) are derived.
//
// Stage order: aggregate → reconstruct → smooth → extract → match →
// metrics. The Analyzer wires the stages for one instance; AnalyzeMany
// and AnalyzeBatch fan the single-instance pipeline out over a
// collection.
//
// The classifier, the low-pass filter and the batch data-preparation
// transform are collaborators supplied by the caller; see Classifier,
// FilterFunc and Transform.
package eval
