// Package worker runs the transcription pipeline for one job at a time and
// bounds how many jobs run at once.
//
// A job moves through
//
//	ValidateInput → ClassifyFormat → FetchCredentials → EnsureBucket → Stage →
//	Recognize → WriteRawOutput → FormatCaptions → WriteCaptionOutput →
//	WriteTextOutput → ReportSuccess
//
// and any step may end it with ReportFailure. Once Stage succeeds the staged
// object is released exactly once before the outcome is reported, and a
// failed release is logged without changing that outcome.
package worker
