// Package caption turns word-timed recognition results into WebVTT captions.
//
// Words are packed greedily into cues of at most MaxCueLength characters,
// and a cue always ends after a word closing a sentence.
package caption
