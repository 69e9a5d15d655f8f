// Package transcription defines the recognition types shared by the worker:
// audio encodings, the extension classifier, word-timed recognition results
// and the Recognizer interface implemented by speech backends.
//
// # Backends
//
//   - transcription/googlespeech: Google Cloud Speech-to-Text v1 long-running recognition
package transcription
