package transcription

import (
	"net/url"
	"strings"

	"github.com/kbukum/transcribe-worker/errors"
)

// AudioEncoding is the recognizer's name for an audio container/codec.
type AudioEncoding string

// Supported encodings.
const (
	EncodingFLAC        AudioEncoding = "FLAC"
	EncodingLinear16    AudioEncoding = "LINEAR16"
	EncodingMULAW       AudioEncoding = "MULAW"
	EncodingAMR         AudioEncoding = "AMR"
	EncodingAMRWB       AudioEncoding = "AMR_WB"
	EncodingOggOpus     AudioEncoding = "OGG_OPUS"
	EncodingSpeexHeader AudioEncoding = "SPEEX_WITH_HEADER_BYTE"
	EncodingWebMOpus    AudioEncoding = "WEBM_OPUS"
)

var encodingsByExtension = map[string]AudioEncoding{
	"flac": EncodingFLAC,
	"wav":  EncodingLinear16,
	"ulaw": EncodingMULAW,
	"amr":  EncodingAMR,
	"3ga":  EncodingAMR,
	"awb":  EncodingAMRWB,
	"ogg":  EncodingOggOpus,
	"opus": EncodingOggOpus,
	"spx":  EncodingSpeexHeader,
	"webm": EncodingWebMOpus,
}

var contentTypes = map[AudioEncoding]string{
	EncodingFLAC:        "audio/flac",
	EncodingLinear16:    "audio/wav",
	EncodingMULAW:       "audio/basic",
	EncodingAMR:         "audio/amr",
	EncodingAMRWB:       "audio/amr-wb",
	EncodingOggOpus:     "audio/ogg",
	EncodingSpeexHeader: "audio/ogg",
	EncodingWebMOpus:    "audio/webm",
}

// ContentType returns a MIME type suitable for storing audio of this encoding.
func (e AudioEncoding) ContentType() string {
	if ct, ok := contentTypes[e]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Classify maps the file extension of address to its audio encoding.
// Matching is case-insensitive. Unknown or missing extensions fail with
// UNSUPPORTED_FORMAT; there is no default encoding.
func Classify(address string) (AudioEncoding, error) {
	ext := strings.ToLower(strings.TrimPrefix(Extension(address), "."))
	if enc, ok := encodingsByExtension[ext]; ok {
		return enc, nil
	}
	return "", errors.UnsupportedFormat(ext)
}

// Extension returns the extension of the last path segment of address,
// including the dot and in its original case. It returns "" when there is none.
func Extension(address string) string {
	name := fileName(address)
	if pos := strings.LastIndex(name, "."); pos >= 0 {
		return name[pos:]
	}
	return ""
}

// BaseName returns the last path segment of address without its extension.
func BaseName(address string) string {
	name := fileName(address)
	if pos := strings.LastIndex(name, "."); pos >= 0 {
		return name[:pos]
	}
	return name
}

// fileName returns the percent-decoded last segment of the URL path.
func fileName(address string) string {
	path := address
	if u, err := url.Parse(address); err == nil {
		path = u.EscapedPath()
	}
	if decoded, err := url.PathUnescape(path); err == nil {
		path = decoded
	}
	if pos := strings.LastIndex(path, "/"); pos >= 0 {
		path = path[pos+1:]
	}
	return path
}
