package message

import (
	"encoding/base64"
	"strings"
)

// Sentinel prefixes understood by the reporting backend
const (
	SentinelPrefix = "RP_MESSAGE"
	SentinelFile   = "FILE"
	SentinelBase64 = "BASE64"

	sentinelSeparator = "#"
)

// FormatFile renders RP_MESSAGE#FILE#<path>#<text>
func FormatFile(path, text string) string {
	return strings.Join([]string{SentinelPrefix, SentinelFile, path, text}, sentinelSeparator)
}

// FormatBase64 renders RP_MESSAGE#BASE64#<base64 data>#<text>
func FormatBase64(data []byte, text string) string {
	return strings.Join([]string{SentinelPrefix, SentinelBase64, base64.StdEncoding.EncodeToString(data), text}, sentinelSeparator)
}

// ParseSentinel splits a sentinel message into its attachment and text.
// ok is false for anything that is not a well-formed sentinel; such input is
// meant to be logged as plain text.
func ParseSentinel(s string) (att Attachment, text string, ok bool) {
	if !strings.HasPrefix(s, SentinelPrefix+sentinelSeparator) {
		return nil, "", false
	}
	parts := strings.SplitN(s, sentinelSeparator, 4)
	if len(parts) != 4 || parts[2] == "" {
		return nil, "", false
	}

	switch parts[1] {
	case SentinelFile:
		return FileReference{Path: parts[2]}, parts[3], true
	case SentinelBase64:
		data, err := base64.StdEncoding.DecodeString(parts[2])
		if err != nil {
			return nil, "", false
		}
		return InlineBytes{MimeType: DetectMimeType("", data), Data: data}, parts[3], true
	default:
		return nil, "", false
	}
}
