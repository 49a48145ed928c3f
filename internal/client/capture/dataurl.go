package capture

import "encoding/base64"

// EncodeDataURL inlines data as "data:<mime>;base64,<payload>".
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
