package codec

import "strings"

// MaxImages bounds the image list kept for a catalogue record.
const MaxImages = 5

// ParseImageList splits a semicolon separated image field, dropping blank
// entries and keeping at most MaxImages.
func ParseImageList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
		if len(out) == MaxImages {
			break
		}
	}
	return out
}
