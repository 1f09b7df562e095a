package models

// Content is the canonical representation of one user turn: either a plain
// string, or an ordered sequence of typed parts (text first, then image).
// Parts is nil for plain-text content.
type Content struct {
	Text  string
	Parts []ContentPart
}

// Multipart reports whether the content carries typed parts.
func (c Content) Multipart() bool {
	return len(c.Parts) > 0
}

// ContentPart is one element of a multi-part message. Exactly one field is
// set.
type ContentPart struct {
	Text  string
	Image *ImagePart
}

// ImagePart is a decoded inline image.
type ImagePart struct {
	Format string
	Bytes  []byte
}

// PlainContent wraps a plain string turn.
func PlainContent(text string) Content {
	return Content{Text: text}
}
