package notebookctx

// FragmentKind tags the payload carried by a Fragment.
type FragmentKind int

const (
	KindInvalid FragmentKind = iota
	KindText
	KindImage
)

// String returns a readable name for the kind.
func (k FragmentKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "invalid"
	}
}

// Fragment is one unit of extracted cell content: a text segment or raw
// image bytes. The zero value is invalid.
type Fragment struct {
	kind FragmentKind
	text string
	data []byte
}

// TextFragment returns a text fragment.
func TextFragment(s string) Fragment {
	return Fragment{kind: KindText, text: s}
}

// ImageFragment returns a fragment holding raw (decoded) image bytes.
func ImageFragment(data []byte) Fragment {
	return Fragment{kind: KindImage, data: data}
}

// Kind returns the fragment's kind.
func (f Fragment) Kind() FragmentKind { return f.kind }

// Text returns the text payload of a text fragment.
func (f Fragment) Text() string { return f.text }

// Data returns the image bytes of an image fragment.
func (f Fragment) Data() []byte { return f.data }

// IsEmpty reports whether f is an empty text fragment.
func (f Fragment) IsEmpty() bool {
	return f.kind == KindText && f.text == ""
}
