package message

// Message is log text with an attached byte source
type Message struct {
	Text     string
	Source   *ByteSource
	MimeType string // overrides Source.MimeType when set
}

// New creates a message carrying src
func New(src *ByteSource, text string) *Message {
	return &Message{Text: text, Source: src}
}

// NewWithType creates a message carrying src with an explicit MIME type
func NewWithType(src *ByteSource, mimeType, text string) *Message {
	return &Message{Text: text, Source: src, MimeType: mimeType}
}

// NewFromFile reads path and creates a message carrying its content
func NewFromFile(path, text string) (*Message, error) {
	src, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(src, text), nil
}

// Attachment returns the resolved attachment, or nil when there is no source
func (m *Message) Attachment() Attachment {
	if m.Source == nil {
		return nil
	}
	att := m.Source.Inline()
	if m.MimeType != "" {
		att.MimeType = m.MimeType
	}
	return att
}
