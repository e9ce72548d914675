package domain

import "encoding/json"

const RoleUser = "user"

// Message is one role-tagged chat message. When ImageURL is set the message is
// multimodal and the image part precedes the text part.
type Message struct {
	Role     string
	Text     string
	ImageURL string
}

func (m Message) Multimodal() bool {
	return m.ImageURL != ""
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// MarshalJSON renders the chat-completions wire shape.
func (m Message) MarshalJSON() ([]byte, error) {
	if !m.Multimodal() {
		return json.Marshal(struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}{Role: m.Role, Content: m.Text})
	}
	return json.Marshal(struct {
		Role    string        `json:"role"`
		Content []contentPart `json:"content"`
	}{
		Role: m.Role,
		Content: []contentPart{
			{Type: "image_url", ImageURL: &imageURL{URL: m.ImageURL}},
			{Type: "text", Text: m.Text},
		},
	})
}
