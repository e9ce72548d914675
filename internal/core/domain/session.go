package domain

import "time"

type Stage string

const (
	StageUploaded   Stage = "uploaded"
	StageTextReady  Stage = "text_ready"
	StageClassified Stage = "classified"
	StageExtracted  Stage = "extracted"
	StageReviewed   Stage = "reviewed"
	StageFailed     Stage = "failed"
)

var stageRank = map[Stage]int{
	StageUploaded:   1,
	StageTextReady:  2,
	StageClassified: 3,
	StageExtracted:  4,
	StageReviewed:   5,
}

// Reached reports whether s is at or past target. A failed session has reached nothing.
func (s Stage) Reached(target Stage) bool {
	rank, ok := stageRank[s]
	if !ok {
		return false
	}
	return rank >= stageRank[target]
}

// Session is the orchestrator state for one document run.
type Session struct {
	ID             string                `json:"id"`
	Filename       string                `json:"filename"`
	MimeType       string                `json:"mime_type"`
	Engine         string                `json:"engine"`
	Image          []byte                `json:"-"`
	Stage          Stage                 `json:"stage"`
	OCRText        string                `json:"ocr_text,omitempty"`
	Classification *ClassificationResult `json:"classification,omitempty"`
	SelectedFields []string              `json:"selected_fields,omitempty"`
	Extraction     *ExtractionResult     `json:"extraction,omitempty"`
	Review         *ReviewResult         `json:"review,omitempty"`
	Error          string                `json:"error,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// Clone returns a deep copy so callers never share mutable state with the store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Image = append([]byte(nil), s.Image...)
	out.SelectedFields = append([]string(nil), s.SelectedFields...)
	if s.Classification != nil {
		cls := *s.Classification
		cls.Fields = append([]string(nil), s.Classification.Fields...)
		out.Classification = &cls
	}
	if s.Extraction != nil {
		ext := s.Extraction.Clone()
		out.Extraction = &ext
	}
	if s.Review != nil {
		rev := s.Review.Clone()
		out.Review = &rev
	}
	return &out
}

// DropAfter discards results produced after stage.
func (s *Session) DropAfter(stage Stage) {
	switch stage {
	case StageUploaded:
		s.OCRText = ""
		fallthrough
	case StageTextReady:
		s.Classification = nil
		fallthrough
	case StageClassified:
		s.SelectedFields = nil
		s.Extraction = nil
		fallthrough
	case StageExtracted:
		s.Review = nil
	}
	s.Stage = stage
}
