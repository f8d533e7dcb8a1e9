package domain

// DraftStatusDraft marks content that has not been published yet.
const DraftStatusDraft = "draft"

// Draft is the content composed for one platform.
type Draft struct {
	Platform    Platform `json:"platform"`
	Content     string   `json:"content"`
	ImagePrompt string   `json:"image_prompt,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Status      string   `json:"status"`
}

// MediaPlan is the result payload stored on a finished task.
type MediaPlan struct {
	Analysis Analysis `json:"analysis"`
	Drafts   []Draft  `json:"drafts"`
	Context  []string `json:"context"`
}
