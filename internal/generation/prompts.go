package generation

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/phrazzld/mockview-api/internal/domain"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(
	template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(promptFS, "prompts/*.tmpl"),
)

// ScorePromptData fills the rubric scoring prompt.
type ScorePromptData struct {
	Question    string
	IdealAnswer string
	UserAnswer  string
}

// ChunkMetadataPromptData fills the chunk metadata prompt.
type ChunkMetadataPromptData struct {
	Chunk string
}

// ManualQuestionsPromptData fills the role-based question prompt.
type ManualQuestionsPromptData struct {
	Role          string
	TechStack     []string
	InterviewType string
	Count         int
}

// DocumentQuestionsPromptData fills the document-based question prompt.
type DocumentQuestionsPromptData struct {
	Context   string
	Topics    []string
	KeyPoints []string
	Count     int
}

// FeedbackPromptData fills the free-text feedback prompt.
type FeedbackPromptData struct {
	OverallScore float64
	ItemsJSON    string
}

// NewFeedbackPromptData serializes scored items for the feedback prompt.
func NewFeedbackPromptData(overall float64, items []domain.ScoredItem) (FeedbackPromptData, error) {
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return FeedbackPromptData{}, fmt.Errorf("marshal scored items: %w", err)
	}
	return FeedbackPromptData{OverallScore: overall, ItemsJSON: string(raw)}, nil
}

// ScorePrompt renders the rubric scoring prompt.
func ScorePrompt(data ScorePromptData) (string, error) {
	return render("score.tmpl", data)
}

// ChunkMetadataPrompt renders the chunk metadata prompt.
func ChunkMetadataPrompt(data ChunkMetadataPromptData) (string, error) {
	return render("chunk_metadata.tmpl", data)
}

// ManualQuestionsPrompt renders the role-based question prompt.
func ManualQuestionsPrompt(data ManualQuestionsPromptData) (string, error) {
	return render("questions_manual.tmpl", data)
}

// DocumentQuestionsPrompt renders the document-based question prompt.
func DocumentQuestionsPrompt(data DocumentQuestionsPromptData) (string, error) {
	return render("questions_document.tmpl", data)
}

// FeedbackPrompt renders the feedback prompt.
func FeedbackPrompt(data FeedbackPromptData) (string, error) {
	return render("feedback.tmpl", data)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template %s: %w", name, err)
	}
	return buf.String(), nil
}
