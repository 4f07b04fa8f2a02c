package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// FallbackSummary is returned when summary generation fails.
const FallbackSummary = "Unable to generate a summary"

// Recommendation is a single suggested title.
type Recommendation struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

// GenerateBookDescription asks for a short description of the book.
// Returns an empty string when the request fails or the client is not
// configured; the caller decides whether a description is required.
func (c *Client) GenerateBookDescription(ctx context.Context, title, authorName, categoryName string) string {
	if !c.Enabled() {
		return ""
	}

	prompt := fmt.Sprintf(`You are an expert bookseller. Write a short description (2-3 sentences) for this book:

Title: %s
Author: %s
Category: %s

Reply with the description only, no introduction.`, title, orUnknown(authorName), orUnknown(categoryName))

	content, err := c.complete(ctx, prompt, 0.7, 150)
	if err != nil {
		c.logger.Error("description generation failed", "title", title, "error", err)
		return ""
	}

	return strings.TrimSpace(content)
}

// GenerateBookSummary asks for a short reader-facing summary. Failures
// degrade to FallbackSummary.
func (c *Client) GenerateBookSummary(ctx context.Context, title, authorName, categoryName, description string) string {
	if !c.Enabled() {
		return FallbackSummary
	}

	if strings.TrimSpace(description) == "" {
		description = "No description"
	}

	prompt := fmt.Sprintf(`You are a literary critic. Here is the information about a book:

Title: %s
Author: %s
Category: %s
Description: %s

Write a short, captivating summary of this book (3-4 sentences maximum).`,
		title, orUnknown(authorName), orUnknown(categoryName), description)

	content, err := c.complete(ctx, prompt, 0.7, 200)
	if err != nil {
		c.logger.Error("summary generation failed", "title", title, "error", err)
		return FallbackSummary
	}

	if strings.TrimSpace(content) == "" {
		return FallbackSummary
	}

	return strings.TrimSpace(content)
}

// RecommendSimilarBooks asks for exactly three similar titles. Malformed
// model output yields an empty list, never an error.
func (c *Client) RecommendSimilarBooks(ctx context.Context, title, authorName, categoryName string) []Recommendation {
	if !c.Enabled() {
		return []Recommendation{}
	}

	prompt := fmt.Sprintf(`You are an expert bookseller. A customer just finished reading this book:

Title: %s
Author: %s
Category: %s

Recommend exactly 3 similar books. Reply ONLY with a valid JSON array, no text before or after:
[
  {"title": "Book title 1", "author": "Author 1"},
  {"title": "Book title 2", "author": "Author 2"},
  {"title": "Book title 3", "author": "Author 3"}
]`, title, orUnknown(authorName), orUnknown(categoryName))

	content, err := c.complete(ctx, prompt, 0.8, 300)
	if err != nil {
		c.logger.Error("recommendation generation failed", "title", title, "error", err)
		return []Recommendation{}
	}

	var recommendations []Recommendation
	if err := json.Unmarshal([]byte(extractJSONArray(content)), &recommendations); err != nil {
		c.logger.Info("discarding malformed recommendations payload", "title", title, "error", err)
		return []Recommendation{}
	}

	return recommendations
}

// extractJSONArray trims any stray prose around the JSON array. Models
// occasionally wrap the payload despite the prompt instructions.
func extractJSONArray(content string) string {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return content
	}
	return content[start : end+1]
}
