package services

import (
	"fmt"
	"strings"
)

const reviewSchema = `Output ONLY valid JSON with these keys:
  - "summary": a single-sentence TL;DR.
  - "rating": number 0-5 (one decimal, e.g. 4.2).
  - "pros": array of strings.
  - "cons": array of strings.
  - "detailedBody": markdown-formatted full review.
  - "callToAction": a concise recommendation sentence.
  - "imageSearchQuery": the query to fetch a clean product photo.`

// reviewPrompt asks for a first review of a product.
func reviewPrompt(name, category string) string {
	return fmt.Sprintf("You are an AI product reviewing expert. %s\nProduct: %q\nCategory: %q\n",
		reviewSchema, name, category)
}

// regeneratePrompt asks for a fresh version of an existing review.
func regeneratePrompt(name, category string) string {
	return fmt.Sprintf("You are an AI product reviewing expert. %s\n\nRegenerate a fresh review for:\n  Name: %q\n  Category: %q\nReturn exactly the JSON structure above, no extra text.\n",
		reviewSchema, name, category)
}

// brainstormPrompt asks for up to n specific products matching query.
func brainstormPrompt(query string, n int) string {
	return fmt.Sprintf(`Brainstorm up to %d specific, likely product names related to %q. `+
		`Return ONLY a JSON object of the form {"products": [{"name": "...", "category": "..."}]}.`,
		n, strings.TrimSpace(query))
}

// imagePrompt describes a studio product photo for the image generator.
func imagePrompt(name, category string) string {
	return fmt.Sprintf("A professional studio product photo of a %s, a %s, on a pure white background.", name, category)
}
