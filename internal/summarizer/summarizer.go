// Package summarizer asks an LLM for a structured Markdown summary of a
// podcast transcript.
package summarizer

import (
	"context"
	"errors"
	"fmt"
)

var ErrEmptyTranscript = errors.New("transcript is empty")

// Request is what the front end hands over after transcription.
type Request struct {
	Transcript string `json:"transcript"`
	Date       string `json:"date"`
	Title      string `json:"title"`
}

type Summarizer interface {
	Summarize(ctx context.Context, req Request) (string, error)
}

const SystemPrompt = `You are an assistant that analyzes and summarizes fantasy football podcast transcripts.
Your goal is to produce a structured Markdown summary.

Rules:
- Always respond in Markdown format.
- Include the Date in the top of the summary.
- Include the Title in the top of the summary.
- Start with a ` + "`## News Section`" + ` heading.
- Under the news section:
- Use bullet points (` + "`-`" + `) for each piece of news.
- For each item, include:
    - **Player/Team**: Name
    - **News**: Short description
    - **Sentiment**: Positive / Negative / Neutral (from a fantasy football perspective)
- After the news, create additional sections for the rest of the podcast discussion, such as:
- ` + "`## Matchup Analysis`" + `
- ` + "`## Player Debates`" + `
- ` + "`## Waiver Wire Suggestions`" + `
- (Other relevant headings depending on content)
- Within each section, use bullet points to summarize the main points, arguments, or insights.
- Keep the tone professional, clear, and concise.
`

// UserPrompt carries the transcript with its date and title.
func UserPrompt(req Request) string {
	return "Here is a transcript of a fantasy football podcast. " +
		"Please summarize it using the structure described in the system prompt. " +
		fmt.Sprintf("Transcript (Date: %s, Title: %s): \n\n%s", req.Date, req.Title, req.Transcript)
}
