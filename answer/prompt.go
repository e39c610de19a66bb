package answer

import (
	"fmt"
	"strings"

	"github.com/poiesic/meetkb/vectorindex"
)

const answerPromptTemplate = `You are an expert meeting assistant. Using the meeting summary and the transcript excerpts below, give a detailed and well-grounded answer to the user's question.

Your answer must:
- Address the question directly
- Refer to specific points from the transcript where they support the answer
- Offer structured insight rather than restating the summary
- Run to a few paragraphs, using bullet points or numbered steps where they help

If the user asks for a flowchart, decision tree, diagram or other visual, answer with a valid **Mermaid.js** diagram in a fenced code block (` + "```mermaid" + `). Produce only the diagram; do not describe Mermaid syntax.

<summary>
%s
</summary>

<context>
%s
</context>

Question: %s
Answer:
`

// buildContext joins the matched chunk texts, most similar first.
func buildContext(matches []vectorindex.Match) string {
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Chunk.Text
	}
	return strings.Join(texts, "\n\n")
}

// buildPrompt fills the answer template.
func buildPrompt(summary, context, question string) string {
	return fmt.Sprintf(answerPromptTemplate, summary, context, question)
}
