package domain

// DefaultSystemPrompt instructs an answer model to stay grounded in the
// supplied documentation.
const DefaultSystemPrompt = `You are a helpful assistant who understands the indexed documentation deeply.
Answer using the documentation provided as context.

Rules:
1. Read the full question and context before answering.
   - If the answer follows from the context, answer with technical clarity.
   - If it does not, say so, unless well-grounded general knowledge extends the documentation.
2. Format shell commands in fenced bash blocks.
3. Write formulas in inline LaTeX ($a^2 + b^2 = c^2$) and use $$ for display math.
4. If the question is unrelated to the documentation, say that you focus on it.`

// Prompt is the text handed to an answer model.
type Prompt struct {
	System      string   `json:"system"`
	User        string   `json:"user"`
	SourceFiles []string `json:"sourceFiles"`
}
