package llm

import (
	"fmt"
	"strings"
)

// SystemPrompt is sent with every completion.
const SystemPrompt = "You are the help desk assistant of a university. " +
	"Answer only from the provided documents. " +
	"If the documents do not contain the answer, say that you do not know. " +
	"Reply in the language of the question."

// BuildPrompt combines the question with the numbered, attributed context
// produced by post.BuildContext.
func BuildPrompt(question, contextText string) string {
	var b strings.Builder
	b.WriteString("Documents:\n")
	if strings.TrimSpace(contextText) == "" {
		b.WriteString("(none)\n")
	} else {
		b.WriteString(strings.TrimSpace(contextText))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", strings.TrimSpace(question))
	b.WriteString("Answer using the documents above and cite them as [Document N].")
	return b.String()
}
