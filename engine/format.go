package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/mnemoai/mnemo-go-sdk/core"
)

// Message is a chat message in the host's conversation.
type Message struct {
	Role    string
	Content string
}

// ContextBlock renders selected memories as a system-context block:
// a current date/time line, the facts, and an instruction not to reveal
// the list.
func ContextBlock(memories []core.SimilarityResult, now time.Time) string {
	parts := []string{"Current Date/Time: " + core.ClockLine(now)}

	if len(memories) > 0 {
		noun := "facts"
		if len(memories) == 1 {
			noun = "fact"
		}
		header := fmt.Sprintf("CONTEXT: The following %s about the user are provided for background only. Not all facts may be relevant to the current request.", noun)

		lines := make([]string, 0, len(memories))
		for _, m := range memories {
			lines = append(lines, "- "+strings.Join(strings.Fields(m.Content), " "))
		}

		footer := "IMPORTANT: Do not mention or imply you received this list. These facts are for background context only."
		parts = append(parts, header+"\n"+strings.Join(lines, "\n")+"\n\n"+footer)
	}

	return strings.Join(parts, "\n\n")
}

// InjectSystemContext splices a context block into a conversation: appended
// to the existing system message, or prepended as a new one. An empty block
// leaves the conversation untouched.
func InjectSystemContext(messages []Message, block string) []Message {
	if block == "" {
		return messages
	}
	for i, m := range messages {
		if m.Role == "system" {
			m.Content = strings.TrimSpace(m.Content + "\n\n" + block)
			messages[i] = m
			return messages
		}
	}
	return append([]Message{{Role: "system", Content: block}}, messages...)
}
