package conversation

// TruncateHistory truncates the conversation history based on token and message limits.
// It applies the message limit first, then the token limit, removing the oldest turns.
// Limits of zero or less are ignored. The input slice is not modified.
func TruncateHistory(history []Turn, tokenLimit, messageLimit int) []Turn {
	if len(history) == 0 {
		return history
	}

	if messageLimit > 0 && len(history) > messageLimit {
		history = history[len(history)-messageLimit:]
	}

	if tokenLimit <= 0 {
		return history
	}

	counts := make([]int, len(history))
	total := 0
	for i, t := range history {
		counts[i] = EstimateTokens(t.Content)
		total += counts[i]
	}

	// The newest turn is always kept, even when it alone exceeds the budget.
	for total > tokenLimit && len(history) > 1 {
		total -= counts[0]
		counts = counts[1:]
		history = history[1:]
	}

	return history
}
