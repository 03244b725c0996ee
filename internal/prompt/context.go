package prompt

import "social-agent/internal/character"

// Vars builds the substitution map for a reply prompt.
func Vars(c *character.Character, originalPost, recentHistory string) map[string]string {
	return map[string]string{
		"agentName":      c.AgentName,
		"username":       c.Username,
		"bio":            c.BioText(),
		"lore":           c.LoreText(),
		"postDirections": c.PostDirectionsText(),
		"originalPost":   originalPost,
		"knowledge":      c.Knowledge,
		"chatModeRules":  c.ChatRulesText(),
		"recentHistory":  recentHistory,
	}
}

// ForReply renders the reply prompt for an inbound message. Chat mode uses
// the conversational template; otherwise short inputs get the short reply
// template. A character with knowledge gets it prepended as its own section.
func ForReply(c *character.Character, input string, chatMode bool, recentHistory string) string {
	vars := Vars(c, input, recentHistory)

	var base string
	switch {
	case chatMode:
		base = ChatModePrompt
	case len(input) <= 20:
		base = ReplyPromptShort
	default:
		base = ReplyPrompt
	}

	if c.Knowledge != "" {
		base = "# Knowledge\n{{knowledge}}\n\n" + base
	}
	return Render(base, vars)
}

// ForTopic renders the standalone topic-post prompt.
func ForTopic(c *character.Character, recentHistory string) string {
	return Render(TopicPrompt, Vars(c, "", recentHistory))
}

// ForBannedCheck renders the moderation classifier prompt for a candidate reply.
func ForBannedCheck(c *character.Character, reply string) string {
	return Render(BannedCheckPrompt, map[string]string{
		"agentName": c.AgentName,
		"username":  c.Username,
		"reply":     reply,
	})
}

// ForImage renders the image-prompt template for the configured provider.
func ForImage(c *character.Character, post string) (string, error) {
	if c.ImageGeneration == nil {
		return "", &character.ConfigError{Field: "imageGenerationBehavior", Msg: "not configured"}
	}
	switch c.ImageGeneration.Provider {
	case "ms2":
		return Render(ImagePromptMS2, Vars(c, post, "")), nil
	default:
		return "", &character.ConfigError{
			Field: "imageGenerationBehavior.provider",
			Msg:   "unsupported provider " + c.ImageGeneration.Provider,
		}
	}
}
