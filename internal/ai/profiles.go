package ai

import (
	"fmt"

	"github.com/kiranshivaraju/recruitai/pkg/models"
	"github.com/mitchellh/mapstructure"
)

// Completion types.
const (
	TypeJobDescription = "job_description"
	TypeResumeAnalysis = "resume_analysis"
	TypeJobAnalysis    = "job_analysis"
	TypeEmail          = "email"
)

// Override keys accepted by Gateway.Complete.
const (
	OverrideTemperature   = "temperature"
	OverrideMaxTokens     = "max_tokens"
	OverrideSystemMessage = "system_message"
)

// DefaultProfiles returns a fresh copy of the built-in completion profiles.
func DefaultProfiles() map[string]models.CompletionProfile {
	return map[string]models.CompletionProfile{
		TypeJobDescription: {
			Temperature:   0.7,
			MaxTokens:     1000,
			SystemMessage: "You are a professional HR content writer.",
		},
		TypeResumeAnalysis: {
			Temperature:   0.5,
			MaxTokens:     500,
			SystemMessage: "You are an AI recruitment expert.",
		},
		TypeJobAnalysis: {
			Temperature:   0.5,
			MaxTokens:     500,
			SystemMessage: "You are an AI career advisor matching candidates to job postings.",
		},
		TypeEmail: {
			Temperature:   0.7,
			MaxTokens:     400,
			SystemMessage: "You are a professional HR manager crafting personalized emails.",
		},
	}
}

// resolveProfile copies the named profile and decodes overrides on top of it.
func resolveProfile(profiles map[string]models.CompletionProfile, completionType string, overrides map[string]any) (models.CompletionProfile, error) {
	profile, ok := profiles[completionType]
	if !ok {
		return models.CompletionProfile{}, fmt.Errorf("%w: %q", ErrUnknownCompletionType, completionType)
	}
	if len(overrides) == 0 {
		return profile, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &profile,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return models.CompletionProfile{}, err
	}
	if err := dec.Decode(overrides); err != nil {
		return models.CompletionProfile{}, fmt.Errorf("%w: %v", ErrInvalidOverrides, err)
	}
	return profile, nil
}
