package core

import (
	"fmt"
	"strings"
	"time"
)

// ValidateChatTurn validates a ChatTurn according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Speaker must be valid (User or Model)
//   - Timestamp must not be in the future
//
// NOT validated:
//   - Seq (assigned by the repository on append)
func ValidateChatTurn(turn *ChatTurn) error {
	if turn == nil {
		return fmt.Errorf("%w: turn is nil", ErrInvalidChatTurn)
	}

	if turn.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChatTurn, ErrEmptyText)
	}

	if err := ValidateSpeaker(turn.Speaker); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChatTurn, err)
	}

	if !IsValidTimestamp(turn.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidChatTurn, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateSpeaker validates that a Speaker has a valid value.
func ValidateSpeaker(speaker Speaker) error {
	if speaker != SpeakerUser && speaker != SpeakerModel {
		return fmt.Errorf("%w: value %d", ErrInvalidSpeaker, speaker)
	}
	return nil
}

// ValidateFile checks that a submitted file carries a usable name.
// Empty content is allowed here; the extractor decides whether it parses.
func ValidateFile(file File) error {
	if strings.TrimSpace(file.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFile, ErrEmptyFileName)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
