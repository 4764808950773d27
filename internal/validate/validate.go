// Package validate holds local input validation. Validation failures are
// reported to the caller only; nothing is ever sent to the network for
// input that fails here.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxMessageLength        = 5000
	MaxChatTitleLength      = 100
	MaxNameLength           = 50
	MaxAdditionalInfoLength = 500
	MinAge                  = 13
	MaxAge                  = 120
	MinTopics               = 1
	MaxTopics               = 2
)

// Known topic tags a chat can be started with.
const (
	TopicHealth    = "health"
	TopicEducation = "education"
)

var (
	ErrEmptyMessage   = errors.New("message cannot be empty")
	ErrMessageTooLong = fmt.Errorf("message must be at most %d characters", MaxMessageLength)
)

// Message checks a chat message before it is sent. The caller is expected
// to trim the text first; a whitespace-only message is rejected as empty.
func Message(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// ChatTitle checks an optional chat title.
func ChatTitle(title string) error {
	if utf8.RuneCountInString(title) > MaxChatTitleLength {
		return fmt.Errorf("title must be at most %d characters", MaxChatTitleLength)
	}
	return nil
}

// Topics checks the topic tags a chat is started with.
func Topics(topics []string) error {
	if len(topics) < MinTopics || len(topics) > MaxTopics {
		return fmt.Errorf("a chat needs between %d and %d topics", MinTopics, MaxTopics)
	}
	for _, topic := range topics {
		if topic != TopicHealth && topic != TopicEducation {
			return fmt.Errorf("unknown topic %q", topic)
		}
	}
	return nil
}

// Name checks a profile name.
func Name(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}
	if utf8.RuneCountInString(strings.TrimSpace(name)) > MaxNameLength {
		return fmt.Errorf("name must be at most %d characters", MaxNameLength)
	}
	return nil
}

// Age checks a profile age.
func Age(age int) error {
	if age < MinAge {
		return fmt.Errorf("age must be at least %d", MinAge)
	}
	if age > MaxAge {
		return errors.New("please enter a valid age")
	}
	return nil
}

// AdditionalInfo checks the optional profile free-text field.
func AdditionalInfo(info string) error {
	if utf8.RuneCountInString(info) > MaxAdditionalInfoLength {
		return fmt.Errorf("additional info must be at most %d characters", MaxAdditionalInfoLength)
	}
	return nil
}
