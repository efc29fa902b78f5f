package server

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	maxNameLength     = 20
	maxQuestionLength = 100
	maxAnswerLength   = 50
	maxGuessLength    = 50
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("sessionid", func(fl validator.FieldLevel) bool {
			return validateSessionID(fl.Field().String()) == nil
		})
	})
}

func validateName(name string) (string, error) {
	return validateText("player name", name, maxNameLength)
}

func validateQuestion(text string) (string, error) {
	return validateText("question", text, maxQuestionLength)
}

func validateAnswer(text string) (string, error) {
	return validateText("answer", text, maxAnswerLength)
}

func validateGuess(text string) (string, error) {
	return validateText("guess", text, maxGuessLength)
}

// validateSessionID rejects malformed ids before any store lookup.
func validateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ValidationError{Reason: "invalid session id"}
	}
	return nil
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", ValidationError{Reason: label + " is required"}
	}
	if len(trimmed) > maxLen {
		return "", ValidationError{Reason: fmt.Sprintf("%s must be %d characters or fewer", label, maxLen)}
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}
