package services

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	shortIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	shortIDLength   = 4
)

// NewShortID returns a random identifier used to name an entity's asset folder.
func NewShortID() (string, error) {
	return gonanoid.Generate(shortIDAlphabet, shortIDLength)
}
