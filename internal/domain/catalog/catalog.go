package catalog

import (
	"errors"
	"strings"
)

// Kind distinguishes the two reference tables.
type Kind string

const (
	KindFormat Kind = "FORMAT"
	KindLimit  Kind = "LIMIT"
)

// Entity is a named, uniquely keyed catalog row (a game format or a stake limit).
type Entity struct {
	ID   int64  `json:"id"`
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
}

func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

func ValidateName(name string) error {
	if name == "" {
		return errors.New("name is required")
	}
	return nil
}
