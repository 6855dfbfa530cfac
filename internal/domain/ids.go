package domain

import "github.com/google/uuid"

// ParseID parses an entity identifier, returning a FormatError naming the entity on failure
func ParseID(entity, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, NewFormatError("Invalid %s id format", entity)
	}
	return id, nil
}
