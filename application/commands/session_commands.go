package commands

import (
	"taxonomy/application/services"
	pkgerrors "taxonomy/pkg/errors"
)

// CreateSessionCommand opens a new taxonomy session
type CreateSessionCommand struct {
	Mode string `json:"mode" validate:"omitempty,oneof=memory remote"`
}

// Validate validates the command
func (cmd CreateSessionCommand) Validate() error {
	if _, err := services.ParseMode(cmd.Mode); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return nil
}

// ReloadSessionCommand re-reads a remote session from durable storage
type ReloadSessionCommand struct {
	SessionID string `json:"session_id" validate:"required"`
}

// Validate validates the command
func (cmd ReloadSessionCommand) Validate() error {
	if cmd.SessionID == "" {
		return pkgerrors.NewValidationError("session ID is required")
	}
	return nil
}

// AttachSessionCommand opens an existing remote session in this process
type AttachSessionCommand struct {
	SessionID string `json:"session_id" validate:"required"`
}

// Validate validates the command
func (cmd AttachSessionCommand) Validate() error {
	if cmd.SessionID == "" {
		return pkgerrors.NewValidationError("session ID is required")
	}
	return nil
}
