package service

import "errors"

var (
	// ErrNotFound means no contract has the requested id
	ErrNotFound = errors.New("contrato no encontrado")
	// ErrObjectExists is returned when an upload would overwrite a stored document
	ErrObjectExists = errors.New("el documento ya existe")
	// ErrInvalidDraft wraps every validation failure of a contract draft
	ErrInvalidDraft = errors.New("datos del contrato inválidos")
	// ErrNotReady means a collaborator did not come up within the readiness budget
	ErrNotReady = errors.New("servicio no disponible")
	// ErrOrphanedDocument marks a save whose document was uploaded but whose
	// row was not inserted. The blob is left in place.
	ErrOrphanedDocument = errors.New("documento huérfano")
	// ErrNotConfigured is returned by a messenger with no credentials
	ErrNotConfigured = errors.New("mensajería no configurada")
)
