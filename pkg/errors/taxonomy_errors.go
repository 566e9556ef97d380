package errors

import "errors"

// Taxonomy engine errors. Match them with errors.Is; the constructors below
// return fresh copies carrying the offending key.
var (
	// Local tree-shape errors. The tree is left unchanged.
	ErrInvalidTarget = NewDomainError(
		DomainNotFoundError,
		"INVALID_TARGET",
		"The referenced node is not present in the tree",
	)

	ErrRootDeletionForbidden = NewDomainError(
		DomainBusinessRuleError,
		"ROOT_DELETION_FORBIDDEN",
		"The root category cannot be deleted",
	)

	ErrNothingToClassify = NewDomainError(
		DomainBusinessRuleError,
		"NOTHING_TO_CLASSIFY",
		"The node needs both children and items before it can be classified",
	)

	ErrDuplicateKey = NewDomainError(
		DomainConflictError,
		"DUPLICATE_KEY",
		"A node with this key already exists",
	)

	ErrInvalidItems = NewDomainError(
		DomainValidationError,
		"INVALID_ITEMS",
		"Items must be a list of objects with a non-empty id",
	)

	// Remote errors. Never retried automatically.
	ErrGenerationFailed = NewDomainError(
		DomainExternalError,
		"GENERATION_FAILED",
		"The classification service failed to generate categories",
	)

	ErrClassificationFailed = NewDomainError(
		DomainExternalError,
		"CLASSIFICATION_FAILED",
		"The classification service failed to classify items",
	)

	ErrClassificationDataMismatch = NewDomainError(
		DomainExternalError,
		"CLASSIFICATION_DATA_MISMATCH",
		"The classification service returned items that were not requested",
	)

	ErrPersistenceWriteFailed = NewDomainError(
		DomainExternalError,
		"PERSISTENCE_WRITE_FAILED",
		"The persistence service rejected one or more writes",
	)

	ErrSessionNotFound = NewDomainError(
		DomainNotFoundError,
		"SESSION_NOT_FOUND",
		"The requested session does not exist",
	)
)

// NewInvalidTarget reports an operation against a key that is not in the tree.
func NewInvalidTarget(key string) *DomainError {
	return ErrInvalidTarget.Clone().WithDetail("key", key)
}

// NewRootDeletionForbidden reports an attempt to delete the root.
func NewRootDeletionForbidden(key string) *DomainError {
	return ErrRootDeletionForbidden.Clone().WithDetail("key", key)
}

// NewNothingToClassify reports a classify request against a node with no
// children or no items.
func NewNothingToClassify(key string, children, items int) *DomainError {
	return ErrNothingToClassify.Clone().
		WithDetail("key", key).
		WithDetail("children", children).
		WithDetail("items", items)
}

// NewDuplicateKey reports a key collision.
func NewDuplicateKey(key string) *DomainError {
	return ErrDuplicateKey.Clone().WithDetail("key", key)
}

// NewInvalidItems reports a malformed item list.
func NewInvalidItems(reason string) *DomainError {
	return ErrInvalidItems.Clone().WithDetail("reason", reason)
}

// NewGenerationFailed wraps a failed generate call.
func NewGenerationFailed(cause error) *DomainError {
	return ErrGenerationFailed.Clone().WithCause(cause)
}

// NewClassificationFailed wraps a failed classify call.
func NewClassificationFailed(cause error) *DomainError {
	return ErrClassificationFailed.Clone().WithCause(cause)
}

// NewClassificationDataMismatch reports a response item the request never sent.
func NewClassificationDataMismatch(itemID string, reason string) *DomainError {
	return ErrClassificationDataMismatch.Clone().
		WithDetail("item_id", itemID).
		WithDetail("reason", reason)
}

// NewPersistenceWriteFailed wraps the aggregate of failed remote writes.
func NewPersistenceWriteFailed(operation string, cause error) *DomainError {
	return ErrPersistenceWriteFailed.Clone().
		WithDetail("operation", operation).
		WithCause(cause)
}

// NewSessionNotFound reports an unknown session id.
func NewSessionNotFound(sessionID string) *DomainError {
	return ErrSessionNotFound.Clone().WithDetail("session_id", sessionID)
}

// GetDomainError extracts a DomainError from an error chain
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// IsLocalShapeError reports whether err was raised synchronously by the tree
// without any remote involvement.
func IsLocalShapeError(err error) bool {
	return errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrRootDeletionForbidden) ||
		errors.Is(err, ErrNothingToClassify) ||
		errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrInvalidItems)
}
