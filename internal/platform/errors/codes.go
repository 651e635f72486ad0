// Package errors provides structured error handling with i18n support.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Storage errors
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
	CodeStorageCorrupt     Code = "STORAGE_CORRUPT"
	CodeNotFound           Code = "NOT_FOUND"

	// Network errors
	CodeNetworkUnavailable Code = "NETWORK_UNAVAILABLE"
	CodeNetworkTimeout     Code = "NETWORK_TIMEOUT"

	// Backend rejections
	CodeBackendRejected     Code = "BACKEND_REJECTED"
	CodeInviteTokenInvalid  Code = "INVITE_TOKEN_INVALID"
	CodeInviteAlreadyMember Code = "INVITE_ALREADY_MEMBER"
	CodeCodeExchangeFailed  Code = "CODE_EXCHANGE_FAILED"

	// Session errors
	CodeSessionExpired       Code = "SESSION_EXPIRED"
	CodeSessionPersistFailed Code = "SESSION_PERSIST_FAILED"
	CodeVerificationTimeout  Code = "VERIFICATION_TIMEOUT"

	// Invite errors
	CodeInviteEmptyReference Code = "INVITE_EMPTY_REFERENCE"
	CodeInvitePartyMissing   Code = "INVITE_PARTY_MISSING"

	// Link errors
	CodeLinkMalformed Code = "LINK_MALFORMED"
)

// Retryable reports whether the UI should offer a retry affordance for the code.
func (c Code) Retryable() bool {
	switch c {
	case CodeNetworkUnavailable,
		CodeNetworkTimeout,
		CodeSessionPersistFailed,
		CodeVerificationTimeout:
		return true
	default:
		return false
	}
}
