package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown              = "UNKNOWN"
	CodeStorageUnavailable   = "STORAGE_UNAVAILABLE"
	CodeStorageCorrupt       = "STORAGE_CORRUPT"
	CodeNotFound             = "NOT_FOUND"
	CodeNetworkUnavailable   = "NETWORK_UNAVAILABLE"
	CodeNetworkTimeout       = "NETWORK_TIMEOUT"
	CodeBackendRejected      = "BACKEND_REJECTED"
	CodeInviteTokenInvalid   = "INVITE_TOKEN_INVALID"
	CodeInviteAlreadyMember  = "INVITE_ALREADY_MEMBER"
	CodeCodeExchangeFailed   = "CODE_EXCHANGE_FAILED"
	CodeSessionExpired       = "SESSION_EXPIRED"
	CodeSessionPersistFailed = "SESSION_PERSIST_FAILED"
	CodeVerificationTimeout  = "VERIFICATION_TIMEOUT"
	CodeInviteEmptyReference = "INVITE_EMPTY_REFERENCE"
	CodeInvitePartyMissing   = "INVITE_PARTY_MISSING"
	CodeLinkMalformed        = "LINK_MALFORMED"
)

var messagesEnUS = map[Code]string{
	CodeUnknown:              "Something went wrong. Please try again.",
	CodeStorageUnavailable:   "We couldn't access local storage on this device.",
	CodeStorageCorrupt:       "Saved sign-in data was invalid and has been reset.",
	CodeNotFound:             "We couldn't find what you were looking for.",
	CodeNetworkUnavailable:   "No connection. Check your network and try again.",
	CodeNetworkTimeout:       "The request timed out. Please try again.",
	CodeBackendRejected:      "The server rejected the request.",
	CodeInviteTokenInvalid:   "This invite link is invalid or has expired.",
	CodeInviteAlreadyMember:  "You're already a member of this party.",
	CodeCodeExchangeFailed:   "We couldn't complete sign-in. Please try again.",
	CodeSessionExpired:       "Your session expired. Please sign in again.",
	CodeSessionPersistFailed: "Signed in, but we couldn't save your session. You may need to sign in again next time.",
	CodeVerificationTimeout:  "Email verified, but sign-in didn't complete. Please try opening the link again.",
	CodeInviteEmptyReference: "This invite link is missing its invite details.",
	CodeInvitePartyMissing:   "We accepted your invite but couldn't find the party.",
	CodeLinkMalformed:        "That link couldn't be opened.",
}
