package errors

import "errors"

// Telegram client errors.
var (
	ErrInvalidToken     = errors.New("bot token is invalid or revoked")
	ErrChannelNotFound  = errors.New("channel not found")
	ErrPermissionDenied = errors.New("bot lacks permission to post in the channel")
	ErrFileTooLarge     = errors.New("file exceeds the Telegram size limit")
	ErrIncompleteUpload = errors.New("upload response missing file or message identifier")
)

// Index server errors.
var (
	ErrTreeNotFound    = errors.New("no tree registered for this bot")
	ErrPayloadTooLarge = errors.New("tree payload exceeds the server size limit")
	ErrBadResponse     = errors.New("unexpected index server response")
)

// Tree errors.
var (
	ErrTreeTooDeep      = errors.New("tree exceeds maximum nesting depth")
	ErrMalformedTree    = errors.New("malformed tree structure")
	ErrBadIdentifier    = errors.New("invalid file or message identifier")
	ErrPathNotFound     = errors.New("path not present in tree")
	ErrRootNotDirectory = errors.New("upload root is not a directory")
)
