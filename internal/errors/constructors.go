package errors

// Convenience functions for common error patterns

// Protocol errors

// ProtocolConnect reports a failure to reach the compositor control socket.
func ProtocolConnect(socket string, cause error) *NirinitError {
	return Wrap(cause, CategoryProtocol, SeverityFatal, "failed to connect to compositor socket").
		WithContext("socket", socket)
}

// ProtocolSend reports a failed request write or acknowledgement.
func ProtocolSend(request string, cause error) *NirinitError {
	return Wrap(cause, CategoryProtocol, SeverityError, "failed to send request to compositor").
		WithContext("request", request)
}

// ProtocolReply reports a malformed or unexpected compositor reply.
func ProtocolReply(request, detail string) *NirinitError {
	return New(CategoryProtocol, SeverityError, "unexpected reply from compositor").
		WithContext("request", request).
		WithContext("detail", detail)
}

// ProtocolRejected reports an action the compositor refused to handle.
func ProtocolRejected(action, reason string) *NirinitError {
	return New(CategoryProtocol, SeverityWarning, "compositor rejected action").
		WithContext("action", action).
		WithContext("reason", reason)
}

// Snapshot errors

// SnapshotMissing marks the no-snapshot-yet case. It is benign: the daemon
// treats it as "first run, nothing to restore".
func SnapshotMissing(path string) *NirinitError {
	ne := New(CategorySnapshot, SeverityInfo, "no session snapshot found")
	ne.Benign = true
	return ne.WithContext("path", path)
}

// SnapshotMalformed marks an undecodable snapshot. The restore pass is
// skipped but the daemon continues into steady state.
func SnapshotMalformed(path string, cause error) *NirinitError {
	return Wrap(cause, CategorySnapshot, SeverityWarning, "session snapshot cannot be decoded").
		WithContext("path", path)
}

// SnapshotWrite reports a failed snapshot save.
func SnapshotWrite(path string, cause error) *NirinitError {
	return Wrap(cause, CategorySnapshot, SeverityError, "failed to write session snapshot").
		WithContext("path", path)
}

// Restore errors

// SpawnFailed reports a launch command that could not be started.
func SpawnFailed(command string, cause error) *NirinitError {
	return Wrap(cause, CategorySpawn, SeverityWarning, "failed to spawn launch command").
		WithContext("command", command)
}

// MatchTimeout reports an entry whose window never appeared in time.
func MatchTimeout(appID string) *NirinitError {
	return New(CategoryMatch, SeverityWarning, "window did not appear before timeout").
		WithContext("app_id", appID)
}

// Config errors

func ConfigInvalid(field, reason string) *NirinitError {
	return New(CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Internal errors

func InternalError(message string, cause error) *NirinitError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
