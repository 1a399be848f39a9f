package factors

type constError string

func (e constError) Error() string { return string(e) }

var (
	// ErrInvalidFactor indicates a negative, non-finite or otherwise unusable constant.
	ErrInvalidFactor = constError("invalid emission factor")

	// ErrInvalidVersion indicates a table version that is not semver.
	ErrInvalidVersion = constError("invalid factor table version")

	// ErrUnknownVersion indicates no registered table matches the requested version.
	ErrUnknownVersion = constError("unknown factor table version")

	// ErrDuplicateVersion indicates a table with the same version is already registered.
	ErrDuplicateVersion = constError("factor table version already registered")
)
