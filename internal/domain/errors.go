package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNotActive        = errors.New("quest is not active")
	ErrNoObjectives     = errors.New("quest has no objectives")
	ErrOutOfWindow      = errors.New("quest is outside its schedule window")
	ErrAlreadyJoined    = errors.New("quest already joined")
	ErrQuestFull        = errors.New("quest is full")
	ErrAlreadyCompleted = errors.New("quest already completed")
	ErrNotInProgress    = errors.New("quest is not in progress")

	// ErrProgressConflict is returned once the bounded retry budget is spent.
	ErrProgressConflict = errors.New("progress update conflict")

	// ErrVersionConflict is the store-level signal that expectedVersion is stale.
	ErrVersionConflict = errors.New("version conflict")

	ErrInvalidProgress = errors.New("progress does not match quest objectives")
)

// IsRetryable reports whether the caller may retry the operation as-is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProgressConflict) || errors.Is(err, ErrVersionConflict)
}

// UserMessage turns an engine error into a short message for the end user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Quest tidak ditemukan. Cek lagi ID-nya ya."
	case errors.Is(err, ErrNotActive), errors.Is(err, ErrNoObjectives):
		return "Quest ini belum dibuka."
	case errors.Is(err, ErrOutOfWindow):
		return "Quest ini tidak sedang berlangsung."
	case errors.Is(err, ErrAlreadyJoined):
		return "Kamu sudah ikut quest ini."
	case errors.Is(err, ErrQuestFull):
		return "Kuota peserta quest ini sudah penuh."
	case errors.Is(err, ErrAlreadyCompleted):
		return "Quest ini sudah selesai, tidak bisa dibatalkan."
	case errors.Is(err, ErrNotInProgress):
		return "Quest ini tidak sedang berjalan."
	case IsRetryable(err):
		return "Sedang sibuk, coba lagi sebentar."
	default:
		return "Terjadi kesalahan, coba lagi nanti."
	}
}
