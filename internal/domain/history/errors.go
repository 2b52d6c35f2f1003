package history

import "errors"

var (
	ErrNotFound         = errors.New("key not found")
	ErrCapacityExceeded = errors.New("storage capacity exceeded")
	ErrRecordNotFound   = errors.New("record not found")
	ErrNotEmotionIssue  = errors.New("only emotion issues can be recorded")
)
