package scheduler

import "errors"

var (
	ErrInvalidGrade    = errors.New("invalid grade")
	ErrInvalidCardType = errors.New("invalid card type")
)
