package application

import "errors"

var (
	// ErrStaleFrame は既に処理済みのフレーム宛てのバッチ
	ErrStaleFrame = errors.New("batch targets an already stepped frame")
	// ErrFrameTooFar はスケジュール可能な範囲を超えた未来のフレーム宛てのバッチ
	ErrFrameTooFar = errors.New("batch targets a frame beyond the schedule horizon")
	// ErrSideTaken は既に参加済みの勢力への重複Join
	ErrSideTaken = errors.New("side already joined")
	// ErrTrailingBytes はメッセージ末尾に余剰バイトが残っている
	ErrTrailingBytes = errors.New("trailing bytes after message")
)
