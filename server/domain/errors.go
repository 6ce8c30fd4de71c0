package domain

import "errors"

// エラー定義
var (
	// ErrBufferTooShort は読み書きがバッファの範囲を超える場合に返されるエラーです。
	ErrBufferTooShort = errors.New("buffer too short")
	// ErrUnknownCommandTag は未知のコマンドタグをデコードした場合に返されるエラーです。
	ErrUnknownCommandTag = errors.New("unknown command tag")
	// ErrUnsupportedMessageType は未実装または未知のメッセージタグをデコードした場合に返されるエラーです。
	ErrUnsupportedMessageType = errors.New("unsupported message type")
	// ErrInvalidFieldValue はフィールドの値が列挙範囲外の場合に返されるエラーです。
	ErrInvalidFieldValue = errors.New("invalid field value")
)
