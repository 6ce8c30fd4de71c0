package domain

import "context"

//go:generate go tool mockgen -destination=./mocks/dispatcher_mock.go -package=mocks . Dispatcher

// Dispatcher は受信したメッセージのバイト列をアプリケーション層へ配送します。
type Dispatcher interface {
	// Dispatch は1メッセージ分のバイト列を配送します。エラーはそのメッセージだけを破棄します。
	Dispatch(ctx context.Context, data []byte) error
}
