package domain

import "context"

//go:generate go tool mockgen -destination=./mocks/applier_mock.go -package=mocks . CommandApplier

// CommandApplier はデコード済みのコマンドをシミュレーション状態へ適用します。
// ネットワークIDから実体への解決はこの境界の向こう側で行います。
type CommandApplier interface {
	Apply(ctx context.Context, frame uint32, side SideID, cmd Command) error
}
