package app

import (
	"fmt"

	"github.com/hitoshi/quill/internal/database"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}

// ParseMigrationDirection はmigrateサブコマンドの方向引数を解析する。
// 省略時はup。
func ParseMigrationDirection(args []string) (database.MigrationDirection, error) {
	if len(args) < 2 {
		return database.MigrateUp, nil
	}

	switch d := database.MigrationDirection(args[1]); d {
	case database.MigrateUp, database.MigrateDown:
		return d, nil
	default:
		return "", fmt.Errorf("unknown migration direction %q (want up or down)", args[1])
	}
}
